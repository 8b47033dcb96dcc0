package engine

import "testing"

func TestIsDeterministicFailure(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   bool
	}{
		{"bad input data", "input.mp4: Invalid data found when processing input", true},
		{"missing file", "missing.mp4: No such file or directory", true},
		{"no streams", "input.mp4 does not contain any stream", true},
		{"bad filter", "Error parsing filterchain '[0:v]xfade=' ", true},
		{"stream map mismatch", "Stream map '1:a:0' matches no streams.", true},
		{"bad specifier", "Invalid stream specifier: a9.", true},
		{"resource exhaustion", "Cannot allocate memory", false},
		{"broken pipe", "av_interleaved_write_frame(): Broken pipe", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDeterministicFailure(tt.stderr); got != tt.want {
				t.Errorf("isDeterministicFailure(%q) = %v, want %v", tt.stderr, got, tt.want)
			}
		})
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine(nil); got != "no engine output captured" {
		t.Errorf("lastLine(nil) = %q", got)
	}
	if got := lastLine([]string{"a", "b"}); got != "b" {
		t.Errorf("lastLine = %q, want b", got)
	}
}
