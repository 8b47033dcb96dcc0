package filtergraph

import (
	"strings"
	"testing"
)

func TestMix(t *testing.T) {
	tests := []struct {
		name      string
		tracks    []AudioTrack
		mode      MixMode
		normalize bool
		wantErr   bool
		wantParts []string
	}{
		{
			name:    "empty input fails",
			tracks:  nil,
			wantErr: true,
		},
		{
			name: "two tracks carry volumes and input count",
			tracks: []AudioTrack{
				{Label: "0:a", Volume: 1.0},
				{Label: "1:a", Volume: 0.3},
			},
			mode:      MixModeMix,
			wantParts: []string{"volume=1.0", "volume=0.3", "amix=inputs=2", "duration=longest"},
		},
		{
			name:      "merge preserves channels",
			tracks:    []AudioTrack{{Label: "0:a", Volume: 0.8}, {Label: "1:a", Volume: 0.8}},
			mode:      MixModeMerge,
			wantParts: []string{"amerge=inputs=2"},
		},
		{
			name:      "normalized mix appends loudnorm",
			tracks:    []AudioTrack{{Label: "0:a", Volume: 1.0}},
			mode:      MixModeMix,
			normalize: true,
			wantParts: []string{"amix=inputs=1", "loudnorm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := Mix(tt.tracks, tt.mode, tt.normalize)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(frag.Text, part) {
					t.Errorf("mix %q missing %q", frag.Text, part)
				}
			}
			if frag.OutputLabel != "amixout" {
				t.Errorf("output label = %q, want amixout", frag.OutputLabel)
			}
		})
	}
}

func TestAudioFragments(t *testing.T) {
	tests := []struct {
		name     string
		frag     Fragment
		wantPart string
	}{
		{"volume", Volume("0:a", 0.5, "v0"), "[0:a]volume=0.5[v0]"},
		{"fade in", AudioFadeIn("0:a", 2, "f0"), "afade=t=in:st=0:d=2"},
		{"fade out", AudioFadeOut("0:a", 30, 3, "f1"), "afade=t=out:st=27:d=3"},
		{"delay milliseconds", Delay("0:a", 1.5, "d0"), "adelay=1500:all=1"},
		{"loudnorm", Loudnorm("0:a", "n0"), "loudnorm=I=-16"},
		{"ducking", Ducking("bed", "vo", "duck"), "[bed][vo]sidechaincompress"},
		{"audio crossfade", AudioCrossfade("a0", "a1", 2.5, "xf"), "acrossfade=d=2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(tt.frag.Text, tt.wantPart) {
				t.Errorf("fragment %q missing %q", tt.frag.Text, tt.wantPart)
			}
		})
	}
}
