package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRootCommand(t *testing.T) {
	cmd := rootCmd
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "clipforge") {
		t.Error("Help output should mention clipforge")
	}
	if !strings.Contains(output, "render") {
		t.Error("Help output should mention render command")
	}
	if !strings.Contains(output, "watch") {
		t.Error("Help output should mention watch command")
	}
}

func TestLoadComposition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "composition.yaml")

	doc := `composition_id: promo
clips:
  - clip_id: intro
    source_path: sources/intro.mp4
    timeline_start: 0
    timeline_end: 5
  - clip_id: body
    source_path: sources/body.mp4
    timeline_start: 5
    timeline_end: 20
transitions:
  - type: crossfade
    style: fade
    duration: 1.5
    from_clip_id: intro
    to_clip_id: body
audio_tracks:
  - source_key: music/theme.mp3
    volume: 0.4
    fade_out: 3
output:
  format: mp4
  resolution: 1280x720
  fps: 30
  preset: web
priority: high
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := loadComposition(path)
	if err != nil {
		t.Fatalf("loadComposition() error = %v", err)
	}

	if got.CompositionID != "promo" {
		t.Errorf("CompositionID = %q, want promo", got.CompositionID)
	}
	if len(got.Clips) != 2 {
		t.Fatalf("len(Clips) = %d, want 2", len(got.Clips))
	}
	if got.Clips[1].TimelineEnd != 20 {
		t.Errorf("Clips[1].TimelineEnd = %g, want 20", got.Clips[1].TimelineEnd)
	}
	if len(got.Transitions) != 1 || got.Transitions[0].Duration != 1.5 {
		t.Errorf("unexpected transitions: %+v", got.Transitions)
	}
	if len(got.AudioTracks) != 1 || got.AudioTracks[0].Volume != 0.4 {
		t.Errorf("unexpected audio tracks: %+v", got.AudioTracks)
	}
	if got.Output == nil || got.Output.Resolution != "1280x720" {
		t.Errorf("unexpected output: %+v", got.Output)
	}
	if got.Priority != "high" {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
}

func TestLoadCompositionErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing file", ""},
		{"not yaml", "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if tt.body != "" {
				if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := loadComposition(path); err == nil {
				t.Error("loadComposition() expected error")
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	if got := formatTime(time.Time{}); got != "-" {
		t.Errorf("formatTime(zero) = %q, want -", got)
	}
}
