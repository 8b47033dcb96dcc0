package render

import (
	"testing"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/timeline"
)

func validClips() []timeline.ClipSpec {
	return []timeline.ClipSpec{
		{ClipID: "a", SourcePath: "sources/a.mp4", TimelineStart: 0, TimelineEnd: 10},
		{ClipID: "b", SourcePath: "sources/b.mp4", TimelineStart: 10, TimelineEnd: 20},
	}
}

func TestNewComposePayloadDefaults(t *testing.T) {
	p, err := NewComposePayload("comp-1", validClips(), OutputSettings{})
	if err != nil {
		t.Fatalf("NewComposePayload: %v", err)
	}
	if p.Output.Format != "mp4" {
		t.Errorf("default format = %q, want mp4", p.Output.Format)
	}
	if p.Output.Resolution != "1920x1080" {
		t.Errorf("default resolution = %q, want 1920x1080", p.Output.Resolution)
	}
	if p.Output.FPS != 30 {
		t.Errorf("default fps = %g, want 30", p.Output.FPS)
	}
	if p.Priority != PriorityDefault {
		t.Errorf("default priority = %q, want %q", p.Priority, PriorityDefault)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ComposePayload)
	}{
		{"missing composition id", func(p *ComposePayload) { p.CompositionID = "" }},
		{"no clips", func(p *ComposePayload) { p.Clips = nil }},
		{"unknown format", func(p *ComposePayload) { p.Output.Format = "avi" }},
		{"malformed resolution", func(p *ComposePayload) { p.Output.Resolution = "1080p" }},
		{"oversized resolution", func(p *ComposePayload) { p.Output.Resolution = "8192x4320" }},
		{"zero fps", func(p *ComposePayload) { p.Output.FPS = -1 }},
		{"unknown preset", func(p *ComposePayload) { p.Output.Preset = "ultra" }},
		{"unknown priority", func(p *ComposePayload) { p.Priority = "urgent" }},
		{"audio track without source", func(p *ComposePayload) {
			p.AudioTracks = []AudioTrackSpec{{Volume: 1.0}}
		}},
		{"audio volume out of range", func(p *ComposePayload) {
			p.AudioTracks = []AudioTrackSpec{{SourceKey: "music/bed.mp3", Volume: 3.0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewComposePayload("comp-1", validClips(), OutputSettings{})
			if err != nil {
				t.Fatalf("baseline payload invalid: %v", err)
			}
			tt.mutate(p)
			err = p.Validate()
			if err == nil {
				t.Fatal("Validate() accepted a bad payload")
			}
			if !fault.IsKind(err, fault.KindValidation) {
				t.Errorf("error kind = %v, want validation", err)
			}
			if fault.From(err).Retryable() {
				t.Error("validation failure reported as retryable")
			}
		})
	}
}

func TestDimensions(t *testing.T) {
	w, h, err := OutputSettings{Resolution: "1280x720"}.Dimensions()
	if err != nil {
		t.Fatalf("Dimensions: %v", err)
	}
	if w != 1280 || h != 720 {
		t.Errorf("Dimensions = %dx%d, want 1280x720", w, h)
	}
}
