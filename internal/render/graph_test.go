package render

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/filtergraph"
	"github.com/clipforge/clipforge/internal/timeline"
)

func buildPayload(t *testing.T) (*ComposePayload, *timeline.Assembled) {
	t.Helper()
	p, err := NewComposePayload("comp-1", validClips(), OutputSettings{})
	if err != nil {
		t.Fatalf("NewComposePayload: %v", err)
	}
	tl, err := timeline.Assemble(p.Clips, timeline.Options{Sort: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return p, tl
}

func TestBuildCommandConcat(t *testing.T) {
	p, tl := buildPayload(t)

	args, err := BuildCommand(p, tl, []string{"/tmp/a.mp4", "/tmp/b.mp4"}, nil, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i /tmp/a.mp4",
		"-i /tmp/b.mp4",
		"-filter_complex",
		"concat=n=2:v=1:a=1[outv][outa]",
		"-map [outv]",
		"-map [outa]",
		"-c:v libx264",
		"/tmp/out.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("output path is not the final argument: %v", args)
	}
}

func TestBuildCommandCrossfade(t *testing.T) {
	p, tl := buildPayload(t)
	p.Transitions = []filtergraph.TransitionConfig{
		{Type: filtergraph.TransitionCrossfade, Duration: 2, FromClipID: "a", ToClipID: "b"},
	}

	args, err := BuildCommand(p, tl, []string{"/tmp/a.mp4", "/tmp/b.mp4"}, nil, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "xfade=transition=fade:duration=2:offset=8") {
		t.Errorf("missing xfade with offset 8: %q", joined)
	}
	if !strings.Contains(joined, "acrossfade=d=2") {
		t.Errorf("missing acrossfade: %q", joined)
	}
}

func TestBuildCommandWithMusic(t *testing.T) {
	p, tl := buildPayload(t)
	p.AudioTracks = []AudioTrackSpec{{SourceKey: "music/bed.mp3", Volume: 0.3, FadeIn: 1}}

	args, err := BuildCommand(p, tl, []string{"/tmp/a.mp4", "/tmp/b.mp4"}, []string{"/tmp/bed.mp3"}, "/tmp/out.mp4")
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	joined := strings.Join(args, " ")

	for _, want := range []string{
		"-i /tmp/bed.mp3",
		"afade=t=in:st=0:d=1",
		"volume=0.3",
		"amix=inputs=2",
		"-map [amixout]",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
}

func TestBuildCommandPathCountMismatch(t *testing.T) {
	p, tl := buildPayload(t)
	if _, err := BuildCommand(p, tl, []string{"/tmp/a.mp4"}, nil, "/tmp/out.mp4"); err == nil {
		t.Error("BuildCommand accepted a short clip path list")
	}
}
