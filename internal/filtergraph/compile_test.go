package filtergraph

import (
	"strings"
	"testing"
)

func TestCompileTimelineNoTransitions(t *testing.T) {
	tl := mustAssemble(t, spec("a", 0, 10), spec("b", 10, 20))

	fragments, v, a, err := CompileTimeline(tl, nil)
	if err != nil {
		t.Fatalf("CompileTimeline: %v", err)
	}
	if v != "outv" || a != "outa" {
		t.Errorf("labels = %q/%q, want outv/outa", v, a)
	}
	graph := Join(fragments...)
	if !strings.Contains(graph, "concat=n=2:v=1:a=1") {
		t.Errorf("graph missing concat: %q", graph)
	}
}

func TestCompileTimelineCrossfadeChain(t *testing.T) {
	tl := mustAssemble(t, spec("a", 0, 10), spec("b", 10, 20), spec("c", 20, 30))
	transitions := []TransitionConfig{
		{Type: TransitionCrossfade, Duration: 2, FromClipID: "a", ToClipID: "b"},
		{Type: TransitionCrossfade, Duration: 1, FromClipID: "b", ToClipID: "c"},
	}

	fragments, v, a, err := CompileTimeline(tl, transitions)
	if err != nil {
		t.Fatalf("CompileTimeline: %v", err)
	}
	graph := Join(fragments...)

	// First boundary overlaps at 8s; the merged 18s stream meets clip c at 17s.
	if !strings.Contains(graph, "xfade=transition=fade:duration=2:offset=8") {
		t.Errorf("graph missing first xfade: %q", graph)
	}
	if !strings.Contains(graph, "xfade=transition=fade:duration=1:offset=17") {
		t.Errorf("graph missing chained xfade: %q", graph)
	}
	if v != "xv2" || a != "xa2" {
		t.Errorf("final labels = %q/%q, want xv2/xa2", v, a)
	}
}

func TestCompileTimelineFadesFuseIntoClipChain(t *testing.T) {
	tl := mustAssemble(t, spec("a", 0, 10), spec("b", 10, 20))
	transitions := []TransitionConfig{
		{Type: TransitionFade, Duration: 1, ToClipID: "a"},
		{Type: TransitionFade, Duration: 2, FromClipID: "b"},
	}

	fragments, _, _, err := CompileTimeline(tl, transitions)
	if err != nil {
		t.Fatalf("CompileTimeline: %v", err)
	}
	graph := Join(fragments...)

	if !strings.Contains(graph, "[0:v]fade=t=in:st=0:d=1[c0]") {
		t.Errorf("graph missing fade-in on first clip: %q", graph)
	}
	if !strings.Contains(graph, "[1:v]fade=t=out:st=8:d=2[c1]") {
		t.Errorf("graph missing fade-out on last clip: %q", graph)
	}
	if !strings.Contains(graph, "[c0][0:a][c1][1:a]concat=n=2:v=1:a=1") {
		t.Errorf("concat does not consume faded labels: %q", graph)
	}
}

func TestCompileTimelineRejectsNonAdjacentCrossfade(t *testing.T) {
	tl := mustAssemble(t, spec("a", 0, 10), spec("b", 10, 20), spec("c", 20, 30))
	transitions := []TransitionConfig{
		{Type: TransitionCrossfade, Duration: 2, FromClipID: "a", ToClipID: "c"},
	}

	if _, _, _, err := CompileTimeline(tl, transitions); err == nil {
		t.Error("CompileTimeline accepted a crossfade between non-adjacent clips")
	}
}
