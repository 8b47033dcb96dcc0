package filtergraph

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/timeline"
)

func TestConcatList(t *testing.T) {
	out := 8.0
	tl := mustAssemble(t,
		timeline.ClipSpec{ClipID: "a", SourcePath: "/media/a.mp4", TimelineStart: 0, TimelineEnd: 5, SourceStart: 3, SourceEnd: &out},
		timeline.ClipSpec{ClipID: "b", SourcePath: "/media/b.mp4", TimelineStart: 5, TimelineEnd: 10},
	)

	list := ConcatList(SegmentsFromTimeline(tl))

	for _, part := range []string{
		"ffconcat version 1.0",
		"file '/media/a.mp4'",
		"inpoint 3",
		"outpoint 8",
		"file '/media/b.mp4'",
	} {
		if !strings.Contains(list, part) {
			t.Errorf("concat list %q missing %q", list, part)
		}
	}

	// Untrimmed clip must not get trim directives.
	if strings.Count(list, "inpoint") != 1 {
		t.Errorf("expected exactly one inpoint directive in %q", list)
	}
}

func TestConcatArgs(t *testing.T) {
	enc, err := Settings(PresetWeb)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}

	t.Run("stream copy", func(t *testing.T) {
		args := strings.Join(ConcatArgs("/tmp/list.txt", "/tmp/out.mp4", true, enc), " ")
		for _, part := range []string{"-f concat", "-safe 0", "-i /tmp/list.txt", "-c copy", "-y /tmp/out.mp4"} {
			if !strings.Contains(args, part) {
				t.Errorf("args %q missing %q", args, part)
			}
		}
	})

	t.Run("re-encode", func(t *testing.T) {
		args := strings.Join(ConcatArgs("/tmp/list.txt", "/tmp/out.mp4", false, enc), " ")
		if strings.Contains(args, "-c copy") {
			t.Errorf("re-encode args %q must not stream copy", args)
		}
		if !strings.Contains(args, "-c:v libx264") {
			t.Errorf("args %q missing encoder settings", args)
		}
	})
}
