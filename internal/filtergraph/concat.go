package filtergraph

import (
	"fmt"
	"strings"

	"github.com/clipforge/clipforge/internal/timeline"
)

// Segment is one entry in a concat-demuxer list: a source file with optional
// trim in/out points.
type Segment struct {
	Path     string
	InPoint  float64
	OutPoint float64
}

// SegmentsFromTimeline maps assembled clips to concat segments, carrying
// each clip's trim window.
func SegmentsFromTimeline(tl *timeline.Assembled) []Segment {
	segments := make([]Segment, 0, len(tl.Clips))
	for i := range tl.Clips {
		clip := &tl.Clips[i]
		seg := Segment{Path: clip.SourcePath, InPoint: clip.SourceStart}
		if clip.SourceEnd != nil {
			seg.OutPoint = *clip.SourceEnd
		}
		segments = append(segments, seg)
	}
	return segments
}

// ConcatList renders the concat-demuxer list file contents. Single quotes in
// paths are escaped per the demuxer's quoting rules.
func ConcatList(segments []Segment) string {
	var sb strings.Builder
	sb.WriteString("ffconcat version 1.0\n")
	for _, seg := range segments {
		escaped := strings.ReplaceAll(seg.Path, "'", `'\''`)
		fmt.Fprintf(&sb, "file '%s'\n", escaped)
		if seg.InPoint > 0 {
			fmt.Fprintf(&sb, "inpoint %g\n", seg.InPoint)
		}
		if seg.OutPoint > 0 {
			fmt.Fprintf(&sb, "outpoint %g\n", seg.OutPoint)
		}
	}
	return sb.String()
}

// ConcatArgs builds the engine argument list consuming a concat list file.
// streamCopy avoids re-encoding and requires uniform input parameters;
// otherwise the provided encoder settings apply.
func ConcatArgs(listPath, outputPath string, streamCopy bool, enc EncoderSettings) []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", listPath}
	if streamCopy {
		args = append(args, "-c", "copy")
	} else {
		args = append(args, enc.Args()...)
	}
	return append(args, "-y", outputPath)
}
