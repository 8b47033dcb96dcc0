// Package timeline converts clip descriptors into a validated, ordered
// arrangement on the output time axis, with gap and overlap detection.
package timeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/clipforge/clipforge/internal/fault"
)

// ClipSpec is one clip descriptor as submitted by a caller. SourceEnd nil
// means "to end of source"; SourceDuration nil means the total length is
// unknown.
type ClipSpec struct {
	ClipID         string   `json:"clip_id"`
	SourcePath     string   `json:"source_path"`
	TimelineStart  float64  `json:"timeline_start"`
	TimelineEnd    float64  `json:"timeline_end"`
	SourceStart    float64  `json:"source_start"`
	SourceEnd      *float64 `json:"source_end,omitempty"`
	SourceDuration *float64 `json:"source_duration,omitempty"`
}

// Clip is one placed segment, immutable once assembled.
type Clip struct {
	ClipID         string
	SourcePath     string
	TimelineStart  float64
	TimelineEnd    float64
	SourceStart    float64
	SourceEnd      *float64
	SourceDuration *float64
	Index          int
}

// TimelineDuration is the length the clip occupies on the output timeline.
func (c *Clip) TimelineDuration() float64 {
	return c.TimelineEnd - c.TimelineStart
}

// TrimDuration is the length of the trim window in the source, falling back
// to the timeline duration when the out point is open-ended and the source
// length is unknown.
func (c *Clip) TrimDuration() float64 {
	if c.SourceEnd != nil {
		return *c.SourceEnd - c.SourceStart
	}
	if c.SourceDuration != nil {
		return *c.SourceDuration - c.SourceStart
	}
	return c.TimelineDuration()
}

// Gap is an uncovered span on the output timeline.
type Gap struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Assembled is a validated timeline. Built once per job, read-only after.
type Assembled struct {
	Clips         []Clip
	TotalDuration float64
	Gaps          []Gap
}

// IsValid reports whether the timeline has at least one clip. Overlapping
// input never produces an Assembled at all.
func (a *Assembled) IsValid() bool {
	return len(a.Clips) > 0
}

// Options controls assembly behavior.
type Options struct {
	// Sort orders clips by timeline start before validation, reassigning
	// each clip's Index.
	Sort bool
	// AllowGaps permits uncovered spans between clips. When false, any
	// detected gap fails assembly.
	AllowGaps bool
	// ValidateSources stats each source path on disk.
	ValidateSources bool
}

// Assemble builds a validated timeline from clip descriptors.
func Assemble(specs []ClipSpec, opts Options) (*Assembled, error) {
	if len(specs) == 0 {
		return nil, fault.Assembly("empty_timeline", "timeline requires at least one clip", nil)
	}

	clips := make([]Clip, 0, len(specs))
	for i, spec := range specs {
		clip, err := buildClip(i, spec)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}

	if opts.Sort {
		sort.SliceStable(clips, func(i, j int) bool {
			return clips[i].TimelineStart < clips[j].TimelineStart
		})
	}
	for i := range clips {
		clips[i].Index = i
	}

	for i := 0; i < len(clips)-1; i++ {
		cur, next := &clips[i], &clips[i+1]
		if cur.TimelineEnd > next.TimelineStart {
			return nil, fault.Assembly("timeline_overlap",
				fmt.Sprintf("clip %q (ends %.3fs) overlaps clip %q (starts %.3fs)",
					cur.ClipID, cur.TimelineEnd, next.ClipID, next.TimelineStart), nil)
		}
	}

	var total float64
	for i := range clips {
		if clips[i].TimelineEnd > total {
			total = clips[i].TimelineEnd
		}
	}

	gaps := detectGaps(clips)
	if len(gaps) > 0 && !opts.AllowGaps {
		spans := make([]string, 0, len(gaps))
		for _, g := range gaps {
			spans = append(spans, fmt.Sprintf("%.3fs-%.3fs (%.3fs)", g.Start, g.End, g.Duration))
		}
		return nil, fault.Assembly("timeline_gap",
			fmt.Sprintf("timeline has %d disallowed gap(s): %s", len(gaps), strings.Join(spans, ", ")), nil)
	}

	if opts.ValidateSources {
		for i := range clips {
			if _, err := os.Stat(clips[i].SourcePath); err != nil {
				return nil, fault.Assembly("missing_source",
					fmt.Sprintf("clip %q source not found: %s", clips[i].ClipID, clips[i].SourcePath), err)
			}
		}
	}

	return &Assembled{
		Clips:         clips,
		TotalDuration: total,
		Gaps:          gaps,
	}, nil
}

func buildClip(index int, spec ClipSpec) (Clip, error) {
	if spec.ClipID == "" {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d: clip_id is required", index), nil)
	}
	if spec.SourcePath == "" {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d (%s): source_path is required", index, spec.ClipID), nil)
	}
	if spec.TimelineEnd <= spec.TimelineStart {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d (%s): timeline_end %.3f must be greater than timeline_start %.3f",
				index, spec.ClipID, spec.TimelineEnd, spec.TimelineStart), nil)
	}
	if spec.TimelineStart < 0 {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d (%s): timeline_start %.3f must not be negative",
				index, spec.ClipID, spec.TimelineStart), nil)
	}
	if spec.SourceStart < 0 {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d (%s): source_start %.3f must not be negative",
				index, spec.ClipID, spec.SourceStart), nil)
	}
	if spec.SourceEnd != nil && *spec.SourceEnd <= spec.SourceStart {
		return Clip{}, fault.Assembly("invalid_clip",
			fmt.Sprintf("clip at index %d (%s): source_end %.3f must be greater than source_start %.3f",
				index, spec.ClipID, *spec.SourceEnd, spec.SourceStart), nil)
	}

	return Clip{
		ClipID:         spec.ClipID,
		SourcePath:     spec.SourcePath,
		TimelineStart:  spec.TimelineStart,
		TimelineEnd:    spec.TimelineEnd,
		SourceStart:    spec.SourceStart,
		SourceEnd:      spec.SourceEnd,
		SourceDuration: spec.SourceDuration,
		Index:          index,
	}, nil
}

func detectGaps(clips []Clip) []Gap {
	var gaps []Gap

	if len(clips) > 0 && clips[0].TimelineStart > 0 {
		gaps = append(gaps, Gap{
			Start:    0,
			End:      clips[0].TimelineStart,
			Duration: clips[0].TimelineStart,
		})
	}

	for i := 0; i < len(clips)-1; i++ {
		if d := clips[i+1].TimelineStart - clips[i].TimelineEnd; d > 0 {
			gaps = append(gaps, Gap{
				Start:    clips[i].TimelineEnd,
				End:      clips[i+1].TimelineStart,
				Duration: d,
			})
		}
	}

	return gaps
}

// FindClip returns the clip with the given id, or nil.
func (a *Assembled) FindClip(clipID string) *Clip {
	for i := range a.Clips {
		if a.Clips[i].ClipID == clipID {
			return &a.Clips[i]
		}
	}
	return nil
}
