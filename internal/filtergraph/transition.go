package filtergraph

import (
	"fmt"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/timeline"
)

type TransitionType string

const (
	TransitionCrossfade TransitionType = "crossfade"
	TransitionFade      TransitionType = "fade"
	TransitionCut       TransitionType = "cut"
)

// TransitionConfig describes one transition between placed clips. Crossfade
// requires both clip references; fade requires exactly one ("to" fades in at
// the clip's timeline start, "from" fades out at its end); cut requires
// neither and emits nothing.
type TransitionConfig struct {
	Type       TransitionType `json:"type"`
	Style      string         `json:"style,omitempty"`
	Duration   float64        `json:"duration"`
	FromClipID string         `json:"from_clip_id,omitempty"`
	ToClipID   string         `json:"to_clip_id,omitempty"`
}

// ValidateTransitions checks clip references and per-type reference rules
// against the assembled timeline.
func ValidateTransitions(tl *timeline.Assembled, transitions []TransitionConfig) error {
	for i, tr := range transitions {
		if tr.FromClipID != "" && tl.FindClip(tr.FromClipID) == nil {
			return fault.Assembly("unknown_clip_reference",
				fmt.Sprintf("transition %d references unknown from_clip_id %q", i, tr.FromClipID), nil)
		}
		if tr.ToClipID != "" && tl.FindClip(tr.ToClipID) == nil {
			return fault.Assembly("unknown_clip_reference",
				fmt.Sprintf("transition %d references unknown to_clip_id %q", i, tr.ToClipID), nil)
		}

		switch tr.Type {
		case TransitionCrossfade:
			if tr.FromClipID == "" || tr.ToClipID == "" {
				return fault.Assembly("invalid_transition",
					fmt.Sprintf("transition %d: crossfade requires both from_clip_id and to_clip_id", i), nil)
			}
			if tr.Duration <= 0 {
				return fault.Assembly("invalid_transition",
					fmt.Sprintf("transition %d: crossfade duration %.3f must be positive", i, tr.Duration), nil)
			}
		case TransitionFade:
			if (tr.FromClipID == "") == (tr.ToClipID == "") {
				return fault.Assembly("invalid_transition",
					fmt.Sprintf("transition %d: fade requires exactly one of from_clip_id or to_clip_id", i), nil)
			}
			if tr.Duration <= 0 {
				return fault.Assembly("invalid_transition",
					fmt.Sprintf("transition %d: fade duration %.3f must be positive", i, tr.Duration), nil)
			}
		case TransitionCut:
			if tr.FromClipID != "" || tr.ToClipID != "" {
				return fault.Assembly("invalid_transition",
					fmt.Sprintf("transition %d: cut takes no clip references", i), nil)
			}
		default:
			return fault.Assembly("invalid_transition",
				fmt.Sprintf("transition %d: unknown type %q", i, tr.Type), nil)
		}
	}
	return nil
}

// CrossfadeOffset is when the overlap begins relative to the outgoing clip.
func CrossfadeOffset(from *timeline.Clip, duration float64) float64 {
	return from.TimelineDuration() - duration
}

// BuildTransitions compiles transitions into filter fragments, one per
// non-cut transition, each input referenced by its clip index. With no
// transitions it falls back to a plain concatenation of all clips in
// timeline order.
func BuildTransitions(tl *timeline.Assembled, transitions []TransitionConfig) ([]Fragment, error) {
	if err := ValidateTransitions(tl, transitions); err != nil {
		return nil, err
	}

	if len(transitions) == 0 {
		return []Fragment{ConcatAll(tl)}, nil
	}

	fragments := make([]Fragment, 0, len(transitions))
	for i, tr := range transitions {
		switch tr.Type {
		case TransitionCrossfade:
			from := tl.FindClip(tr.FromClipID)
			to := tl.FindClip(tr.ToClipID)
			style := tr.Style
			if style == "" {
				style = "fade"
			}
			offset := CrossfadeOffset(from, tr.Duration)
			label := fmt.Sprintf("xf%d", i)
			fragments = append(fragments, Fragment{
				Text: fmt.Sprintf("[%d:v][%d:v]xfade=transition=%s:duration=%g:offset=%g[%s]",
					from.Index, to.Index, style, tr.Duration, offset, label),
				OutputLabel: label,
			})

		case TransitionFade:
			if tr.ToClipID != "" {
				clip := tl.FindClip(tr.ToClipID)
				label := fmt.Sprintf("fi%d", i)
				fragments = append(fragments, Fragment{
					Text:        fmt.Sprintf("[%d:v]fade=t=in:st=0:d=%g[%s]", clip.Index, tr.Duration, label),
					OutputLabel: label,
				})
			} else {
				clip := tl.FindClip(tr.FromClipID)
				start := clip.TimelineDuration() - tr.Duration
				label := fmt.Sprintf("fo%d", i)
				fragments = append(fragments, Fragment{
					Text:        fmt.Sprintf("[%d:v]fade=t=out:st=%g:d=%g[%s]", clip.Index, start, tr.Duration, label),
					OutputLabel: label,
				})
			}

		case TransitionCut:
			// No filter emitted.
		}
	}

	return fragments, nil
}

// ConcatAll emits a video+audio concatenation of every clip in timeline
// order, binding the outputs to the outv/outa labels.
func ConcatAll(tl *timeline.Assembled) Fragment {
	var text string
	for i := range tl.Clips {
		text += fmt.Sprintf("[%d:v][%d:a]", i, i)
	}
	text += fmt.Sprintf("concat=n=%d:v=1:a=1[outv][outa]", len(tl.Clips))
	return Fragment{Text: text, OutputLabel: "outv"}
}
