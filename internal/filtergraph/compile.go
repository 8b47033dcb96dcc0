package filtergraph

import (
	"fmt"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/timeline"
)

// CompileTimeline fuses the whole timeline into one connected graph:
// per-clip fades are applied first, clips separated only by cuts are
// concatenated into runs, and runs joined by crossfades are folded with
// xfade/acrossfade pairs at cumulative offsets. Returns the fragments
// plus the final video and audio labels to map.
//
// Crossfades must join adjacent clips; anything else cannot be expressed
// as a single xfade chain.
func CompileTimeline(tl *timeline.Assembled, transitions []TransitionConfig) ([]Fragment, string, string, error) {
	if err := ValidateTransitions(tl, transitions); err != nil {
		return nil, "", "", err
	}

	if len(transitions) == 0 {
		frag := ConcatAll(tl)
		return []Fragment{frag}, "outv", "outa", nil
	}

	fadeIn := map[int]float64{}
	fadeOut := map[int]float64{}
	crossAfter := map[int]*TransitionConfig{}

	for i := range transitions {
		tr := &transitions[i]
		switch tr.Type {
		case TransitionFade:
			if tr.ToClipID != "" {
				fadeIn[tl.FindClip(tr.ToClipID).Index] = tr.Duration
			} else {
				fadeOut[tl.FindClip(tr.FromClipID).Index] = tr.Duration
			}
		case TransitionCrossfade:
			from := tl.FindClip(tr.FromClipID)
			to := tl.FindClip(tr.ToClipID)
			if to.Index != from.Index+1 {
				return nil, "", "", fault.Assembly("nonadjacent_crossfade",
					fmt.Sprintf("crossfade joins clips %q and %q which are not adjacent", tr.FromClipID, tr.ToClipID), nil)
			}
			crossAfter[from.Index] = tr
		}
	}

	var fragments []Fragment

	// Per-clip video labels, with fades applied where configured.
	videoLabels := make([]string, len(tl.Clips))
	for i, clip := range tl.Clips {
		videoLabels[i] = fmt.Sprintf("%d:v", i)
		in, hasIn := fadeIn[i]
		out, hasOut := fadeOut[i]
		if !hasIn && !hasOut {
			continue
		}
		chain := ""
		if hasIn {
			chain = fmt.Sprintf("fade=t=in:st=0:d=%g", in)
		}
		if hasOut {
			if chain != "" {
				chain += ","
			}
			chain += fmt.Sprintf("fade=t=out:st=%g:d=%g", clip.TimelineDuration()-out, out)
		}
		label := fmt.Sprintf("c%d", i)
		fragments = append(fragments, Fragment{
			Text:        fmt.Sprintf("[%d:v]%s[%s]", i, chain, label),
			OutputLabel: label,
		})
		videoLabels[i] = label
	}

	// Runs: maximal spans of clips not separated by a crossfade.
	type run struct {
		video    string
		audio    string
		duration float64
	}
	var runs []run
	var exits []*TransitionConfig
	start := 0
	for i := range tl.Clips {
		if crossAfter[i] == nil && i != len(tl.Clips)-1 {
			continue
		}
		r := run{}
		for j := start; j <= i; j++ {
			r.duration += tl.Clips[j].TimelineDuration()
		}
		if i == start {
			r.video = videoLabels[i]
			r.audio = fmt.Sprintf("%d:a", i)
		} else {
			r.video = fmt.Sprintf("r%dv", len(runs))
			r.audio = fmt.Sprintf("r%da", len(runs))
			text := ""
			for j := start; j <= i; j++ {
				text += fmt.Sprintf("[%s][%d:a]", videoLabels[j], j)
			}
			text += fmt.Sprintf("concat=n=%d:v=1:a=1[%s][%s]", i-start+1, r.video, r.audio)
			fragments = append(fragments, Fragment{Text: text, OutputLabel: r.video})
		}
		runs = append(runs, r)
		exits = append(exits, crossAfter[i])
		start = i + 1
	}

	// Fold runs left to right across the crossfade boundaries.
	cur := runs[0]
	for k := 1; k < len(runs); k++ {
		tr := exits[k-1]
		style := tr.Style
		if style == "" {
			style = "fade"
		}
		offset := cur.duration - tr.Duration
		videoOut := fmt.Sprintf("xv%d", k)
		audioOut := fmt.Sprintf("xa%d", k)
		fragments = append(fragments,
			Fragment{
				Text: fmt.Sprintf("[%s][%s]xfade=transition=%s:duration=%g:offset=%g[%s]",
					cur.video, runs[k].video, style, tr.Duration, offset, videoOut),
				OutputLabel: videoOut,
			},
			Fragment{
				Text: fmt.Sprintf("[%s][%s]acrossfade=d=%g[%s]",
					cur.audio, runs[k].audio, tr.Duration, audioOut),
				OutputLabel: audioOut,
			})
		cur = run{
			video:    videoOut,
			audio:    audioOut,
			duration: cur.duration + runs[k].duration - tr.Duration,
		}
	}

	return fragments, cur.video, cur.audio, nil
}
