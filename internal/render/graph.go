package render

import (
	"fmt"
	"strings"

	"github.com/clipforge/clipforge/internal/filtergraph"
	"github.com/clipforge/clipforge/internal/timeline"
)

// BuildCommand compiles the whole composition into one ffmpeg invocation:
// trimmed clip inputs, extra audio inputs, the fused filter graph with
// overlays and the audio mix, stream maps, and encoder settings.
//
// clipPaths holds the normalized file for each clip in timeline order;
// musicPaths holds the downloaded extra audio tracks in payload order.
func BuildCommand(p *ComposePayload, tl *timeline.Assembled, clipPaths, musicPaths []string, outputPath string) ([]string, error) {
	if len(clipPaths) != len(tl.Clips) {
		return nil, fmt.Errorf("have %d clip paths for %d clips", len(clipPaths), len(tl.Clips))
	}
	if len(musicPaths) != len(p.AudioTracks) {
		return nil, fmt.Errorf("have %d audio paths for %d tracks", len(musicPaths), len(p.AudioTracks))
	}

	args := []string{"-hide_banner", "-y"}

	// Clip trims use input seeking so filter labels see cut streams.
	for i, clip := range tl.Clips {
		if clip.SourceStart > 0 {
			args = append(args, "-ss", fmt.Sprintf("%g", clip.SourceStart))
		}
		args = append(args, "-to", fmt.Sprintf("%g", clip.SourceStart+clip.TrimDuration()))
		args = append(args, "-i", clipPaths[i])
	}
	for i, path := range musicPaths {
		if p.AudioTracks[i].Loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", path)
	}

	fragments, videoLabel, audioLabel, err := filtergraph.CompileTimeline(tl, p.Transitions)
	if err != nil {
		return nil, err
	}

	if len(p.Overlays) > 0 {
		overlaid := filtergraph.BuildOverlays(p.Overlays, videoLabel, "vtext")
		fragments = append(fragments, overlaid)
		videoLabel = overlaid.OutputLabel
	}

	audioLabel, audioFragments, err := buildAudioMix(p, tl, audioLabel, len(tl.Clips))
	if err != nil {
		return nil, err
	}
	fragments = append(fragments, audioFragments...)

	graph := filtergraph.Join(fragments...)
	if graph != "" {
		args = append(args, "-filter_complex", graph)
	}

	args = append(args, "-map", mapArg(videoLabel), "-map", mapArg(audioLabel))

	enc, err := filtergraph.Settings(filtergraph.EncoderPreset(p.Output.Preset))
	if err != nil {
		return nil, err
	}
	args = append(args, enc.Args()...)
	args = append(args, "-t", fmt.Sprintf("%g", tl.TotalDuration))
	args = append(args, outputPath)

	return args, nil
}

// buildAudioMix layers extra audio tracks under the timeline audio.
// Without extra tracks the timeline audio passes through untouched.
func buildAudioMix(p *ComposePayload, tl *timeline.Assembled, timelineAudio string, clipInputs int) (string, []filtergraph.Fragment, error) {
	if len(p.AudioTracks) == 0 {
		return timelineAudio, nil, nil
	}

	var fragments []filtergraph.Fragment
	tracks := []filtergraph.AudioTrack{{Label: timelineAudio, Volume: 1.0}}

	for i, spec := range p.AudioTracks {
		label := fmt.Sprintf("%d:a", clipInputs+i)
		if spec.FadeIn > 0 {
			out := fmt.Sprintf("mfi%d", i)
			fragments = append(fragments, filtergraph.AudioFadeIn(label, spec.FadeIn, out))
			label = out
		}
		if spec.FadeOut > 0 {
			out := fmt.Sprintf("mfo%d", i)
			fragments = append(fragments, filtergraph.AudioFadeOut(label, tl.TotalDuration, spec.FadeOut, out))
			label = out
		}
		if spec.DelaySec > 0 {
			out := fmt.Sprintf("mdl%d", i)
			fragments = append(fragments, filtergraph.Delay(label, spec.DelaySec, out))
			label = out
		}
		tracks = append(tracks, filtergraph.AudioTrack{Label: label, Volume: spec.Volume})
	}

	mixed, err := filtergraph.Mix(tracks, filtergraph.MixModeMix, true)
	if err != nil {
		return "", nil, err
	}
	fragments = append(fragments, mixed)
	return mixed.OutputLabel, fragments, nil
}

// mapArg formats a -map value: raw stream specifiers pass through,
// filter labels get bracketed.
func mapArg(label string) string {
	if strings.Contains(label, ":") {
		return label
	}
	return "[" + label + "]"
}
