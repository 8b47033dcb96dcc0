package filtergraph

import (
	"fmt"
	"strings"

	"github.com/clipforge/clipforge/internal/fault"
)

// AudioTrack is one labeled audio stream entering the mixer.
type AudioTrack struct {
	Label  string  `json:"label"`
	Volume float64 `json:"volume"`
}

type MixMode string

const (
	// MixModeMix sums tracks with amix; output lasts as long as the
	// longest input.
	MixModeMix MixMode = "mix"
	// MixModeMerge interleaves channels with amerge, preserving them.
	MixModeMerge MixMode = "merge"
)

// Volume scales one stream.
func Volume(inputLabel string, volume float64, outputLabel string) Fragment {
	return Fragment{
		Text:        fmt.Sprintf("[%s]volume=%.1f[%s]", inputLabel, volume, outputLabel),
		OutputLabel: outputLabel,
	}
}

// AudioFadeIn fades a stream in from its start.
func AudioFadeIn(inputLabel string, duration float64, outputLabel string) Fragment {
	return Fragment{
		Text:        fmt.Sprintf("[%s]afade=t=in:st=0:d=%g[%s]", inputLabel, duration, outputLabel),
		OutputLabel: outputLabel,
	}
}

// AudioFadeOut fades a stream out ending at streamDuration.
func AudioFadeOut(inputLabel string, streamDuration, duration float64, outputLabel string) Fragment {
	return Fragment{
		Text: fmt.Sprintf("[%s]afade=t=out:st=%g:d=%g[%s]",
			inputLabel, streamDuration-duration, duration, outputLabel),
		OutputLabel: outputLabel,
	}
}

// Delay shifts a stream right by delaySeconds on all channels.
func Delay(inputLabel string, delaySeconds float64, outputLabel string) Fragment {
	ms := int(delaySeconds * 1000)
	return Fragment{
		Text:        fmt.Sprintf("[%s]adelay=%d:all=1[%s]", inputLabel, ms, outputLabel),
		OutputLabel: outputLabel,
	}
}

// Loudnorm applies EBU R128 loudness normalization.
func Loudnorm(inputLabel, outputLabel string) Fragment {
	return Fragment{
		Text:        fmt.Sprintf("[%s]loudnorm=I=-16:TP=-1.5:LRA=11[%s]", inputLabel, outputLabel),
		OutputLabel: outputLabel,
	}
}

// Ducking lowers the bed stream whenever the voice stream is active.
func Ducking(bedLabel, voiceLabel, outputLabel string) Fragment {
	return Fragment{
		Text: fmt.Sprintf("[%s][%s]sidechaincompress=threshold=0.05:ratio=8:attack=5:release=300[%s]",
			bedLabel, voiceLabel, outputLabel),
		OutputLabel: outputLabel,
	}
}

// AudioCrossfade overlaps the tail of one stream with the head of the next.
func AudioCrossfade(firstLabel, secondLabel string, duration float64, outputLabel string) Fragment {
	return Fragment{
		Text: fmt.Sprintf("[%s][%s]acrossfade=d=%g[%s]",
			firstLabel, secondLabel, duration, outputLabel),
		OutputLabel: outputLabel,
	}
}

// Mix combines one or more tracks into a single stream bound to outputLabel.
// Each track gets its own volume stage so per-track levels survive the
// combine. Fails on an empty track list.
func Mix(tracks []AudioTrack, mode MixMode, normalize bool) (Fragment, error) {
	if len(tracks) == 0 {
		return Fragment{}, fault.Assembly("empty_mix", "audio mix requires at least one track", nil)
	}

	var sb strings.Builder
	leveled := make([]string, 0, len(tracks))
	for i, track := range tracks {
		label := fmt.Sprintf("lvl%d", i)
		sb.WriteString(fmt.Sprintf("[%s]volume=%.1f[%s];", track.Label, track.Volume, label))
		leveled = append(leveled, label)
	}

	for _, label := range leveled {
		sb.WriteString("[" + label + "]")
	}

	switch mode {
	case MixModeMerge:
		sb.WriteString(fmt.Sprintf("amerge=inputs=%d", len(tracks)))
	default:
		sb.WriteString(fmt.Sprintf("amix=inputs=%d:duration=longest", len(tracks)))
	}

	outputLabel := "amixout"
	if normalize {
		sb.WriteString(fmt.Sprintf("[premix];[premix]loudnorm=I=-16:TP=-1.5:LRA=11[%s]", outputLabel))
	} else {
		sb.WriteString("[" + outputLabel + "]")
	}

	return Fragment{Text: sb.String(), OutputLabel: outputLabel}, nil
}
