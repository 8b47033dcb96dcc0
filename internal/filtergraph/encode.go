package filtergraph

import (
	"fmt"
	"strconv"

	"github.com/clipforge/clipforge/internal/fault"
)

// EncoderPreset names a quality/latency intent.
type EncoderPreset string

const (
	// PresetWeb balances quality and size for progressive download.
	PresetWeb EncoderPreset = "web"
	// PresetStreaming favors latency: capped bitrate, no B-frames.
	PresetStreaming EncoderPreset = "streaming"
	// PresetArchive favors quality over encode speed and size.
	PresetArchive EncoderPreset = "archive"
)

// EncoderSettings are concrete codec flags derived from a preset.
type EncoderSettings struct {
	VideoCodec   string
	AudioCodec   string
	CRF          int    // 0 means bitrate-driven
	VideoBitrate string // used when CRF is 0
	MaxRate      string
	BufSize      string
	Speed        string // libx264 -preset
	Profile      string
	Tune         string
	GOP          int // keyframe interval in frames
	BFrames      int
	RefFrames    int
	AudioBitrate string
	FastStart    bool
}

// Settings maps a preset name to concrete encoder settings. The mappings are
// part of the engine invocation contract and must stay stable across
// releases for reproducible renders.
func Settings(preset EncoderPreset) (EncoderSettings, error) {
	switch preset {
	case PresetWeb:
		return EncoderSettings{
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			CRF:          23,
			Speed:        "medium",
			Profile:      "high",
			GOP:          250,
			BFrames:      3,
			RefFrames:    4,
			AudioBitrate: "128k",
			FastStart:    true,
		}, nil
	case PresetStreaming:
		return EncoderSettings{
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			VideoBitrate: "4500k",
			MaxRate:      "4500k",
			BufSize:      "9000k",
			Speed:        "veryfast",
			Profile:      "main",
			Tune:         "zerolatency",
			GOP:          60,
			BFrames:      0,
			RefFrames:    1,
			AudioBitrate: "128k",
		}, nil
	case PresetArchive:
		return EncoderSettings{
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			CRF:          18,
			Speed:        "slow",
			Profile:      "high",
			GOP:          120,
			BFrames:      8,
			RefFrames:    5,
			AudioBitrate: "192k",
		}, nil
	default:
		return EncoderSettings{}, fault.Validation("unknown_preset",
			fmt.Sprintf("unknown encoder preset %q", preset), nil)
	}
}

// Args renders the settings as engine arguments, in a fixed order so
// invocations are bit-reproducible.
func (s EncoderSettings) Args() []string {
	args := []string{"-c:v", s.VideoCodec}
	if s.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(s.CRF))
	} else if s.VideoBitrate != "" {
		args = append(args, "-b:v", s.VideoBitrate)
	}
	if s.MaxRate != "" {
		args = append(args, "-maxrate", s.MaxRate, "-bufsize", s.BufSize)
	}
	if s.Speed != "" {
		args = append(args, "-preset", s.Speed)
	}
	if s.Profile != "" {
		args = append(args, "-profile:v", s.Profile)
	}
	if s.Tune != "" {
		args = append(args, "-tune", s.Tune)
	}
	if s.GOP > 0 {
		args = append(args, "-g", strconv.Itoa(s.GOP))
	}
	args = append(args, "-bf", strconv.Itoa(s.BFrames))
	if s.RefFrames > 0 {
		args = append(args, "-refs", strconv.Itoa(s.RefFrames))
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:a", s.AudioCodec)
	if s.AudioBitrate != "" {
		args = append(args, "-b:a", s.AudioBitrate)
	}
	if s.FastStart {
		args = append(args, "-movflags", "+faststart")
	}
	return args
}

// bitsPerPixel per quality tier, the usual H.264 rule of thumb.
var tierBitsPerPixel = map[string]float64{
	"low":    0.05,
	"medium": 0.10,
	"high":   0.15,
}

// EstimateBitrate estimates a video bitrate in kbit/s from resolution, frame
// rate and a quality tier. Unknown tiers fall back to medium.
func EstimateBitrate(width, height int, fps float64, tier string) int {
	bpp, ok := tierBitsPerPixel[tier]
	if !ok {
		bpp = tierBitsPerPixel["medium"]
	}
	return int(float64(width) * float64(height) * fps * bpp / 1000)
}
