package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clipforge/clipforge/internal/fault"
	"github.com/clipforge/clipforge/internal/filtergraph"
	"github.com/clipforge/clipforge/internal/timeline"
)

// Priority lanes map 1:1 onto queue names consumed by the worker pool.
const (
	PriorityHigh    = "high"
	PriorityDefault = "default"
	PriorityLow     = "low"
)

const (
	maxOutputWidth  = 4096
	maxOutputHeight = 4096
	maxClips        = 200
)

var allowedFormats = map[string]bool{
	"mp4":  true,
	"webm": true,
	"mov":  true,
}

// AudioTrackSpec is an extra audio source mixed under the composition.
type AudioTrackSpec struct {
	SourceKey string  `json:"source_key"`
	Volume    float64 `json:"volume"`
	FadeIn    float64 `json:"fade_in,omitempty"`
	FadeOut   float64 `json:"fade_out,omitempty"`
	DelaySec  float64 `json:"delay_sec,omitempty"`
	Loop      bool    `json:"loop,omitempty"`
}

// OutputSettings describes the encoded deliverable.
type OutputSettings struct {
	Format     string  `json:"format"`
	Resolution string  `json:"resolution"`
	FPS        float64 `json:"fps"`
	Preset     string  `json:"preset"`
}

// Dimensions parses the WxH resolution string.
func (o OutputSettings) Dimensions() (int, int, error) {
	parts := strings.SplitN(o.Resolution, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fault.Validation("bad_resolution", fmt.Sprintf("resolution %q is not WxH", o.Resolution), nil)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fault.Validation("bad_resolution", fmt.Sprintf("resolution width %q is not an integer", parts[0]), nil)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fault.Validation("bad_resolution", fmt.Sprintf("resolution height %q is not an integer", parts[1]), nil)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fault.Validation("bad_resolution", "resolution must be positive", nil)
	}
	if w > maxOutputWidth || h > maxOutputHeight {
		return 0, 0, fault.Validation("resolution_too_large",
			fmt.Sprintf("resolution %dx%d exceeds the %dx%d limit", w, h, maxOutputWidth, maxOutputHeight), nil)
	}
	return w, h, nil
}

// ComposePayload is the full declarative description of one render job.
type ComposePayload struct {
	CompositionID string                         `json:"composition_id"`
	Clips         []timeline.ClipSpec            `json:"clips"`
	Transitions   []filtergraph.TransitionConfig `json:"transitions,omitempty"`
	AudioTracks   []AudioTrackSpec               `json:"audio_tracks,omitempty"`
	Overlays      []filtergraph.TextOverlay      `json:"overlays,omitempty"`
	Output        OutputSettings                 `json:"output"`
	Priority      string                         `json:"priority"`
}

// NewComposePayload validates and normalizes a render request. Defaults:
// mp4 output, 1920x1080, 30fps, web preset, default priority.
func NewComposePayload(compositionID string, clips []timeline.ClipSpec, output OutputSettings) (*ComposePayload, error) {
	p := &ComposePayload{
		CompositionID: compositionID,
		Clips:         clips,
		Output:        output,
		Priority:      PriorityDefault,
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ComposePayload) applyDefaults() {
	if p.Output.Format == "" {
		p.Output.Format = "mp4"
	}
	if p.Output.Resolution == "" {
		p.Output.Resolution = "1920x1080"
	}
	if p.Output.FPS == 0 {
		p.Output.FPS = 30
	}
	if p.Output.Preset == "" {
		p.Output.Preset = string(filtergraph.PresetWeb)
	}
	if p.Priority == "" {
		p.Priority = PriorityDefault
	}
}

// Validate checks the payload shape before it is accepted onto the queue.
// Every failure here is permanent: retrying an invalid request cannot help.
func (p *ComposePayload) Validate() error {
	if p.CompositionID == "" {
		return fault.Validation("missing_composition_id", "composition_id is required", nil)
	}
	if len(p.Clips) == 0 {
		return fault.Validation("empty_clips", "at least one clip is required", nil)
	}
	if len(p.Clips) > maxClips {
		return fault.Validation("too_many_clips", fmt.Sprintf("composition has %d clips, limit is %d", len(p.Clips), maxClips), nil)
	}
	if !allowedFormats[p.Output.Format] {
		return fault.Validation("bad_format", fmt.Sprintf("output format %q is not one of mp4, webm, mov", p.Output.Format), nil)
	}
	if _, _, err := p.Output.Dimensions(); err != nil {
		return err
	}
	if p.Output.FPS <= 0 || p.Output.FPS > 120 {
		return fault.Validation("bad_fps", fmt.Sprintf("fps %g is out of range (0, 120]", p.Output.FPS), nil)
	}
	switch filtergraph.EncoderPreset(p.Output.Preset) {
	case filtergraph.PresetWeb, filtergraph.PresetStreaming, filtergraph.PresetArchive:
	default:
		return fault.Validation("bad_preset", fmt.Sprintf("preset %q is not one of web, streaming, archive", p.Output.Preset), nil)
	}
	switch p.Priority {
	case PriorityHigh, PriorityDefault, PriorityLow:
	default:
		return fault.Validation("bad_priority", fmt.Sprintf("priority %q is not one of high, default, low", p.Priority), nil)
	}
	for i, track := range p.AudioTracks {
		if track.SourceKey == "" {
			return fault.Validation("missing_audio_source", fmt.Sprintf("audio track %d has no source_key", i), nil)
		}
		if track.Volume < 0 || track.Volume > 2 {
			return fault.Validation("bad_volume", fmt.Sprintf("audio track %d volume %g is out of range [0, 2]", i, track.Volume), nil)
		}
	}
	return nil
}
