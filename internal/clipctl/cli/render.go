package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Submit a composition for rendering",
	Long: `Submit a declarative composition file for rendering.

The composition file is YAML describing clips, transitions, audio
tracks, overlays, and output settings.

Examples:
  clipctl render -f composition.yaml
  clipctl render -f composition.yaml --id promo-video
  clipctl render -f composition.yaml --watch`,
	RunE: runRender,
}

var (
	renderFile  string
	renderID    string
	renderWatch bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "Composition file (YAML)")
	renderCmd.Flags().StringVar(&renderID, "id", "", "Composition ID (overrides the file)")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "Stream progress until complete")
	_ = renderCmd.MarkFlagRequired("file")
}

// compositionDoc is the on-disk composition shape. Both tag sets are
// carried so YAML files and the JSON request body share field names.
type compositionDoc struct {
	CompositionID string     `yaml:"composition_id" json:"composition_id,omitempty"`
	Clips         []clipDoc  `yaml:"clips" json:"clips"`
	Transitions   []transDoc `yaml:"transitions" json:"transitions,omitempty"`
	AudioTracks   []audioDoc `yaml:"audio_tracks" json:"audio_tracks,omitempty"`
	Overlays      []textDoc  `yaml:"overlays" json:"overlays,omitempty"`
	Output        *outputDoc `yaml:"output" json:"output,omitempty"`
	Priority      string     `yaml:"priority" json:"priority,omitempty"`
}

type clipDoc struct {
	ClipID        string   `yaml:"clip_id" json:"clip_id"`
	SourcePath    string   `yaml:"source_path" json:"source_path"`
	TimelineStart float64  `yaml:"timeline_start" json:"timeline_start"`
	TimelineEnd   float64  `yaml:"timeline_end" json:"timeline_end"`
	SourceStart   float64  `yaml:"source_start" json:"source_start"`
	SourceEnd     *float64 `yaml:"source_end" json:"source_end,omitempty"`
}

type transDoc struct {
	Type       string  `yaml:"type" json:"type"`
	Style      string  `yaml:"style" json:"style,omitempty"`
	Duration   float64 `yaml:"duration" json:"duration"`
	FromClipID string  `yaml:"from_clip_id" json:"from_clip_id,omitempty"`
	ToClipID   string  `yaml:"to_clip_id" json:"to_clip_id,omitempty"`
}

type audioDoc struct {
	SourceKey string  `yaml:"source_key" json:"source_key"`
	Volume    float64 `yaml:"volume" json:"volume"`
	FadeIn    float64 `yaml:"fade_in" json:"fade_in,omitempty"`
	FadeOut   float64 `yaml:"fade_out" json:"fade_out,omitempty"`
	DelaySec  float64 `yaml:"delay_sec" json:"delay_sec,omitempty"`
	Loop      bool    `yaml:"loop" json:"loop,omitempty"`
}

type textDoc struct {
	Text      string  `yaml:"text" json:"text"`
	FontSize  int     `yaml:"font_size" json:"font_size"`
	FontColor string  `yaml:"font_color" json:"font_color"`
	Position  string  `yaml:"position" json:"position"`
	Start     float64 `yaml:"start" json:"start"`
	End       float64 `yaml:"end" json:"end"`
	Animation string  `yaml:"animation" json:"animation,omitempty"`
	Box       bool    `yaml:"box" json:"box,omitempty"`
	BoxColor  string  `yaml:"box_color" json:"box_color,omitempty"`
}

type outputDoc struct {
	Format     string  `yaml:"format" json:"format"`
	Resolution string  `yaml:"resolution" json:"resolution"`
	FPS        float64 `yaml:"fps" json:"fps"`
	Preset     string  `yaml:"preset" json:"preset"`
}

func loadComposition(path string) (*compositionDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read composition file: %w", err)
	}

	var doc compositionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse composition file: %w", err)
	}
	return &doc, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, err := loadComposition(renderFile)
	if err != nil {
		return err
	}

	compositionID := doc.CompositionID
	if renderID != "" {
		compositionID = renderID
	}
	if compositionID == "" {
		compositionID = uuid.NewString()
		printer.Info("No composition id set, generated %s", compositionID)
	}

	ctx := GetContext()

	accepted, err := apiClient.Render(ctx, compositionID, doc)
	if err != nil {
		return fmt.Errorf("render submission failed: %w", err)
	}

	if jsonOutput && !renderWatch {
		return printer.JSON(accepted)
	}

	printer.Success("Render queued")
	printer.KeyValue("Composition", accepted.CompositionID)
	printer.KeyValue("Job", accepted.JobID)
	printer.KeyValue("Queue", accepted.Queue)

	if renderWatch {
		return watchComposition(ctx, accepted.CompositionID)
	}

	printer.Info("Follow along with: clipctl watch %s", accepted.CompositionID)
	return nil
}
