package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/filtergraph"
	"github.com/clipforge/clipforge/internal/timeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Compile a composition locally and print its filter graph",
	Long: `Assemble the timeline from a composition file and print the compiled
filter graph without contacting the server. Useful for checking what a
composition will ask the encoder to do before submitting it.

Examples:
  clipctl inspect -f composition.yaml
  clipctl inspect -f composition.yaml --fragments`,
	RunE: runInspect,
}

var (
	inspectFile      string
	inspectFragments bool
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "", "Composition file (YAML)")
	inspectCmd.Flags().BoolVar(&inspectFragments, "fragments", false, "Print per-transition fragments instead of the full graph")
	_ = inspectCmd.MarkFlagRequired("file")
}

func runInspect(cmd *cobra.Command, args []string) error {
	doc, err := loadComposition(inspectFile)
	if err != nil {
		return err
	}

	specs := make([]timeline.ClipSpec, len(doc.Clips))
	for i, c := range doc.Clips {
		specs[i] = timeline.ClipSpec{
			ClipID:        c.ClipID,
			SourcePath:    c.SourcePath,
			TimelineStart: c.TimelineStart,
			TimelineEnd:   c.TimelineEnd,
			SourceStart:   c.SourceStart,
			SourceEnd:     c.SourceEnd,
		}
	}

	tl, err := timeline.Assemble(specs, timeline.Options{Sort: true, AllowGaps: true})
	if err != nil {
		return fmt.Errorf("timeline rejected: %w", err)
	}

	transitions := make([]filtergraph.TransitionConfig, len(doc.Transitions))
	for i, t := range doc.Transitions {
		transitions[i] = filtergraph.TransitionConfig{
			Type:       filtergraph.TransitionType(t.Type),
			Style:      t.Style,
			Duration:   t.Duration,
			FromClipID: t.FromClipID,
			ToClipID:   t.ToClipID,
		}
	}

	if jsonOutput {
		fragments, videoOut, audioOut, err := filtergraph.CompileTimeline(tl, transitions)
		if err != nil {
			return fmt.Errorf("graph compilation failed: %w", err)
		}
		return printer.JSON(map[string]interface{}{
			"total_duration": tl.TotalDuration,
			"clips":          len(tl.Clips),
			"gaps":           tl.Gaps,
			"filter_graph":   filtergraph.Join(fragments...),
			"video_label":    videoOut,
			"audio_label":    audioOut,
		})
	}

	printer.Section("Timeline")
	printer.KeyValue("Clips", fmt.Sprintf("%d", len(tl.Clips)))
	printer.KeyValue("Duration", fmt.Sprintf("%.2fs", tl.TotalDuration))
	for _, g := range tl.Gaps {
		printer.Warn("gap %.2fs-%.2fs", g.Start, g.End)
	}

	if inspectFragments {
		fragments, err := filtergraph.BuildTransitions(tl, transitions)
		if err != nil {
			return fmt.Errorf("graph compilation failed: %w", err)
		}
		printer.Section("Fragments")
		for _, f := range fragments {
			if f.Text == "" {
				printer.Println("(cut, no filter)")
				continue
			}
			printer.Println(f.Text)
		}
		return nil
	}

	fragments, videoOut, audioOut, err := filtergraph.CompileTimeline(tl, transitions)
	if err != nil {
		return fmt.Errorf("graph compilation failed: %w", err)
	}

	printer.Section("Filter Graph")
	printer.Println(filtergraph.Join(fragments...))
	printer.KeyValue("Video", "["+videoOut+"]")
	printer.KeyValue("Audio", "["+audioOut+"]")
	return nil
}
