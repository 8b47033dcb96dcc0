package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/clipctl/client"
	"github.com/clipforge/clipforge/internal/clipctl/output"
)

var watchCmd = &cobra.Command{
	Use:   "watch <composition-id>",
	Short: "Stream live render progress",
	Long: `Subscribe to the progress stream for a composition and follow it
until the render reaches a terminal state.

Examples:
  clipctl watch promo-video
  clipctl watch promo-video --json    # One JSON line per event`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	return watchComposition(GetContext(), args[0])
}

func watchComposition(ctx context.Context, compositionID string) error {
	if jsonOutput {
		return apiClient.Watch(ctx, compositionID, func(msg *client.ProgressMessage) {
			_ = printer.JSON(msg)
		})
	}

	bar := output.NewRenderProgress("waiting", quietMode)
	defer bar.Finish()

	var final *client.ProgressMessage
	err := apiClient.Watch(ctx, compositionID, func(msg *client.ProgressMessage) {
		switch msg.Type {
		case "progress":
			desc := msg.Stage
			if msg.ETASeconds > 0 {
				desc = fmt.Sprintf("%s (eta %.0fs)", msg.Stage, msg.ETASeconds)
			}
			bar.Set(msg.Percent, desc)
		case "status", "error":
			final = msg
		}
	})
	bar.Finish()
	if err != nil {
		return err
	}

	if final == nil {
		return nil
	}

	switch {
	case final.Type == "error" || final.Status == "failed" || final.Status == "timeout":
		msg := final.Error
		if final.Code != "" {
			msg = final.Code + ": " + msg
		}
		printer.Error("Render failed: %s", msg)
		return fmt.Errorf("render failed")
	case final.Status == "completed":
		printer.Success("Render completed in %s", bar.Duration().Round(time.Second))
		if final.OutputURL != "" {
			printer.KeyValue("Output", final.OutputURL)
		}
	case final.Status == "cancelled":
		printer.Warn("Render cancelled")
	}

	return nil
}
