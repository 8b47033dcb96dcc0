package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/clipctl/client"
)

var statusCmd = &cobra.Command{
	Use:   "status [composition-id]",
	Short: "Check render status",
	Long: `Check the status of a composition or a queued job.

Examples:
  clipctl status promo-video          # Check a composition
  clipctl status --job 01J8ZK3V9W     # Resolve a job id`,
	RunE: runStatus,
}

var statusJob string

func init() {
	statusCmd.Flags().StringVar(&statusJob, "job", "", "Job ID to resolve")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := GetContext()

	var (
		comp *client.Composition
		err  error
	)
	switch {
	case statusJob != "":
		comp, err = apiClient.GetJob(ctx, statusJob)
	case len(args) > 0:
		comp, err = apiClient.GetComposition(ctx, args[0])
	default:
		return fmt.Errorf("specify a composition ID or use --job")
	}
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if jsonOutput {
		return printer.JSON(comp)
	}

	printer.Section("Composition")
	printer.KeyValue("ID", comp.ID)
	printer.KeyValue("Status", comp.Status)
	printer.KeyValue("Created", formatTime(comp.CreatedAt))

	if comp.CompletedAt != nil {
		printer.KeyValue("Completed", formatTime(*comp.CompletedAt))
		printer.KeyValue("Duration", fmt.Sprintf("%.1fs", comp.DurationSec))
	}
	if comp.OutputURL != "" {
		printer.KeyValue("Output", comp.OutputURL)
	}
	if comp.Error != "" {
		printer.KeyValue("Error", comp.Error)
	}

	if comp.Progress != nil && comp.Progress.Stage != "" {
		printer.Section("Last Progress")
		printer.KeyValue("Stage", comp.Progress.Stage)
		printer.KeyValue("Percent", fmt.Sprintf("%.0f%%", comp.Progress.Percent))
		if comp.Progress.ETASeconds > 0 {
			printer.KeyValue("ETA", fmt.Sprintf("%.0fs", comp.Progress.ETASeconds))
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
