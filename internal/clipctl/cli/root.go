package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clipforge/clipforge/internal/clipctl/client"
	"github.com/clipforge/clipforge/internal/clipctl/output"
)

var (
	baseURL    string
	jsonOutput bool
	quietMode  bool
	apiClient  *client.Client
	printer    *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "clipctl",
	Short: "clipforge CLI - submit and watch video composition renders",
	Long: `clipctl is the command-line interface for clipforge.

Submit declarative compositions, check render status, and stream live
progress from the terminal.

Get started:
  clipctl render -f composition.yaml   # Submit a render
  clipctl status <composition-id>      # Check render status
  clipctl watch <composition-id>       # Stream live progress`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)

		apiClient = client.New(baseURL)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultURL := os.Getenv("CLIPFORGE_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", defaultURL, "API base URL (env: CLIPFORGE_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(inspectCmd)
}

// GetContext returns a context cancelled on SIGINT or SIGTERM.
func GetContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}
