package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/ledger"
	"github.com/triagekit/emailtriage/internal/output"
	"github.com/triagekit/emailtriage/internal/store"
)

var statsWindowDays int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rolling classification accuracy",
	Long: `Display the Accuracy Ledger's rolling per-category precision,
recall, and F1 over a window of recent predictions.

Examples:
  triagekit stats                # use the configured metrics.window_days
  triagekit stats --window=30    # override the window to 30 days`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsWindowDays, "window", 0, "Metrics window in days (default: config metrics.window_days)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	windowDays := cfg.Metrics.WindowDays
	if statsWindowDays > 0 {
		windowDays = statsWindowDays
	}

	led := ledger.New(db)
	metrics, err := led.RunningMetrics(ctx, windowDays)
	if err != nil {
		return fmt.Errorf("failed to compute metrics: %w", err)
	}

	return output.Output(outputFmt, metrics)
}
