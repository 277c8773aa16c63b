package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/ledger"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/output"
	"github.com/triagekit/emailtriage/internal/store"
)

// showResolutionWindowDays bounds the resolution lookup; a task's
// resolution always falls within this window of "now", far wider than
// any realistic task age.
const showResolutionWindowDays = 3650

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show task details",
	Long: `Show detailed information about a single extracted task,
including its resolution if one has been recorded.

Examples:
  triagekit show a1b2c3d4`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	task, err := db.GetTask(ctx, id)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found: %s", id)
	}

	led := ledger.New(db)
	resolutions, err := led.ResolutionHistory(ctx, showResolutionWindowDays, func(r model.Resolution) bool {
		return r.TaskID == id
	})
	if err != nil {
		return fmt.Errorf("failed to load resolution: %w", err)
	}
	if len(resolutions) > 0 {
		task.Resolution = &resolutions[0]
	}

	return output.Output(outputFmt, task)
}
