package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/ledger"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/store"
)

var (
	resolveType  string
	resolveNotes string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <task-id>",
	Short: "Record how a task ended",
	Long: `Resolve marks a task as completed, dismissed, or deferred and
appends the outcome to the resolution ledger. Completed moves the task's
status to done and dismissed to dismissed; deferred leaves the status
unchanged.

Examples:
  triagekit resolve a1b2c3d4 --type=completed
  triagekit resolve a1b2c3d4 --type=dismissed --notes="not actually required"`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveType, "type", "", "Resolution type (completed, dismissed, deferred)")
	resolveCmd.Flags().StringVar(&resolveNotes, "notes", "", "Optional free-text note")
	resolveCmd.MarkFlagRequired("type")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	taskID := args[0]

	resolutionType := model.ResolutionType(resolveType)
	switch resolutionType {
	case model.ResolutionCompleted, model.ResolutionDismissed, model.ResolutionDeferred:
	default:
		return fmt.Errorf("invalid --type %q (use completed, dismissed, or deferred)", resolveType)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	task, err := db.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}

	ageDays := int(time.Since(task.CreatedAt).Hours() / 24)

	led := ledger.New(db)
	if err := led.RecordResolution(ctx, taskID, resolutionType, resolveNotes, ageDays); err != nil {
		return fmt.Errorf("failed to record resolution: %w", err)
	}

	newStatus := model.TaskStatusDone
	if resolutionType == model.ResolutionDismissed {
		newStatus = model.TaskStatusDismissed
	}
	if resolutionType != model.ResolutionDeferred {
		if err := db.UpdateTaskStatus(ctx, taskID, newStatus); err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}
	}

	fmt.Printf("Task %s resolved as %s\n", taskID, resolutionType)
	return nil
}
