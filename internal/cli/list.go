package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/output"
	"github.com/triagekit/emailtriage/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List extracted tasks",
	Long: `List task artifacts extracted from classified email.

Examples:
  triagekit list                           # List all tasks
  triagekit list --status=todo             # List open tasks
  triagekit list --category=team_action    # List tasks for a category
  triagekit list -o json                   # Output as JSON`,
	RunE: runList,
}

var (
	listStatus   string
	listCategory string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (todo, in_progress, done, dismissed)")
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
}

func runList(cmd *cobra.Command, args []string) error {
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

	var filter store.TaskFilter
	if listStatus != "" {
		status := model.TaskStatus(listStatus)
		filter.Status = &status
	}
	if listCategory != "" {
		category := model.Category(listCategory)
		filter.Category = &category
	}

	tasks, err := db.ListTasks(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	return output.Output(outputFmt, tasks)
}
