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

var feedbackActual string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id>",
	Short: "Correct a classification",
	Long: `Feedback records the actual category for a message the
Classification Engine got wrong. The correction is appended to the
accuracy ledger (never overwriting the original prediction) and feeds
the rolling precision/recall/F1 numbers 'triagekit stats' reports.

Examples:
  triagekit feedback 18c2f1a9b3e4d5f6 --actual=newsletter`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.Flags().StringVar(&feedbackActual, "actual", "", "The correct category for this message")
	feedbackCmd.MarkFlagRequired("actual")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	messageID := args[0]

	actual := model.Category(feedbackActual)
	if !model.IsValidCategory(actual) {
		return fmt.Errorf("invalid --actual %q", feedbackActual)
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

	led := ledger.New(db)
	if err := led.RecordCorrection(ctx, messageID, actual, time.Now()); err != nil {
		return fmt.Errorf("failed to record correction: %w", err)
	}

	fmt.Printf("Recorded correction for %s: actual category is %s\n", messageID, actual)
	fmt.Println("Run 'triagekit stats' to see the updated accuracy.")
	return nil
}
