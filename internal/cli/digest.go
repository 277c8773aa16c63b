package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/email/gmail"
	"github.com/triagekit/emailtriage/internal/llm"
	"github.com/triagekit/emailtriage/internal/llmclient"
	"github.com/triagekit/emailtriage/internal/prompt"
	"github.com/triagekit/emailtriage/internal/store"
)

var (
	digestWindowDays int
	digestUsername   string
)

// digestCmd is the standalone entry point for the holistic_inbox_analysis
// template (spec.md §9 Open Question iii): a cross-page summarizer that
// reads already-materialized tasks and asks the LLM for a prose digest.
// It never runs as part of `triagekit run` and has no effect on
// classifications, tasks, or the ledger.
var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Produce a holistic summary of recent task activity",
	Long: `Digest reads the tasks materialized by recent "triagekit run" invocations
and asks the LLM for a single holistic summary of the inbox over a
recent window, outside the page-processing critical path.

Examples:
  triagekit digest               # use the configured metrics.window_days
  triagekit digest --window=7    # summarize only the last 7 days`,
	RunE: runDigest,
}

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.Flags().IntVar(&digestWindowDays, "window", 0, "Digest window in days (default: config metrics.window_days)")
	digestCmd.Flags().StringVar(&digestUsername, "username", "", "Settings owner to read (default: re-authenticate with Gmail to discover it)")
}

func runDigest(cmd *cobra.Command, args []string) error {
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
	if digestWindowDays > 0 {
		windowDays = digestWindowDays
	}
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	tasks, err := db.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	var summaries strings.Builder
	count := 0
	for _, t := range tasks {
		if t.CreatedAt.Before(cutoff) {
			continue
		}
		fmt.Fprintf(&summaries, "- [%s] %s: %s\n", t.Category, t.Title, t.Description)
		count++
	}
	if count == 0 {
		fmt.Println("No tasks in the requested window; nothing to summarize.")
		return nil
	}

	username := digestUsername
	if username == "" {
		provider := gmail.New(cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath)
		if err := provider.Authenticate(ctx); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		username, err = provider.GetUserEmail(ctx)
		if err != nil {
			return fmt.Errorf("failed to get user email: %w", err)
		}
	}

	settings, err := db.GetUserSettings(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to load user settings: %w", err)
	}

	registry := prompt.New()
	vars := map[string]string{
		"username":               settings.Username,
		"window_days":            strconv.Itoa(windowDays),
		"conversation_summaries": summaries.String(),
	}
	rendered, schema, err := registry.Get(prompt.HolisticInboxAnalysis, vars)
	if err != nil {
		return err
	}

	client := llmclient.New(cfg.LLM.Endpoint, cfg.LLM.Model)
	gateway := llm.NewGateway(client, llm.Config{
		MinDelayClassification: cfg.LLM.MinDelayClassification(),
		MinDelayExtraction:     cfg.LLM.MinDelayExtraction(),
		MaxRetries:             cfg.LLM.MaxRetries,
		MaxConcurrent:          1,
	})

	result, err := gateway.Complete(ctx, prompt.HolisticInboxAnalysis, llm.CallExtraction, rendered, schema, cfg.LLM.Timeout())
	if err != nil {
		return fmt.Errorf("digest generation failed: %w", err)
	}

	digest, _ := result["digest"].(string)
	if digest == "" {
		digest = fmt.Sprintf("%v", result["digest"])
	}
	fmt.Printf("Inbox digest (last %d days, %d tasks):\n\n%s\n", windowDays, count, digest)
	return nil
}
