package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/triagekit/emailtriage/internal/classify"
	"github.com/triagekit/emailtriage/internal/config"
	"github.com/triagekit/emailtriage/internal/email"
	"github.com/triagekit/emailtriage/internal/email/gmail"
	"github.com/triagekit/emailtriage/internal/extract"
	"github.com/triagekit/emailtriage/internal/grouper"
	"github.com/triagekit/emailtriage/internal/ledger"
	"github.com/triagekit/emailtriage/internal/llm"
	"github.com/triagekit/emailtriage/internal/llmclient"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/prompt"
	"github.com/triagekit/emailtriage/internal/scheduler"
	"github.com/triagekit/emailtriage/internal/store"
)

var runDays int

// spamPreFilterMinFalsePositiveRate gates ledger.SuggestedFilters:
// only sender domains the ledger has seen misclassified at least this
// often are pre-filtered as spam_to_delete before spending an LLM call
// (SPEC_FULL §12). Conservative on purpose — a false pre-filter costs
// a user a real email, a missed one only costs an extra LLM call.
const spamPreFilterMinFalsePositiveRate = 0.75

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, classify, and extract tasks from new email",
	Long: `Run fetches messages from Gmail, groups them into conversations,
classifies each conversation's representative message, extracts task
artifacts for the predicted category, and records every prediction in
the accuracy ledger.

On first run, it opens a browser for Google authentication.

Examples:
  triagekit run               # process the last 30 days
  triagekit run --days=7      # process only the last 7 days`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runDays, "days", 0, "Number of days to fetch (default: 30)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	provider := gmail.New(cfg.Gmail.CredentialsPath, cfg.Gmail.TokenPath)

	fmt.Println("Authenticating with Gmail...")
	if err := provider.Authenticate(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	userEmail, err := provider.GetUserEmail(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user email: %w", err)
	}
	fmt.Printf("Authenticated as: %s\n", userEmail)

	settings, err := db.GetUserSettings(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("failed to load user settings: %w", err)
	}

	opts := email.DefaultFetchOptions()
	opts.MaxResults = cfg.Gmail.MaxResults
	if runDays > 0 {
		since := time.Now().AddDate(0, 0, -runDays)
		opts.After = &since
	}

	fmt.Println("Fetching messages...")
	messages, err := provider.FetchMessages(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}
	fmt.Printf("Fetched %d messages\n", len(messages))

	conversations := grouper.Group(messages)
	fmt.Printf("Grouped into %d conversations\n", len(conversations))

	for _, conv := range conversations {
		if err := db.SaveConversation(ctx, conv); err != nil {
			return fmt.Errorf("failed to cache conversation: %w", err)
		}
	}

	client := llmclient.New(cfg.LLM.Endpoint, cfg.LLM.Model)
	gateway := llm.NewGateway(client, llm.Config{
		MinDelayClassification: cfg.LLM.MinDelayClassification(),
		MinDelayExtraction:     cfg.LLM.MinDelayExtraction(),
		MaxRetries:             cfg.LLM.MaxRetries,
		MaxConcurrent:          int64(cfg.Pipeline.ParallelPages),
	})

	registry := prompt.New()
	engine := classify.NewEngine(gateway, registry, db, cfg.Extractor.Version, cfg.LLM.Timeout())
	extractor := extract.NewExtractor(gateway, registry, cfg.Extractor.Version, cfg.LLM.Timeout())
	led := ledger.New(db)
	sessionID := uuid.New().String()

	classifyFn := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return engine.Classify(ctx, msg, settings)
	}
	extractFn := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		return extractor.Extract(ctx, msg, cls, settings)
	}
	persistFn := func(ctx context.Context, cls model.Classification, tasks []model.Task) error {
		if err := db.SaveClassification(ctx, cls); err != nil {
			return err
		}
		for _, t := range tasks {
			if err := db.SaveTask(ctx, t); err != nil {
				return err
			}
		}
		return led.RecordPrediction(ctx, cls.MessageID, cls.Category, cls.Confidence, sessionID)
	}

	sched := scheduler.New(classifyFn, extractFn, persistFn, cfg.Pipeline.PageSize, int64(cfg.Pipeline.ParallelPages))

	if filters, err := led.SuggestedFilters(ctx, cfg.Metrics.WindowDays, db.SenderDomain, spamPreFilterMinFalsePositiveRate); err != nil {
		fmt.Printf("warning: could not load suggested filters: %v\n", err)
	} else if len(filters) > 0 {
		spamDomains := make(map[string]bool, len(filters))
		for _, f := range filters {
			spamDomains[f.Domain] = true
		}
		fmt.Printf("Pre-filtering %d sender domain(s) with a high false-positive rate\n", len(spamDomains))
		sched.PreFilter = func(ctx context.Context, msg model.Message) (model.Classification, bool) {
			if !spamDomains[msg.SenderDomain()] {
				return model.Classification{}, false
			}
			return model.Classification{
				MessageID:      msg.ID,
				Category:       model.CategorySpamToDelete,
				Confidence:     1.0,
				Reasoning:      "sender domain has a history of high false-positive classifications; pre-filtered before spending an LLM call",
				OneLineSummary: "[pre-filtered]",
				ModelVersion:   cfg.Extractor.Version,
				PredictedAt:    time.Now(),
				Status:         model.StatusClassified,
			}, true
		}
	}

	pages := sched.Paginate(conversations)
	sched.IsPageComplete = func(pageIndex int) bool {
		for _, conv := range pages[pageIndex] {
			cls, err := db.GetClassification(ctx, conv.Representative().ID, cfg.Extractor.Version)
			if err != nil || cls == nil {
				return false
			}
		}
		return true
	}

	terminal := NewTerminal()
	var lastStage scheduler.Stage
	progress := func(ev scheduler.ProgressEvent) {
		terminal.ClearLine()
		spinner := terminal.Spinner()
		msg := fmt.Sprintf("%s page %d: %s %d/%d", spinner, ev.PageIndex+1, ev.Stage, ev.Current, ev.Total)
		if ev.ETAHint > 0 {
			msg += fmt.Sprintf(" (ETA: %s)", FormatETA(ev.ETAHint))
		}
		if terminal.IsTerminal {
			fmt.Print(msg)
			terminal.Flush()
		} else if ev.Stage != lastStage {
			fmt.Println(msg)
		}
		lastStage = ev.Stage
	}

	results, err := sched.RunAll(ctx, conversations, settings, progress)
	terminal.ClearLine()
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	var classified, tasksCreated, skipped int
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		classified += len(r.Classifications)
		tasksCreated += len(r.Tasks)
	}

	fmt.Println()
	fmt.Println("Run complete:")
	fmt.Printf("  Conversations:  %d\n", len(conversations))
	fmt.Printf("  Pages skipped:  %d (already classified)\n", skipped)
	fmt.Printf("  Classified:     %d\n", classified)
	fmt.Printf("  Tasks created:  %d\n", tasksCreated)

	return nil
}
