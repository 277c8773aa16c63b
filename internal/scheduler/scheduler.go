// Package scheduler implements the Pipeline Scheduler (spec §4.F):
// page-based orchestration of classification and extraction across
// conversations, with a bounded worker pool across pages and
// cancellation checkpoints between LLM calls only.
//
// Phase sequencing and progress reporting are grounded on the
// teacher's Tracker.SyncWithOptions plus its ProgressPhase/Progress/
// ProgressCallback triplet (internal/tracker/progress.go); bounded
// concurrency across pages is grounded on storbeck-augustus's use of
// golang.org/x/sync/semaphore.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/triagekit/emailtriage/internal/model"
)

// DefaultPageSize is spec §4.F's default: 10 conversations per page.
const DefaultPageSize = 10

// Stage names the state machine position a page is in (spec §4.F):
//   Fetched -> Grouped -> Classifying -> Classified -> Extracting ->
//   Extracted -> Persisted -> Done
type Stage string

const (
	StageFetched     Stage = "fetched"
	StageGrouped     Stage = "grouped"
	StageClassifying Stage = "classifying"
	StageClassified  Stage = "classified"
	StageExtracting  Stage = "extracting"
	StageExtracted   Stage = "extracted"
	StagePersisted   Stage = "persisted"
	StageDone        Stage = "done"
)

// ProgressEvent is what the scheduler yields per unit of work; the
// external UI layer decides how to render it (spec §4.F).
type ProgressEvent struct {
	PageIndex int
	Current   int
	Total     int
	Stage     Stage
	ETAHint   time.Duration
}

type ProgressCallback func(ProgressEvent)

// ClassifyFunc invokes the Classification Engine for one representative
// message.
type ClassifyFunc func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error)

// ExtractFunc invokes the Artifact Extractor for one classified message.
type ExtractFunc func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error)

// PersistFunc writes one conversation's classification and tasks.
// Implementations must be insert-or-ignore keyed by (message_id,
// model_version) for classifications (spec idempotence requirement).
type PersistFunc func(ctx context.Context, cls model.Classification, tasks []model.Task) error

// PreFilterFunc lets the caller short-circuit Classify/Extract for a
// representative message it already has strong evidence is spam
// (SPEC_FULL §12's ledger.SuggestedFilters-driven pre-filter). When it
// returns ok=true, the returned Classification is used as-is — no
// Classify call, no LLM spend — and extraction is skipped exactly as
// spam_to_delete already does (§4.E dispatch table: 0 tasks). A nil
// PreFilterFunc disables pre-filtering entirely.
type PreFilterFunc func(ctx context.Context, msg model.Message) (model.Classification, bool)

// PageResult is the outcome of processing one page.
type PageResult struct {
	PageIndex       int
	Skipped         bool
	Classifications []model.Classification
	Tasks           []model.Task
	Err             error
}

// Scheduler is the Pipeline Scheduler.
type Scheduler struct {
	Classify ClassifyFunc
	Extract  ExtractFunc
	Persist  PersistFunc
	PageSize int

	// IsPageComplete memoizes already-classified pages so re-running is
	// cheap (spec §4.F "Already-classified pages are skipped"). Nil
	// disables the skip check.
	IsPageComplete func(pageIndex int) bool

	// PreFilter short-circuits obvious spam before it reaches the
	// Classification Engine. Nil disables pre-filtering.
	PreFilter PreFilterFunc

	sem *semaphore.Weighted
}

// New builds a Scheduler. parallelPages is clamped to [1,4] per spec §6
// pipeline.parallel_pages.
func New(classify ClassifyFunc, extract ExtractFunc, persist PersistFunc, pageSize int, parallelPages int64) *Scheduler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if parallelPages < 1 {
		parallelPages = 1
	}
	if parallelPages > 4 {
		parallelPages = 4
	}
	return &Scheduler{
		Classify: classify,
		Extract:  extract,
		Persist:  persist,
		PageSize: pageSize,
		sem:      semaphore.NewWeighted(parallelPages),
	}
}

// Paginate splits conversations into pages of PageSize.
func (s *Scheduler) Paginate(conversations []model.Conversation) [][]model.Conversation {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	var pages [][]model.Conversation
	for i := 0; i < len(conversations); i += size {
		end := i + size
		if end > len(conversations) {
			end = len(conversations)
		}
		pages = append(pages, conversations[i:end])
	}
	return pages
}

// RunAll paginates conversations and runs pages behind the bounded
// worker pool, returning one PageResult per page in page order.
func (s *Scheduler) RunAll(ctx context.Context, conversations []model.Conversation, settings model.UserSettings, progress ProgressCallback) ([]PageResult, error) {
	pages := s.Paginate(conversations)
	results := make([]PageResult, len(pages))

	var wg sync.WaitGroup
	for idx, page := range pages {
		if s.IsPageComplete != nil && s.IsPageComplete(idx) {
			results[idx] = PageResult{PageIndex: idx, Skipped: true}
			continue
		}

		if err := s.sem.Acquire(ctx, 1); err != nil {
			results[idx] = PageResult{PageIndex: idx, Err: err}
			continue
		}

		wg.Add(1)
		go func(pageIndex int, convs []model.Conversation) {
			defer wg.Done()
			defer s.sem.Release(1)
			results[pageIndex] = s.RunPage(ctx, convs, pageIndex, settings, progress)
		}(idx, page)
	}
	wg.Wait()

	return results, nil
}

// RunPage implements run_page(messages, page_index, page_size) →
// PageResult (spec §4.F). Conversations are processed sequentially
// within a page; cancellation is checked between conversations and
// between the classify/extract steps of one conversation, never
// mid-LLM-call.
func (s *Scheduler) RunPage(ctx context.Context, conversations []model.Conversation, pageIndex int, settings model.UserSettings, progress ProgressCallback) PageResult {
	result := PageResult{PageIndex: pageIndex}
	total := len(conversations)
	start := time.Now()

	emit(progress, pageIndex, 0, total, StageGrouped, 0)

	for i, conv := range conversations {
		if ctxDone(ctx) {
			result.Err = ctx.Err()
			return result
		}

		rep := conv.Representative()

		var cls model.Classification
		var clsErr error
		preFiltered := false
		if s.PreFilter != nil {
			if pf, ok := s.PreFilter(ctx, rep); ok {
				cls = pf
				preFiltered = true
			}
		}

		emit(progress, pageIndex, i, total, StageClassifying, eta(start, i, total))
		if !preFiltered {
			cls, clsErr = s.Classify(ctx, rep, settings)
		}
		emit(progress, pageIndex, i, total, StageClassified, eta(start, i, total))

		if clsErr != nil && cls.Status != model.StatusContentFiltered {
			// Classification failed outright (not a content-filter
			// placeholder): the message is not considered classified
			// and may be retried on a later page run. No extraction.
			continue
		}
		result.Classifications = append(result.Classifications, cls)

		if ctxDone(ctx) {
			result.Err = ctx.Err()
			return result
		}

		var convTasks []model.Task
		var extErr error
		emit(progress, pageIndex, i, total, StageExtracting, eta(start, i, total))
		if preFiltered {
			// Pre-filtered conversations are treated as spam_to_delete
			// (§4.E dispatch table: 0 tasks) without spending an
			// extraction LLM call either.
		} else {
			var tasks []model.Task
			tasks, extErr = s.Extract(ctx, rep, cls, settings)
			if extErr == nil {
				convTasks = tasks
				result.Tasks = append(result.Tasks, tasks...)
			}
		}
		emit(progress, pageIndex, i, total, StageExtracted, eta(start, i, total))

		if s.Persist != nil {
			if err := s.Persist(ctx, cls, convTasks); err != nil && result.Err == nil {
				result.Err = err
			}
		}
		emit(progress, pageIndex, i+1, total, StagePersisted, eta(start, i+1, total))

		if extErr != nil {
			// Extract only returns a non-nil error for a programmer
			// defect (prompt.TemplateError, dispatch-table gap), never
			// for a recoverable AI failure (those become fallback
			// tasks inside Extract itself). Per spec §7 this
			// propagates and terminates the page, preserving the work
			// already persisted above and in prior iterations.
			result.Err = extErr
			return result
		}
	}

	emit(progress, pageIndex, total, total, StageDone, 0)
	return result
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func emit(progress ProgressCallback, pageIndex, current, total int, stage Stage, etaHint time.Duration) {
	if progress == nil {
		return
	}
	progress(ProgressEvent{PageIndex: pageIndex, Current: current, Total: total, Stage: stage, ETAHint: etaHint})
}

// eta estimates remaining time from the average per-item duration
// observed so far, matching the teacher's terminal ETA formatting
// input shape (a duration consumers format for display).
func eta(start time.Time, done, total int) time.Duration {
	if done <= 0 || total <= 0 {
		return 0
	}
	elapsed := time.Since(start)
	perItem := elapsed / time.Duration(done)
	remaining := total - done
	if remaining <= 0 {
		return 0
	}
	return perItem * time.Duration(remaining)
}
