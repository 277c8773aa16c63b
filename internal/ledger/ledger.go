// Package ledger implements the Accuracy & Resolution Ledger (spec
// §4.G): append-only prediction/correction/resolution events, rolling
// precision/recall/F1 per category, and resolution history.
package ledger

import (
	"context"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

// EventStore is the append-only persistence boundary the Ledger writes
// through and reads back from. Its SQLite binding lives in
// internal/store, grounded on the teacher's raw-SQL aggregate style
// (internal/database.GetStats).
type EventStore interface {
	AppendEvent(ctx context.Context, event model.AccuracyEvent) error
	Events(ctx context.Context, since time.Time) ([]model.AccuracyEvent, error)
	LatestPrediction(ctx context.Context, messageID string) (category model.Category, confidence float64, found bool, err error)

	AppendResolution(ctx context.Context, r model.Resolution) error
	Resolutions(ctx context.Context, since time.Time) ([]model.Resolution, error)
}

// Ledger is the Accuracy & Resolution Ledger.
type Ledger struct {
	store EventStore
	now   func() time.Time
}

func New(store EventStore) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// RecordPrediction implements record_prediction(message_id,
// predicted_category, confidence) → void. A bare prediction has
// ActualCategory == PredictedCategory until a correction arrives.
func (l *Ledger) RecordPrediction(ctx context.Context, messageID string, predicted model.Category, confidence float64, sessionID string) error {
	return l.store.AppendEvent(ctx, model.AccuracyEvent{
		MessageID:         messageID,
		PredictedCategory: predicted,
		ActualCategory:    predicted,
		Confidence:        confidence,
		OccurredAt:        l.now(),
		SessionID:         sessionID,
	})
}

// RecordCorrection implements record_correction(message_id,
// actual_category, corrected_at) → void (appends, never updates). The
// correction carries forward the original predicted_category so a
// single downstream scan can tell TP from FP/FN without a join.
func (l *Ledger) RecordCorrection(ctx context.Context, messageID string, actual model.Category, correctedAt time.Time) error {
	predicted, _, found, err := l.store.LatestPrediction(ctx, messageID)
	if err != nil {
		return err
	}
	if !found {
		predicted = actual
	}
	return l.store.AppendEvent(ctx, model.AccuracyEvent{
		MessageID:         messageID,
		PredictedCategory: predicted,
		ActualCategory:    actual,
		OccurredAt:        correctedAt,
	})
}

// RecordResolution implements record_resolution(task_id, type, notes) →
// void.
func (l *Ledger) RecordResolution(ctx context.Context, taskID string, resolutionType model.ResolutionType, notes string, taskAgeDays int) error {
	return l.store.AppendResolution(ctx, model.Resolution{
		TaskID:          taskID,
		ResolutionType:  resolutionType,
		ResolutionNotes: notes,
		ResolvedAt:      l.now(),
		TaskAgeDays:     taskAgeDays,
	})
}

// RunningMetrics implements running_metrics(window_days) → {per_category,
// overall_accuracy} (spec §4.G). For each message, only its latest event
// in the window is authoritative: Predicted==Actual means the
// prediction stands (TP); Predicted!=Actual means it was corrected
// (FP for the prediction, FN for the correction).
func (l *Ledger) RunningMetrics(ctx context.Context, windowDays int) (model.RunningMetrics, error) {
	since := l.now().AddDate(0, 0, -windowDays)
	events, err := l.store.Events(ctx, since)
	if err != nil {
		return model.RunningMetrics{}, err
	}

	latest := make(map[string]model.AccuracyEvent, len(events))
	for _, e := range events {
		prev, ok := latest[e.MessageID]
		if !ok || e.OccurredAt.After(prev.OccurredAt) {
			latest[e.MessageID] = e
		}
	}

	counts := make(map[model.Category]*model.CategoryMetrics)
	ensure := func(c model.Category) *model.CategoryMetrics {
		if m, ok := counts[c]; ok {
			return m
		}
		m := &model.CategoryMetrics{}
		counts[c] = m
		return m
	}

	totalTP := 0
	total := len(latest)
	for _, e := range latest {
		if e.ActualCategory == e.PredictedCategory {
			ensure(e.PredictedCategory).TP++
			totalTP++
		} else {
			ensure(e.PredictedCategory).FP++
			ensure(e.ActualCategory).FN++
		}
	}

	perCategory := make(map[model.Category]model.CategoryMetrics, len(counts))
	for cat, m := range counts {
		m.Precision = ratio(m.TP, m.TP+m.FP)
		m.Recall = ratio(m.TP, m.TP+m.FN)
		m.F1 = harmonicMean(m.Precision, m.Recall)
		perCategory[cat] = *m
	}

	overall := 0.0
	if total > 0 {
		overall = float64(totalTP) / float64(total)
	}

	return model.RunningMetrics{PerCategory: perCategory, OverallAccuracy: overall}, nil
}

// ResolutionHistory implements resolution_history(window_days, filter?)
// → sequence<Resolution>. filter, when non-nil, is applied to each
// candidate resolution; nil means no filtering.
func (l *Ledger) ResolutionHistory(ctx context.Context, windowDays int, filter func(model.Resolution) bool) ([]model.Resolution, error) {
	since := l.now().AddDate(0, 0, -windowDays)
	all, err := l.store.Resolutions(ctx, since)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return all, nil
	}
	out := make([]model.Resolution, 0, len(all))
	for _, r := range all {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

func harmonicMean(a, b float64) float64 {
	if a+b == 0 {
		return 0.0
	}
	return 2 * a * b / (a + b)
}
