package ledger

import (
	"context"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

// memStore is a minimal in-memory EventStore for tests.
type memStore struct {
	events      []model.AccuracyEvent
	resolutions []model.Resolution
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) AppendEvent(ctx context.Context, event model.AccuracyEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) Events(ctx context.Context, since time.Time) ([]model.AccuracyEvent, error) {
	var out []model.AccuracyEvent
	for _, e := range m.events {
		if !e.OccurredAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) LatestPrediction(ctx context.Context, messageID string) (model.Category, float64, bool, error) {
	var latest *model.AccuracyEvent
	for i := range m.events {
		e := &m.events[i]
		if e.MessageID != messageID {
			continue
		}
		if e.PredictedCategory != e.ActualCategory {
			continue
		}
		if latest == nil || e.OccurredAt.After(latest.OccurredAt) {
			latest = e
		}
	}
	if latest == nil {
		return "", 0, false, nil
	}
	return latest.PredictedCategory, latest.Confidence, true, nil
}

func (m *memStore) AppendResolution(ctx context.Context, r model.Resolution) error {
	m.resolutions = append(m.resolutions, r)
	return nil
}

func (m *memStore) Resolutions(ctx context.Context, since time.Time) ([]model.Resolution, error) {
	var out []model.Resolution
	for _, r := range m.resolutions {
		if !r.ResolvedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}
