package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/triagekit/emailtriage/internal/model"
)

// SaveAccuracySnapshot records a point-in-time rollup of
// Ledger.RunningMetrics, the periodic history behind spec §6's
// "accuracy_snapshots" table. No CLI command writes snapshots;
// triagekit stats computes its metrics from the event log.
func (db *DB) SaveAccuracySnapshot(ctx context.Context, windowDays int, category model.Category, m model.CategoryMetrics, takenAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accuracy_snapshots (
			id, window_days, category, precision, recall, f1, tp, fp, fn, taken_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), windowDays, category, m.Precision, m.Recall, m.F1, m.TP, m.FP, m.FN, takenAt)
	return err
}

// SenderDomain resolves the message's cached sender into a bare
// domain, the ledger.SenderResolver implementation wired to
// internal/ledger.SuggestedFilters.
func (db *DB) SenderDomain(ctx context.Context, messageID string) (string, error) {
	msg, err := db.GetMessage(ctx, messageID)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.SenderDomain(), nil
}
