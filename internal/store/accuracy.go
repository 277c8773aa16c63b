package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/triagekit/emailtriage/internal/model"
)

// AppendEvent implements ledger.EventStore. Events are append-only
// (spec invariant I3); there is no update path.
func (db *DB) AppendEvent(ctx context.Context, event model.AccuracyEvent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accuracy_events (
			id, message_id, predicted_category, actual_category, confidence, occurred_at, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), event.MessageID, event.PredictedCategory, event.ActualCategory,
		event.Confidence, event.OccurredAt, event.SessionID)
	return err
}

// Events returns every accuracy event at or after since, in no
// particular order; the Ledger reduces to "latest per message_id".
func (db *DB) Events(ctx context.Context, since time.Time) ([]model.AccuracyEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT message_id, predicted_category, actual_category, confidence, occurred_at, session_id
		FROM accuracy_events WHERE occurred_at >= ?
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.AccuracyEvent
	for rows.Next() {
		var e model.AccuracyEvent
		if err := rows.Scan(&e.MessageID, &e.PredictedCategory, &e.ActualCategory, &e.Confidence, &e.OccurredAt, &e.SessionID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestPrediction returns the most recent uncorrected prediction
// (predicted_category == actual_category) for messageID, used by
// RecordCorrection to carry the original prediction forward.
func (db *DB) LatestPrediction(ctx context.Context, messageID string) (model.Category, float64, bool, error) {
	var category model.Category
	var confidence float64
	err := db.QueryRowContext(ctx, `
		SELECT predicted_category, confidence FROM accuracy_events
		WHERE message_id = ? AND predicted_category = actual_category
		ORDER BY occurred_at DESC LIMIT 1
	`, messageID).Scan(&category, &confidence)
	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	return category, confidence, true, nil
}

// AppendResolution implements ledger.EventStore (spec invariant I5:
// resolutions never mutate, only append).
func (db *DB) AppendResolution(ctx context.Context, r model.Resolution) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO task_resolutions (
			id, task_id, resolution_type, resolution_notes, resolved_at, task_age_days
		) VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), r.TaskID, r.ResolutionType, r.ResolutionNotes, r.ResolvedAt, r.TaskAgeDays)
	return err
}

// Resolutions returns every resolution recorded at or after since.
func (db *DB) Resolutions(ctx context.Context, since time.Time) ([]model.Resolution, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT task_id, resolution_type, resolution_notes, resolved_at, task_age_days
		FROM task_resolutions WHERE resolved_at >= ?
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resolutions []model.Resolution
	for rows.Next() {
		var r model.Resolution
		if err := rows.Scan(&r.TaskID, &r.ResolutionType, &r.ResolutionNotes, &r.ResolvedAt, &r.TaskAgeDays); err != nil {
			return nil, err
		}
		resolutions = append(resolutions, r)
	}
	return resolutions, rows.Err()
}
