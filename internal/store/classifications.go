package store

import (
	"context"
	"database/sql"

	"github.com/triagekit/emailtriage/internal/model"
)

// SaveClassification persists a Classification keyed on (message_id,
// model_version). Re-running the Classification Engine on the same
// message with the same model_version is idempotent: INSERT OR IGNORE
// means the first result for a given (message, model) pair wins, per
// spec testable property P5.
func (db *DB) SaveClassification(ctx context.Context, c model.Classification) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO classifications (
			message_id, model_version, category, confidence, reasoning,
			one_line_summary, predicted_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.MessageID, c.ModelVersion, c.Category, c.Confidence, c.Reasoning,
		c.OneLineSummary, c.PredictedAt, c.Status)
	return err
}

// GetClassification looks up the classification for a message under a
// specific model version. Returns nil, nil when absent.
func (db *DB) GetClassification(ctx context.Context, messageID, modelVersion string) (*model.Classification, error) {
	var c model.Classification
	c.MessageID = messageID
	err := db.QueryRowContext(ctx, `
		SELECT model_version, category, confidence, reasoning, one_line_summary, predicted_at, status
		FROM classifications WHERE message_id = ? AND model_version = ?
	`, messageID, modelVersion).Scan(
		&c.ModelVersion, &c.Category, &c.Confidence, &c.Reasoning, &c.OneLineSummary, &c.PredictedAt, &c.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestClassification returns the most recently predicted
// classification for a message regardless of model_version.
func (db *DB) LatestClassification(ctx context.Context, messageID string) (*model.Classification, error) {
	var c model.Classification
	c.MessageID = messageID
	err := db.QueryRowContext(ctx, `
		SELECT model_version, category, confidence, reasoning, one_line_summary, predicted_at, status
		FROM classifications WHERE message_id = ?
		ORDER BY predicted_at DESC LIMIT 1
	`, messageID).Scan(
		&c.ModelVersion, &c.Category, &c.Confidence, &c.Reasoning, &c.OneLineSummary, &c.PredictedAt, &c.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
