package store

import (
	"context"

	"github.com/triagekit/emailtriage/internal/classify"
	"github.com/triagekit/emailtriage/internal/model"
)

// confirmedExamplesLimit bounds how many recent confirmed
// classifications are loaded as few-shot candidates; the Classification
// Engine itself caps the few-shot set at 3 per call (spec §4.D.2).
const confirmedExamplesLimit = 200

// ConfirmedExamples implements classify.ExampleSource: it surfaces the
// most recent classifications that were never corrected in the
// accuracy ledger, joined back against the cached message body, for
// few-shot augmentation (spec §4.D.2).
func (db *DB) ConfirmedExamples(ctx context.Context) ([]classify.Example, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT m.subject, m.body_text, c.category
		FROM classifications c
		JOIN messages m ON m.id = c.message_id
		WHERE c.status = ?
		AND NOT EXISTS (
			SELECT 1 FROM accuracy_events e
			WHERE e.message_id = c.message_id
			AND e.predicted_category != e.actual_category
		)
		ORDER BY c.predicted_at DESC
		LIMIT ?`, model.StatusClassified, confirmedExamplesLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []classify.Example
	for rows.Next() {
		var ex classify.Example
		if err := rows.Scan(&ex.Subject, &ex.Body, &ex.Category); err != nil {
			return nil, err
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}
