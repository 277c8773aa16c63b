package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/triagekit/emailtriage/internal/model"
)

// SaveTask upserts a Task keyed on its deterministic id (model.TaskID),
// matching spec §6's TaskStore.upsert(Task) contract. On conflict it
// replaces only the content fields a re-extraction can legitimately
// change (title/description/priority/metadata) so a later successful
// extraction replaces a degraded fallback task's placeholder content
// (spec §4.E: "a later retry replaces the fallback"). It never touches
// status, so a user's own lifecycle transition (I5) or resolution is
// never reverted by a rerun (P5) — status only ever changes through
// UpdateTaskStatus.
func (db *DB) SaveTask(ctx context.Context, t model.Task) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal task metadata: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, source_message_id, category, title, description, priority,
			status, metadata_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			priority = excluded.priority,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at
	`, t.ID, t.SourceMessageID, t.Category, t.Title, t.Description, t.Priority,
		t.Status, string(metadata), t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateTaskStatus moves a task through its lifecycle (spec invariant
// I5: todo -> in_progress -> done, any -> dismissed, reopen -> todo).
func (db *DB) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	return err
}

// GetTask fetches a single task by its deterministic id.
func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	t, metadataJSON, err := scanTaskRow(db.QueryRowContext(ctx, `
		SELECT id, source_message_id, category, title, description, priority,
		       status, metadata_json, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadataJSON), &t.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal task metadata: %w", err)
	}
	return t, nil
}

// TaskFilter narrows ListTasks; a nil field means "any".
type TaskFilter struct {
	Status   *model.TaskStatus
	Category *model.Category
}

// ListTasks returns tasks matching filter, newest first.
func (db *DB) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query := `
		SELECT id, source_message_id, category, title, description, priority,
		       status, metadata_json, created_at, updated_at
		FROM tasks WHERE 1=1
	`
	var args []interface{}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	if filter.Category != nil {
		query += " AND category = ?"
		args = append(args, *filter.Category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		var metadataJSON string
		if err := rows.Scan(&t.ID, &t.SourceMessageID, &t.Category, &t.Title, &t.Description,
			&t.Priority, &t.Status, &metadataJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadataJSON), &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal task metadata: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(row rowScanner) (*model.Task, string, error) {
	var t model.Task
	var metadataJSON string
	err := row.Scan(&t.ID, &t.SourceMessageID, &t.Category, &t.Title, &t.Description,
		&t.Priority, &t.Status, &metadataJSON, &t.CreatedAt, &t.UpdatedAt)
	return &t, metadataJSON, err
}
