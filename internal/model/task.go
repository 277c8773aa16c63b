package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TaskPriority is the materialized urgency of a Task.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// TaskStatus tracks a Task through its lifecycle DAG (spec invariant I5):
// todo -> in_progress -> done, any -> dismissed, and reopen -> todo.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusDismissed  TaskStatus = "dismissed"
)

// Task is a materialized artifact produced by the Artifact Extractor.
type Task struct {
	ID              string
	SourceMessageID string
	Category        Category
	Title           string
	Description     string
	Priority        TaskPriority
	Status          TaskStatus
	Metadata        TaskMetadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Resolution      *Resolution
}

// TaskMetadata is category-specific structured metadata attached to a
// Task. All fields are optional; only the fields relevant to the
// producing category are populated.
type TaskMetadata struct {
	KeyPoints        []string `json:"key_points,omitempty"`
	Links            []string `json:"links,omitempty"`
	ActionItems      []string `json:"action_items,omitempty"`
	DueDate          string   `json:"due_date,omitempty"`
	Relevance        string   `json:"relevance,omitempty"`
	TeamScope        bool     `json:"team_scope,omitempty"`
	QualificationMatch string `json:"qualification_match,omitempty"`
	RelevanceScore   float64  `json:"relevance_score,omitempty"`
	ErrorKind        string   `json:"error_kind,omitempty"`
	OccurredAt       string   `json:"occurred_at,omitempty"`
}

// TaskID derives the deterministic, pure-function Task id required by
// spec invariant I2 / testable property P1: a stable hash of
// (source_message_id, category, extractor_version). Re-running
// extraction with the same inputs and the same extractor_version always
// yields the same id (P5); bumping extractor_version invalidates it
// (GLOSSARY: "Extractor version").
//
// Grounded on the teacher's classifier/client.go cacheKey, which hashes
// request fields the same way for a stable cache key.
func TaskID(sourceMessageID string, category Category, extractorVersion string) string {
	h := sha256.New()
	h.Write([]byte(sourceMessageID))
	h.Write([]byte{'|'})
	h.Write([]byte(category))
	h.Write([]byte{'|'})
	h.Write([]byte(extractorVersion))
	return hex.EncodeToString(h.Sum(nil))[:32]
}
