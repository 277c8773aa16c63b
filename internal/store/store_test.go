package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "emailtriage-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}

	return db, cleanup
}

func TestOpenCreatesSchema(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{"classifications", "tasks", "task_resolutions", "accuracy_events", "accuracy_snapshots", "user_settings"} {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count); err != nil {
			t.Fatalf("query sqlite_master for %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}
}

func TestSaveClassificationIsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	c := model.Classification{
		MessageID: "m1", ModelVersion: "v1", Category: model.CategoryFYI,
		Confidence: 0.8, Status: model.StatusClassified, PredictedAt: time.Now(),
	}
	if err := db.SaveClassification(ctx, c); err != nil {
		t.Fatalf("SaveClassification() error: %v", err)
	}
	// Re-run with a different confidence: the first row must stand.
	c.Confidence = 0.1
	if err := db.SaveClassification(ctx, c); err != nil {
		t.Fatalf("SaveClassification() rerun error: %v", err)
	}

	got, err := db.GetClassification(ctx, "m1", "v1")
	if err != nil {
		t.Fatalf("GetClassification() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected classification to be found")
	}
	if got.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8 (first write wins)", got.Confidence)
	}
}

func TestSaveTaskIsIdempotentAcrossReExtraction(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id := model.TaskID("m1", model.CategoryRequiredPersonalAction, "v1")
	task := model.Task{
		ID: id, SourceMessageID: "m1", Category: model.CategoryRequiredPersonalAction,
		Title: "Reply to recruiter", Status: model.TaskStatusTodo, Priority: model.PriorityHigh,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask() error: %v", err)
	}

	if err := db.UpdateTaskStatus(ctx, id, model.TaskStatusDone); err != nil {
		t.Fatalf("UpdateTaskStatus() error: %v", err)
	}

	// A rerun of extraction recomputes the same id and must not revert
	// the status the user already set.
	if err := db.SaveTask(ctx, task); err != nil {
		t.Fatalf("SaveTask() rerun error: %v", err)
	}

	got, err := db.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected task to be found")
	}
	if got.Status != model.TaskStatusDone {
		t.Errorf("Status = %v, want done to survive re-extraction", got.Status)
	}
}

func TestSaveTaskReplacesFallbackContentOnRetry(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	id := model.TaskID("m1", model.CategoryFYI, "v1")
	fallback := model.Task{
		ID: id, SourceMessageID: "m1", Category: model.CategoryFYI,
		Title:       "Original subject",
		Description: "[AI service unavailable: transient] Review email manually.",
		Status:      model.TaskStatusTodo, Priority: model.PriorityMedium,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := db.SaveTask(ctx, fallback); err != nil {
		t.Fatalf("SaveTask() error: %v", err)
	}

	// A later retry of the same extraction succeeds and must replace the
	// fallback's placeholder content (spec §4.E "a later retry replaces
	// the fallback"), not be silently ignored.
	recovered := fallback
	recovered.Title = "Weekly summary"
	recovered.Description = "Real extracted summary"
	recovered.Priority = model.PriorityLow
	if err := db.SaveTask(ctx, recovered); err != nil {
		t.Fatalf("SaveTask() retry error: %v", err)
	}

	got, err := db.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got == nil {
		t.Fatal("expected task to be found")
	}
	if got.Title != "Weekly summary" || got.Description != "Real extracted summary" {
		t.Errorf("fallback content was not replaced by retry: %+v", got)
	}
	if got.Priority != model.PriorityLow {
		t.Errorf("Priority = %v, want low to reflect the successful retry", got.Priority)
	}
}

func TestListTasksFiltersByStatusAndCategory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	tasks := []model.Task{
		{ID: "t1", SourceMessageID: "m1", Category: model.CategoryRequiredPersonalAction, Status: model.TaskStatusTodo, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: "t2", SourceMessageID: "m2", Category: model.CategoryTeamAction, Status: model.TaskStatusDone, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}
	for _, task := range tasks {
		if err := db.SaveTask(ctx, task); err != nil {
			t.Fatalf("SaveTask() error: %v", err)
		}
	}

	todoStatus := model.TaskStatusTodo
	todo, err := db.ListTasks(ctx, TaskFilter{Status: &todoStatus})
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(todo) != 1 || todo[0].ID != "t1" {
		t.Errorf("expected only t1 in todo filter, got %+v", todo)
	}

	teamCategory := model.CategoryTeamAction
	team, err := db.ListTasks(ctx, TaskFilter{Category: &teamCategory})
	if err != nil {
		t.Fatalf("ListTasks() error: %v", err)
	}
	if len(team) != 1 || team[0].ID != "t2" {
		t.Errorf("expected only t2 in team_action filter, got %+v", team)
	}
}

func TestAccuracyEventStoreRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	event := model.AccuracyEvent{
		MessageID: "m1", PredictedCategory: model.CategoryNewsletter,
		ActualCategory: model.CategoryNewsletter, Confidence: 0.6,
		OccurredAt: time.Now(), SessionID: "s1",
	}
	if err := db.AppendEvent(ctx, event); err != nil {
		t.Fatalf("AppendEvent() error: %v", err)
	}

	category, confidence, found, err := db.LatestPrediction(ctx, "m1")
	if err != nil {
		t.Fatalf("LatestPrediction() error: %v", err)
	}
	if !found {
		t.Fatal("expected a prediction to be found")
	}
	if category != model.CategoryNewsletter || confidence != 0.6 {
		t.Errorf("LatestPrediction() = %v/%v, want newsletter/0.6", category, confidence)
	}

	events, err := db.Events(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestUserSettingsRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	s := model.UserSettings{
		Username: "alice", JobRoleContext: "staff engineer",
		JobSkills: []string{"go", "distributed-systems"},
		NewsletterInterests: []string{"compilers"},
		ClassificationRules: "ignore marketing",
		CustomPrompts: map[model.Category]string{model.CategoryFYI: "custom fyi prompt"},
	}
	if err := db.SaveUserSettings(ctx, s); err != nil {
		t.Fatalf("SaveUserSettings() error: %v", err)
	}

	got, err := db.GetUserSettings(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserSettings() error: %v", err)
	}
	if got.JobRoleContext != "staff engineer" {
		t.Errorf("JobRoleContext = %q, want %q", got.JobRoleContext, "staff engineer")
	}
	if len(got.JobSkills) != 2 || got.JobSkills[1] != "distributed-systems" {
		t.Errorf("JobSkills = %v, want [go distributed-systems]", got.JobSkills)
	}
	if got.CustomPrompts[model.CategoryFYI] != "custom fyi prompt" {
		t.Errorf("CustomPrompts[fyi] = %q, want custom fyi prompt", got.CustomPrompts[model.CategoryFYI])
	}
}

func TestGetUserSettingsReturnsZeroValueWhenAbsent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	got, err := db.GetUserSettings(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetUserSettings() error: %v", err)
	}
	if got.Username != "nobody" || got.JobRoleContext != "" {
		t.Errorf("expected zero-value settings, got %+v", got)
	}
}

func TestConversationCacheRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	conv := model.Conversation{
		Key: "thread-1",
		Messages: []model.Message{
			{ID: "m1", Subject: "hi", Sender: "bob@example.com", Recipients: []string{"alice@example.com"}, ReceivedAt: time.Now()},
		},
	}
	if err := db.SaveConversation(ctx, conv); err != nil {
		t.Fatalf("SaveConversation() error: %v", err)
	}

	cached, err := db.ConversationIsCached(ctx, "thread-1")
	if err != nil {
		t.Fatalf("ConversationIsCached() error: %v", err)
	}
	if !cached {
		t.Error("expected conversation to be cached")
	}

	msg, err := db.GetMessage(ctx, "m1")
	if err != nil {
		t.Fatalf("GetMessage() error: %v", err)
	}
	if msg == nil || msg.Sender != "bob@example.com" {
		t.Errorf("GetMessage() = %+v", msg)
	}
}
