package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

func TestTasksTableRendersRows(t *testing.T) {
	tasks := []model.Task{
		{
			ID:       "abcdef1234567890",
			Category: model.CategoryRequiredPersonalAction,
			Priority: model.PriorityHigh,
			Status:   model.TaskStatusTodo,
			Title:    "Interview confirmation",
		},
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, tasks); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Interview confirmation") {
		t.Errorf("table missing task title, got:\n%s", out)
	}
	if !strings.Contains(out, "high") {
		t.Errorf("table missing priority, got:\n%s", out)
	}
}

func TestTasksTableHandlesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, []model.Task{}); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	if !strings.Contains(buf.String(), "No tasks found") {
		t.Errorf("expected empty-state message, got: %q", buf.String())
	}
}

func TestTaskDetailRendersResolution(t *testing.T) {
	task := &model.Task{
		ID:       "abc123",
		Category: model.CategoryJobListing,
		Priority: model.PriorityMedium,
		Status:   model.TaskStatusDone,
		Title:    "Referral follow-up",
		Resolution: &model.Resolution{
			ResolutionType: model.ResolutionCompleted,
			ResolvedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, task); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Referral follow-up") || !strings.Contains(out, "completed") {
		t.Errorf("detail missing fields, got:\n%s", out)
	}
}

func TestAccuracyTableRendersPerCategoryMetrics(t *testing.T) {
	metrics := model.RunningMetrics{
		PerCategory: map[model.Category]model.CategoryMetrics{
			model.CategoryJobListing: {TP: 8, FP: 1, FN: 2, Precision: 0.89, Recall: 0.8, F1: 0.84},
		},
		OverallAccuracy: 0.91,
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, metrics); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "job_listing") {
		t.Errorf("table missing category row, got:\n%s", out)
	}
	if !strings.Contains(out, "Overall accuracy: 91.0%") {
		t.Errorf("table missing overall accuracy line, got:\n%s", out)
	}
}

func TestResolutionsTableRendersRows(t *testing.T) {
	resolutions := []model.Resolution{
		{
			TaskID:         "task-123",
			ResolutionType: model.ResolutionDismissed,
			ResolutionNotes: "no longer relevant",
			ResolvedAt:      time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
			TaskAgeDays:     5,
		},
	}

	var buf bytes.Buffer
	if err := TableTo(&buf, resolutions); err != nil {
		t.Fatalf("TableTo() error: %v", err)
	}
	if !strings.Contains(buf.String(), "dismissed") {
		t.Errorf("table missing resolution type, got:\n%s", buf.String())
	}
}

func TestTableToRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	if err := TableTo(&buf, 42); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestOutputDispatchesByFormat(t *testing.T) {
	if err := Output("json", []model.Task{}); err != nil {
		t.Errorf("Output(json) error: %v", err)
	}
	if err := Output("bogus", []model.Task{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
