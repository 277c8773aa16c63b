package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

func convAt(id string, minutes int) model.Conversation {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return model.Conversation{Key: id, Messages: []model.Message{{ID: id, ReceivedAt: t}}}
}

func TestRunPageHappyPath(t *testing.T) {
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return model.Classification{MessageID: msg.ID, Category: model.CategoryFYI, Status: model.StatusClassified}, nil
	}
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		return []model.Task{{ID: "t-" + msg.ID, SourceMessageID: msg.ID}}, nil
	}

	var persisted int
	var mu sync.Mutex
	persist := func(ctx context.Context, cls model.Classification, tasks []model.Task) error {
		mu.Lock()
		defer mu.Unlock()
		persisted++
		return nil
	}

	s := New(classify, extract, persist, 10, 1)
	convs := []model.Conversation{convAt("c1", 0), convAt("c2", 1)}

	var events []ProgressEvent
	result := s.RunPage(context.Background(), convs, 0, model.UserSettings{}, func(e ProgressEvent) {
		events = append(events, e)
	})

	if result.Err != nil {
		t.Fatalf("RunPage() error: %v", result.Err)
	}
	if len(result.Classifications) != 2 {
		t.Errorf("expected 2 classifications, got %d", len(result.Classifications))
	}
	if len(result.Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(result.Tasks))
	}
	if persisted != 2 {
		t.Errorf("expected 2 persist calls, got %d", persisted)
	}
	lastEvent := events[len(events)-1]
	if lastEvent.Stage != StageDone {
		t.Errorf("expected final stage Done, got %v", lastEvent.Stage)
	}
}

func TestRunPageSkipsExtractionOnClassificationFailure(t *testing.T) {
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return model.Classification{MessageID: msg.ID, Status: model.StatusError}, errors.New("boom")
	}
	extractCalled := false
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		extractCalled = true
		return nil, nil
	}

	s := New(classify, extract, nil, 10, 1)
	result := s.RunPage(context.Background(), []model.Conversation{convAt("c1", 0)}, 0, model.UserSettings{}, nil)

	if len(result.Classifications) != 0 {
		t.Errorf("expected 0 classifications retained on failure, got %d", len(result.Classifications))
	}
	if extractCalled {
		t.Error("expected extraction to be skipped after classification failure")
	}
}

func TestRunPageContentFilteredStillExtracts(t *testing.T) {
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return model.Classification{MessageID: msg.ID, Category: model.CategoryFYI, Status: model.StatusContentFiltered}, nil
	}
	extractCalled := false
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		extractCalled = true
		return []model.Task{{ID: "fallback"}}, nil
	}

	s := New(classify, extract, nil, 10, 1)
	result := s.RunPage(context.Background(), []model.Conversation{convAt("c1", 0)}, 0, model.UserSettings{}, nil)

	if !extractCalled {
		t.Error("expected extraction to still run for content_filtered placeholder")
	}
	if len(result.Tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(result.Tasks))
	}
}

func TestRunPageTerminatesOnExtractorError(t *testing.T) {
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return model.Classification{MessageID: msg.ID, Status: model.StatusClassified, Category: model.CategoryFYI}, nil
	}
	var extractCalls int
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		extractCalls++
		if extractCalls == 1 {
			return nil, errors.New("undeclared prompt variable")
		}
		return []model.Task{{ID: "t-" + msg.ID}}, nil
	}

	var persisted int
	persist := func(ctx context.Context, cls model.Classification, tasks []model.Task) error {
		persisted++
		return nil
	}

	s := New(classify, extract, persist, 10, 1)
	convs := []model.Conversation{convAt("c1", 0), convAt("c2", 1)}
	result := s.RunPage(context.Background(), convs, 0, model.UserSettings{}, nil)

	if result.Err == nil {
		t.Fatal("expected a programmer-error extractor failure to terminate the page")
	}
	if extractCalls != 1 {
		t.Errorf("expected extraction to stop after the first failure, got %d calls", extractCalls)
	}
	if persisted != 1 {
		t.Errorf("expected the first conversation's classification to stay persisted, got %d persist calls", persisted)
	}
}

func TestRunPagePreFilterSkipsClassifyAndExtract(t *testing.T) {
	classifyCalled := false
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		classifyCalled = true
		return model.Classification{MessageID: msg.ID, Category: model.CategoryFYI, Status: model.StatusClassified}, nil
	}
	extractCalled := false
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		extractCalled = true
		return []model.Task{{ID: "t-" + msg.ID}}, nil
	}

	var persistedCls model.Classification
	persist := func(ctx context.Context, cls model.Classification, tasks []model.Task) error {
		persistedCls = cls
		if len(tasks) != 0 {
			t.Errorf("expected no tasks for a pre-filtered conversation, got %d", len(tasks))
		}
		return nil
	}

	s := New(classify, extract, persist, 10, 1)
	s.PreFilter = func(ctx context.Context, msg model.Message) (model.Classification, bool) {
		if msg.ID != "c1" {
			return model.Classification{}, false
		}
		return model.Classification{MessageID: msg.ID, Category: model.CategorySpamToDelete, Status: model.StatusClassified, Confidence: 1.0}, true
	}

	result := s.RunPage(context.Background(), []model.Conversation{convAt("c1", 0)}, 0, model.UserSettings{}, nil)

	if result.Err != nil {
		t.Fatalf("RunPage() error: %v", result.Err)
	}
	if classifyCalled {
		t.Error("expected Classify to be skipped for a pre-filtered message")
	}
	if extractCalled {
		t.Error("expected Extract to be skipped for a pre-filtered message")
	}
	if len(result.Classifications) != 1 || result.Classifications[0].Category != model.CategorySpamToDelete {
		t.Errorf("expected the pre-filter's classification to be recorded, got %+v", result.Classifications)
	}
	if persistedCls.Category != model.CategorySpamToDelete {
		t.Errorf("expected the pre-filtered classification to be persisted, got %+v", persistedCls)
	}
}

func TestRunPageCancellationStopsBetweenConversations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		calls++
		if calls == 1 {
			cancel()
		}
		return model.Classification{MessageID: msg.ID, Status: model.StatusClassified, Category: model.CategoryFYI}, nil
	}
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		return nil, nil
	}

	s := New(classify, extract, nil, 10, 1)
	convs := []model.Conversation{convAt("c1", 0), convAt("c2", 1), convAt("c3", 2)}
	result := s.RunPage(ctx, convs, 0, model.UserSettings{}, nil)

	if result.Err == nil {
		t.Fatal("expected cancellation error")
	}
	if calls >= len(convs) {
		t.Errorf("expected cancellation to stop before processing all conversations, classify called %d times", calls)
	}
}

func TestRunAllSkipsCompletePages(t *testing.T) {
	classify := func(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
		return model.Classification{MessageID: msg.ID, Status: model.StatusClassified, Category: model.CategoryFYI}, nil
	}
	extract := func(ctx context.Context, msg model.Message, cls model.Classification, settings model.UserSettings) ([]model.Task, error) {
		return nil, nil
	}

	s := New(classify, extract, nil, 1, 2)
	s.IsPageComplete = func(pageIndex int) bool { return pageIndex == 0 }

	convs := []model.Conversation{convAt("c1", 0), convAt("c2", 1)}
	results, err := s.RunAll(context.Background(), convs, model.UserSettings{}, nil)
	if err != nil {
		t.Fatalf("RunAll() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 page results, got %d", len(results))
	}
	if !results[0].Skipped {
		t.Error("expected page 0 to be skipped")
	}
	if results[1].Skipped {
		t.Error("expected page 1 to run")
	}
}

func TestPaginateDefaultSize(t *testing.T) {
	s := New(nil, nil, nil, 0, 1)
	convs := make([]model.Conversation, 25)
	pages := s.Paginate(convs)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages of default size 10, got %d", len(pages))
	}
	if len(pages[0]) != 10 || len(pages[2]) != 5 {
		t.Errorf("unexpected page sizes: %d, %d, %d", len(pages[0]), len(pages[1]), len(pages[2]))
	}
}
