package classify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/triagekit/emailtriage/internal/llm"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/prompt"
)

type stubClient struct {
	response string
	err      error
}

func (s *stubClient) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	return s.response, s.err
}

type stubExamples struct {
	examples []Example
}

func (s *stubExamples) ConfirmedExamples(ctx context.Context) ([]Example, error) {
	return s.examples, nil
}

func newTestEngine(client llm.CompletionClient, examples ExampleSource) *Engine {
	gw := llm.NewGateway(client, llm.Config{MaxConcurrent: 2, MaxRetries: 1})
	return NewEngine(gw, prompt.New(), examples, "test-model-v1", time.Second)
}

func TestClassifyHappyPath(t *testing.T) {
	client := &stubClient{response: `{"category":"required_personal_action","confidence":0.8,"reasoning":"needs a reply","one_line_summary":"reply needed"}`}
	engine := newTestEngine(client, nil)

	msg := model.Message{ID: "m1", Subject: "Please approve", Sender: "boss@co.com", BodyText: "Can you approve this by Friday?"}
	result, err := engine.Classify(context.Background(), msg, model.UserSettings{Username: "dana"})
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if result.Category != model.CategoryRequiredPersonalAction {
		t.Errorf("Category = %v, want %v", result.Category, model.CategoryRequiredPersonalAction)
	}
	if result.Status != model.StatusClassified {
		t.Errorf("Status = %v, want %v", result.Status, model.StatusClassified)
	}
	if result.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", result.Confidence)
	}
}

func TestClassifyMissingConfidenceUsesUnknownSentinel(t *testing.T) {
	client := &stubClient{response: `{"category":"fyi","reasoning":"fyi only","one_line_summary":"fyi"}`}
	engine := newTestEngine(client, nil)

	msg := model.Message{ID: "m1", Subject: "Heads up", BodyText: "Just FYI."}
	result, err := engine.Classify(context.Background(), msg, model.UserSettings{})
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if result.Confidence != model.UnknownConfidence {
		t.Errorf("Confidence = %v, want sentinel %v (never the historical 0.8 default)", result.Confidence, model.UnknownConfidence)
	}
}

func TestClassifyContentFilteredProducesPlaceholder(t *testing.T) {
	client := &stubClient{err: &llm.Error{Kind: llm.ContentFiltered}}
	engine := newTestEngine(client, nil)

	msg := model.Message{ID: "m1", Subject: "x", BodyText: "y"}
	result, err := engine.Classify(context.Background(), msg, model.UserSettings{})
	if err != nil {
		t.Fatalf("Classify() should swallow ContentFiltered, got error: %v", err)
	}
	if result.Status != model.StatusContentFiltered {
		t.Errorf("Status = %v, want content_filtered", result.Status)
	}
	if result.Category != model.CategoryFYI {
		t.Errorf("Category = %v, want fyi placeholder", result.Category)
	}
	if result.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", result.Confidence)
	}
}

func TestClassifyInvalidCategoryIsError(t *testing.T) {
	client := &stubClient{response: `{"category":"not_a_real_category","confidence":0.9,"reasoning":"r","one_line_summary":"s"}`}
	engine := newTestEngine(client, nil)

	msg := model.Message{ID: "m1", Subject: "x", BodyText: "y"}
	result, err := engine.Classify(context.Background(), msg, model.UserSettings{})
	if err == nil {
		t.Fatal("expected error for unrecognized category, got nil")
	}
	if result.Status != model.StatusError {
		t.Errorf("Status = %v, want error", result.Status)
	}
}

func TestRenderFewShotRanksByOverlapAndCapsAtThree(t *testing.T) {
	examples := &stubExamples{examples: []Example{
		{Subject: "approve budget request", Body: "please approve the budget", Category: model.CategoryRequiredPersonalAction},
		{Subject: "weekly newsletter digest", Body: "this week in tech", Category: model.CategoryNewsletter},
		{Subject: "approve the new budget plan", Body: "approve budget please", Category: model.CategoryRequiredPersonalAction},
		{Subject: "team standup notes", Body: "notes from standup", Category: model.CategoryFYI},
	}}
	engine := newTestEngine(&stubClient{}, examples)

	out := engine.renderFewShot(context.Background(), "please approve budget", "need approval for the budget")
	if out == "" {
		t.Fatal("expected non-empty few-shot block")
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) > 3 {
		t.Errorf("expected at most 3 examples, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"approve budget request"`) {
		t.Errorf("expected the highest-overlap example first, got %q", out)
	}
	if len(lines) < 2 || !strings.Contains(lines[1], `"approve the new budget plan"`) {
		t.Errorf("expected the second-highest-overlap example second, got %q", out)
	}
}

func TestRenderFewShotDisabledWithoutSource(t *testing.T) {
	engine := newTestEngine(&stubClient{}, nil)
	if out := engine.renderFewShot(context.Background(), "s", "b"); out != "" {
		t.Errorf("expected empty few-shot block with nil ExampleSource, got %q", out)
	}
}
