// Package classify implements the Classification Engine (spec §4.D):
// prompt resolution, optional few-shot augmentation, Gateway
// invocation, and validation of the returned category/confidence.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/triagekit/emailtriage/internal/llm"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/prompt"
)

// maxBodyWords approximates spec §4.D's "body truncated to 8,000 tokens
// worst-case" as a word count, since the abstract CompletionClient
// owns the real tokenizer.
const maxBodyWords = 8000

// maxFewShotExamples caps few-shot augmentation at 3 (spec §4.D.2).
const maxFewShotExamples = 3

// Example is a prior classification eligible for few-shot augmentation:
// one the user never corrected in the Accuracy Ledger.
type Example struct {
	Subject  string
	Body     string
	Category model.Category
}

// ExampleSource supplies confirmed-correct prior classifications for
// few-shot ranking. A nil ExampleSource disables augmentation.
type ExampleSource interface {
	ConfirmedExamples(ctx context.Context) ([]Example, error)
}

// Engine is the Classification Engine.
type Engine struct {
	Gateway      *llm.Gateway
	Registry     *prompt.Registry
	Examples     ExampleSource
	ModelVersion string
	Timeout      time.Duration

	scorer *scorer
}

// NewEngine builds a Classification Engine. Examples may be nil to
// disable few-shot augmentation entirely.
func NewEngine(gw *llm.Gateway, registry *prompt.Registry, examples ExampleSource, modelVersion string, timeout time.Duration) *Engine {
	return &Engine{
		Gateway:      gw,
		Registry:     registry,
		Examples:     examples,
		ModelVersion: modelVersion,
		Timeout:      timeout,
		scorer:       newScorer(),
	}
}

// Classify implements classify(representative_message, settings) →
// Classification (spec §4.D).
func (e *Engine) Classify(ctx context.Context, msg model.Message, settings model.UserSettings) (model.Classification, error) {
	body := truncateWords(msg.BodyText, maxBodyWords)

	vars := map[string]string{
		"subject":              msg.Subject,
		"sender":               msg.Sender,
		"recipient":            strings.Join(msg.Recipients, ", "),
		"body":                 body,
		"job_role_context":     settings.JobRoleContext,
		"classification_rules": settings.ClassificationRules,
		"username":             settings.Username,
	}

	fewShot := e.renderFewShot(ctx, msg.Subject, body)
	if fewShot != "" {
		vars["few_shot_examples"] = fewShot
	}

	rendered, schema, err := e.Registry.Get(prompt.ClassifierWithExplanation, vars)
	if err != nil {
		return model.Classification{}, err
	}

	// confidence is asked for but not required: a reply without it gets
	// the UnknownConfidence sentinel below instead of failing validation.
	required := make([]string, 0, len(schema))
	for _, f := range schema {
		if f != "confidence" {
			required = append(required, f)
		}
	}

	result, err := e.Gateway.Complete(ctx, prompt.ClassifierWithExplanation, llm.CallClassification, rendered, required, e.Timeout)
	if err != nil {
		if le, ok := err.(*llm.Error); ok && le.Kind == llm.ContentFiltered {
			return model.Classification{
				MessageID:      msg.ID,
				Category:       model.CategoryFYI,
				Confidence:     0.0,
				Reasoning:      "blocked by content policy",
				OneLineSummary: "[content filtered]",
				ModelVersion:   e.ModelVersion,
				PredictedAt:    now(),
				Status:         model.StatusContentFiltered,
			}, nil
		}
		return model.Classification{
			MessageID:    msg.ID,
			ModelVersion: e.ModelVersion,
			PredictedAt:  now(),
			Status:       model.StatusError,
			Reasoning:    fmt.Sprintf("classification failed: %v", err),
		}, err
	}

	category := model.Category(stringField(result, "category"))
	if !model.IsValidCategory(category) {
		verr := &llm.Error{Kind: llm.MalformedResponse, Template: string(prompt.ClassifierWithExplanation), Err: fmt.Errorf("unrecognized category %q", category)}
		return model.Classification{
			MessageID:    msg.ID,
			ModelVersion: e.ModelVersion,
			PredictedAt:  now(),
			Status:       model.StatusError,
			Reasoning:    verr.Error(),
		}, verr
	}

	confidence := model.UnknownConfidence
	if v, ok := result["confidence"]; ok {
		if f, ok := toFloat(v); ok {
			confidence = model.ClampConfidence(f)
		}
	}

	return model.Classification{
		MessageID:      msg.ID,
		Category:       category,
		Confidence:     confidence,
		Reasoning:      stringField(result, "reasoning"),
		OneLineSummary: stringField(result, "one_line_summary"),
		ModelVersion:   e.ModelVersion,
		PredictedAt:    now(),
		Status:         model.StatusClassified,
	}, nil
}

// renderFewShot selects up to maxFewShotExamples confirmed prior
// classifications ranked by keyword-overlap score and formats them as
// the few_shot_examples variable body. Returns "" when augmentation is
// disabled or no examples are available.
func (e *Engine) renderFewShot(ctx context.Context, subject, body string) string {
	if e.Examples == nil {
		return ""
	}
	candidates, err := e.Examples.ConfirmedExamples(ctx)
	if err != nil || len(candidates) == 0 {
		return ""
	}

	type scored struct {
		ex    Example
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{ex: c, score: e.scorer.score(subject, body, c.Subject, c.Body)})
	}
	sortByScoreDesc(ranked)

	n := len(ranked)
	if n > maxFewShotExamples {
		n = maxFewShotExamples
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if ranked[i].score <= 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("Example: subject=%q -> category=%s\n", ranked[i].ex.Subject, ranked[i].ex.Category))
	}
	return b.String()
}

func sortByScoreDesc(items []struct {
	ex    Example
	score float64
}) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].score > items[j-1].score; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func truncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ")
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

var now = time.Now
