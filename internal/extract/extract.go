// Package extract implements the Artifact Extractor (spec §4.E): a
// closed category→template→Task dispatch table, with a deterministic
// fallback task on any extractor failure.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/triagekit/emailtriage/internal/llm"
	"github.com/triagekit/emailtriage/internal/model"
	"github.com/triagekit/emailtriage/internal/prompt"
)

// Extractor is the Artifact Extractor.
type Extractor struct {
	Gateway          *llm.Gateway
	Registry         *prompt.Registry
	ExtractorVersion string
	Timeout          time.Duration
}

func NewExtractor(gw *llm.Gateway, registry *prompt.Registry, extractorVersion string, timeout time.Duration) *Extractor {
	return &Extractor{Gateway: gw, Registry: registry, ExtractorVersion: extractorVersion, Timeout: timeout}
}

// dispatchEntry is one row of the closed category→template table
// (spec §4.E). New categories require updating model.Category, this
// table, and at least one prompt template — deliberately high friction
// (spec §7).
type dispatchEntry struct {
	template func(settings model.UserSettings) prompt.Name
	priority model.TaskPriority
	teamScope bool
}

var dispatchTable = map[model.Category]dispatchEntry{
	model.CategoryRequiredPersonalAction: {
		template: func(model.UserSettings) prompt.Name { return prompt.SummarizeActionItem },
		priority: model.PriorityHigh,
	},
	model.CategoryTeamAction: {
		template:  func(model.UserSettings) prompt.Name { return prompt.SummarizeActionItem },
		priority:  model.PriorityMedium,
		teamScope: true,
	},
	model.CategoryOptionalAction: {
		template: func(model.UserSettings) prompt.Name { return prompt.SummarizeActionItem },
		priority: model.PriorityMedium,
	},
	model.CategoryJobListing: {
		template: func(model.UserSettings) prompt.Name { return prompt.JobListingAnalysis },
		priority: model.PriorityMedium,
	},
	model.CategoryOptionalEvent: {
		template: func(model.UserSettings) prompt.Name { return prompt.EventRelevance },
		priority: model.PriorityLow,
	},
	model.CategoryNewsletter: {
		template: func(s model.UserSettings) prompt.Name {
			if len(s.NewsletterInterests) > 0 {
				return prompt.NewsletterSummaryCustom
			}
			return prompt.NewsletterSummary
		},
		priority: model.PriorityLow,
	},
	model.CategoryFYI: {
		template: func(model.UserSettings) prompt.Name { return prompt.FYISummary },
		priority: model.PriorityLow,
	},
	model.CategoryWorkRelevant: {
		template: func(model.UserSettings) prompt.Name { return prompt.SummarizeActionItem },
		priority: model.PriorityLow,
	},
	// model.CategorySpamToDelete intentionally has no entry: 0 Tasks,
	// handled as a no-op in Extract below.
}

// Extract implements extract(message, classification, settings) →
// list<Task> (spec §4.E). A spam_to_delete classification always
// yields zero tasks. Neither Extract nor the Pipeline Scheduler signals
// the delete candidate to the email provider; only the classification
// is recorded.
func (x *Extractor) Extract(ctx context.Context, msg model.Message, classification model.Classification, settings model.UserSettings) ([]model.Task, error) {
	if classification.Category == model.CategorySpamToDelete {
		return nil, nil
	}

	entry, ok := dispatchTable[classification.Category]
	if !ok {
		return nil, fmt.Errorf("extract: no dispatch entry for category %q", classification.Category)
	}

	tmpl := entry.template(settings)
	id := model.TaskID(msg.ID, classification.Category, x.ExtractorVersion)

	task, err := x.callExtractor(ctx, tmpl, msg, settings)
	if err != nil {
		if _, ok := err.(*prompt.TemplateError); ok {
			// TemplateError is a programmer error (spec §7): propagate
			// and do not emit a fallback task, rather than masking a
			// missing/undeclared prompt variable as an AI failure.
			return nil, err
		}
		return []model.Task{x.fallbackTask(id, msg, classification, err)}, nil
	}

	task.ID = id
	task.SourceMessageID = msg.ID
	task.Category = classification.Category
	task.Priority = entry.priority
	task.Status = model.TaskStatusTodo
	task.Metadata.TeamScope = entry.teamScope
	task.CreatedAt = now()
	task.UpdatedAt = task.CreatedAt

	if isLinkCategory(classification.Category) {
		task.Metadata.Links = extractLinks(msg.BodyText)
	}

	return []model.Task{task}, nil
}

func isLinkCategory(c model.Category) bool {
	return c == model.CategoryNewsletter || c == model.CategoryFYI
}

func (x *Extractor) callExtractor(ctx context.Context, tmpl prompt.Name, msg model.Message, settings model.UserSettings) (model.Task, error) {
	vars := extractorVars(tmpl, msg, settings)

	rendered, schema, err := x.Registry.Get(tmpl, vars)
	if err != nil {
		return model.Task{}, err
	}

	result, err := x.Gateway.Complete(ctx, tmpl, llm.CallExtraction, rendered, schema, x.Timeout)
	if err != nil {
		return model.Task{}, err
	}

	return taskFromResult(result), nil
}

func extractorVars(tmpl prompt.Name, msg model.Message, settings model.UserSettings) map[string]string {
	switch tmpl {
	case prompt.SummarizeActionItem:
		return map[string]string{
			"subject":  msg.Subject,
			"sender":   msg.Sender,
			"body":     msg.BodyText,
			"username": settings.Username,
		}
	case prompt.JobListingAnalysis:
		return map[string]string{
			"subject":          msg.Subject,
			"body":             msg.BodyText,
			"job_role_context": settings.JobRoleContext,
			"job_skills":       strings.Join(settings.JobSkills, ", "),
		}
	case prompt.EventRelevance:
		return map[string]string{
			"subject":          msg.Subject,
			"body":             msg.BodyText,
			"username":         settings.Username,
			"job_role_context": settings.JobRoleContext,
		}
	case prompt.NewsletterSummaryCustom:
		return map[string]string{
			"subject":          msg.Subject,
			"body":             msg.BodyText,
			"custom_interests": strings.Join(settings.NewsletterInterests, ", "),
		}
	case prompt.NewsletterSummary:
		return map[string]string{
			"subject": msg.Subject,
			"body":    msg.BodyText,
		}
	case prompt.FYISummary:
		return map[string]string{
			"subject":  msg.Subject,
			"body":     msg.BodyText,
			"username": settings.Username,
		}
	default:
		return map[string]string{"subject": msg.Subject, "body": msg.BodyText}
	}
}

func taskFromResult(result map[string]any) model.Task {
	task := model.Task{
		Title:       stringField(result, "title"),
		Description: stringField(result, "description"),
	}
	task.Metadata.ActionItems = stringSliceField(result, "action_items")
	task.Metadata.DueDate = stringField(result, "due_date")
	task.Metadata.KeyPoints = stringSliceField(result, "key_points")
	task.Metadata.QualificationMatch = stringField(result, "qualification_match")
	if v, ok := result["relevance_score"]; ok {
		if f, ok := toFloat(v); ok {
			task.Metadata.RelevanceScore = f
		}
	}
	return task
}

// fallbackTask is emitted on any extractor failure (spec §4.E), title
// = original subject, preserving the deterministic id so a later retry
// replaces it rather than duplicating it (I2).
func (x *Extractor) fallbackTask(id string, msg model.Message, classification model.Classification, err error) model.Task {
	kind := errorKind(err)
	ts := now()
	return model.Task{
		ID:              id,
		SourceMessageID: msg.ID,
		Category:        classification.Category,
		Title:           msg.Subject,
		Description:     fmt.Sprintf("[AI service unavailable: %s] Review email manually.", kind),
		Priority:        model.PriorityMedium,
		Status:          model.TaskStatusTodo,
		Metadata: model.TaskMetadata{
			ErrorKind:  string(kind),
			OccurredAt: ts.Format(time.RFC3339),
		},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func errorKind(err error) llm.ErrorKind {
	if le, ok := err.(*llm.Error); ok {
		return le.Kind
	}
	return llm.Unexpected
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func stringSliceField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
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
