// Package prompt implements the Prompt Registry (spec §4.A): a closed
// set of named templates, parameterized by declared variables, with a
// declared output schema for the LLM Gateway to validate against.
//
// Variable substitution follows the teacher pack's own idiom (e.g.
// storbeck-augustus's internal/generators/rest request templating):
// plain "{name}" placeholders, not text/template — prompt bodies are
// user-editable (custom_prompts overrides) and should not have to be
// defended against template-action injection.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Name identifies one of the closed set of templates.
type Name string

const (
	Classifier                 Name = "classifier"
	ClassifierWithExplanation  Name = "classifier_with_explanation"
	SummarizeActionItem        Name = "summerize_action_item"
	JobListingAnalysis         Name = "job_listing_analysis"
	EventRelevance             Name = "event_relevance"
	NewsletterSummary          Name = "newsletter_summary"
	NewsletterSummaryCustom    Name = "newsletter_summary_custom"
	FYISummary                 Name = "fyi_summary"
	ContentDeduplication       Name = "content_deduplication"
	HolisticInboxAnalysis      Name = "holistic_inbox_analysis"
)

// TemplateError signals a programmer error: an undeclared or missing
// variable. Per spec §7 this propagates upward and is never silently
// recovered from.
type TemplateError struct {
	Template Name
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt: template %q: %s", e.Template, e.Reason)
}

// Template is one entry in the closed registry.
type Template struct {
	Name             Name
	Body             string
	RequiredVars     []string
	OptionalVars     []string
	OutputSchema     []string // field names the LLM response must contain
}

// Registry holds the immutable, closed set of templates plus any
// per-template custom overrides installed with SetOverride. It is safe
// for concurrent read once New has returned and no SetOverride call is
// in progress.
type Registry struct {
	templates map[Name]Template
	overrides map[Name]string
}

// New builds the registry from the built-in template set.
func New() *Registry {
	return &Registry{
		templates: defaultTemplates(),
		overrides: map[Name]string{},
	}
}

// SetOverride installs a custom body for a template name. The pipeline
// in cli/run.go does not call it: neither prompts.custom_overrides_enabled
// nor UserSettings.CustomPrompts installs an override. The declared
// output schema is never replaced — only the body text changes.
func (r *Registry) SetOverride(name Name, body string) {
	r.overrides[name] = body
}

// Get renders template `name` against `variables`, returning the
// rendered prompt string and the declared output schema fields. It
// fails fast with a *TemplateError if any required variable is missing
// or if `variables` supplies a key the template does not declare.
func (r *Registry) Get(name Name, variables map[string]string) (string, []string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", nil, &TemplateError{Template: name, Reason: "unknown template"}
	}

	declared := make(map[string]bool, len(tmpl.RequiredVars)+len(tmpl.OptionalVars))
	for _, v := range tmpl.RequiredVars {
		declared[v] = true
	}
	for _, v := range tmpl.OptionalVars {
		declared[v] = true
	}

	for _, v := range tmpl.RequiredVars {
		if _, ok := variables[v]; !ok {
			return "", nil, &TemplateError{Template: name, Reason: "missing required variable " + v}
		}
	}
	for k := range variables {
		if !declared[k] {
			return "", nil, &TemplateError{Template: name, Reason: "undeclared variable " + k}
		}
	}

	body := tmpl.Body
	if override, ok := r.overrides[name]; ok {
		body = override
	}

	// Deterministic substitution order so repeated renders are stable.
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		body = strings.ReplaceAll(body, "{"+k+"}", variables[k])
	}

	// An optional variable the caller omitted still has a placeholder in
	// the body; blank it rather than send it to the model verbatim.
	for _, v := range tmpl.OptionalVars {
		if _, set := variables[v]; !set {
			body = strings.ReplaceAll(body, "{"+v+"}", "")
		}
	}

	return body, tmpl.OutputSchema, nil
}

// RequiredVars returns the required variable names for a template, used
// by callers that want to pre-validate before building a variables map.
func (r *Registry) RequiredVars(name Name) ([]string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, &TemplateError{Template: name, Reason: "unknown template"}
	}
	out := make([]string, len(tmpl.RequiredVars))
	copy(out, tmpl.RequiredVars)
	return out, nil
}
