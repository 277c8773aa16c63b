// Package llm implements the LLM Gateway (spec §4.B): JSON discipline
// with a repair pass, a closed error taxonomy, exponential backoff, and
// per-call-kind quota pacing in front of an abstract CompletionClient
// transport.
package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/triagekit/emailtriage/internal/obslog"
	"github.com/triagekit/emailtriage/internal/prompt"
)

// CallKind distinguishes classification calls from extraction calls so
// the Gateway can apply a separate pacing delay to each (spec §6
// llm.min_delay_classification_ms / llm.min_delay_extraction_ms).
type CallKind string

const (
	CallClassification CallKind = "classification"
	CallExtraction     CallKind = "extraction"
)

// CompletionRequest is the abstract request handed to a CompletionClient.
type CompletionRequest struct {
	Template prompt.Name
	Prompt   string
	Timeout  time.Duration
}

// CompletionClient is the abstract LLM transport; internal/llmclient
// provides the HTTP-backed implementation used by the CLI. Implementations
// should return a *llm.Error already classified into the taxonomy when
// possible; unclassified errors are wrapped as Unexpected.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Gateway wraps a CompletionClient with JSON discipline, a repair pass,
// retry/backoff, and quota pacing.
type Gateway struct {
	client  CompletionClient
	classPacer *pacer
	extrPacer  *pacer
	sem     *semaphore.Weighted
	retry   retryConfig
}

// Config configures a new Gateway. MaxConcurrent bounds how many
// in-flight Complete calls this Gateway allows at once; it is a
// semaphore of its own, separate from the Pipeline Scheduler's
// worker-pool gate.
type Config struct {
	MinDelayClassification time.Duration
	MinDelayExtraction     time.Duration
	MaxConcurrent          int64
	MaxRetries             int
}

func NewGateway(client CompletionClient, cfg Config) *Gateway {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	retry := defaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries + 1
	}
	return &Gateway{
		client:     client,
		classPacer: newPacer(cfg.MinDelayClassification),
		extrPacer:  newPacer(cfg.MinDelayExtraction),
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
		retry:      retry,
	}
}

// Complete renders nothing itself (the caller already used the Prompt
// Registry); it sends `renderedPrompt`, validates the reply contains
// every field in `schema`, retries transient/rate-limited failures with
// backoff, and on a malformed reply tries a local syntax fix-up before
// spending one repair call, giving up with MalformedResponse only if
// both fail. The returned map has every schema field present (when
// parsing succeeds); any extra fields in the reply are kept.
func (g *Gateway) Complete(ctx context.Context, tmpl prompt.Name, kind CallKind, renderedPrompt string, schema []string, timeout time.Duration) (map[string]any, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, &Error{Kind: Unexpected, Template: string(tmpl), Err: err}
	}
	defer g.sem.Release(1)

	p := g.classPacer
	if kind == CallExtraction {
		p = g.extrPacer
	}
	if err := p.Wait(ctx); err != nil {
		return nil, &Error{Kind: Unexpected, Template: string(tmpl), Err: err}
	}

	start := time.Now()
	attempts := 0
	var result map[string]any

	err := doWithRetry(ctx, g.retry, func(err error) bool {
		le, ok := err.(*Error)
		return ok && le.Retryable()
	}, func() error {
		attempts++
		if attempts > 1 {
			obslog.Warn("llm.retry", obslog.F("template", tmpl), obslog.F("attempt", attempts))
		}
		res, callErr := g.attemptOnce(ctx, tmpl, renderedPrompt, schema, timeout)
		if callErr != nil {
			return callErr
		}
		result = res
		return nil
	})
	retries := attempts - 1

	duration := time.Since(start)
	if err != nil {
		obslog.Error("llm.complete.failed", obslog.F("template", tmpl), obslog.F("duration_ms", duration.Milliseconds()), obslog.F("retries", retries))
		if le, ok := err.(*Error); ok {
			return nil, le
		}
		return nil, &Error{Kind: Unexpected, Template: string(tmpl), Err: err}
	}

	obslog.Info("llm.complete.ok", obslog.F("template", tmpl), obslog.F("duration_ms", duration.Milliseconds()), obslog.F("retries", retries))
	return result, nil
}

// attemptOnce performs a single completion call, including the one
// allowed repair round-trip if the first reply doesn't parse against
// schema.
func (g *Gateway) attemptOnce(ctx context.Context, tmpl prompt.Name, renderedPrompt string, schema []string, timeout time.Duration) (map[string]any, error) {
	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := g.client.Complete(callCtx, CompletionRequest{Template: tmpl, Prompt: renderedPrompt, Timeout: timeout})
	if err != nil {
		return nil, classifyTransportError(tmpl, err)
	}

	parsed, parseErr := parseAndValidate(raw, schema)
	if parseErr == nil {
		return parsed, nil
	}

	if fixed := locallyRepairJSON(raw); fixed != "" {
		if parsed, parseErr = parseAndValidate(fixed, schema); parseErr == nil {
			return parsed, nil
		}
	}

	repairPrompt := buildRepairPrompt(raw, schema)
	repaired, err := g.client.Complete(callCtx, CompletionRequest{Template: tmpl, Prompt: repairPrompt, Timeout: timeout})
	if err != nil {
		return nil, classifyTransportError(tmpl, err)
	}

	parsed, parseErr = parseAndValidate(repaired, schema)
	if parseErr != nil {
		return nil, &Error{Kind: MalformedResponse, Template: string(tmpl), Err: parseErr}
	}
	return parsed, nil
}

// classifyTransportError normalizes whatever the CompletionClient
// returned into the closed taxonomy; a client that already returns
// *Error passes through unchanged.
func classifyTransportError(tmpl prompt.Name, err error) *Error {
	if le, ok := err.(*Error); ok {
		return le
	}
	return &Error{Kind: Unexpected, Template: string(tmpl), Err: err}
}

// parseAndValidate strips markdown code fences (providers routinely
// wrap JSON in ```json blocks), unmarshals into a map, and confirms
// every declared schema field is present.
func parseAndValidate(raw string, schema []string) (map[string]any, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, err
	}

	for _, field := range schema {
		if _, ok := result[field]; !ok {
			return nil, &missingFieldError{field: field}
		}
	}
	return result, nil
}

type missingFieldError struct{ field string }

func (e *missingFieldError) Error() string { return "missing schema field: " + e.field }

// trailingCommaRE matches a comma followed only by whitespace before a
// closing brace or bracket, the single most common malformed-JSON shape
// providers produce.
var trailingCommaRE = regexp.MustCompile(`,(\s*[}\]])`)

// locallyRepairJSON fixes the common, mechanical ways a model's JSON
// reply fails to parse (a trailing comma before `}`/`]`, or single
// quotes in place of double quotes) before spending a second LLM call
// on repair. Returns "" when it has no candidate fix to offer.
func locallyRepairJSON(raw string) string {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return ""
	}

	fixed := trailingCommaRE.ReplaceAllString(content, "$1")
	if !strings.Contains(fixed, "'") && fixed == content {
		return ""
	}
	if strings.Contains(fixed, "'") && !strings.Contains(fixed, `"`) {
		fixed = strings.ReplaceAll(fixed, "'", `"`)
	}
	if fixed == content {
		return ""
	}
	return fixed
}

func buildRepairPrompt(malformed string, schema []string) string {
	var b strings.Builder
	b.WriteString("Your previous response was not valid JSON matching the required fields (")
	b.WriteString(strings.Join(schema, ", "))
	b.WriteString("). Respond again with ONLY a JSON object containing those fields.\n\n")
	b.WriteString("Previous response:\n")
	b.WriteString(malformed)
	return b.String()
}
