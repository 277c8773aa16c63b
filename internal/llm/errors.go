package llm

import "fmt"

// ErrorKind is the closed error taxonomy the Gateway normalizes every
// CompletionClient failure into (spec §4.B / §7). Callers branch on Kind,
// never on the wrapped transport error.
type ErrorKind string

const (
	// ContentFiltered means the provider refused to complete the prompt
	// due to its own content policy. Never retried.
	ContentFiltered ErrorKind = "content_filtered"
	// RateLimited means the provider is throttling; retried with backoff.
	RateLimited ErrorKind = "rate_limited"
	// Transient covers network errors, timeouts, 5xx: retried with backoff.
	Transient ErrorKind = "transient"
	// BadRequest means the request itself was malformed; never retried.
	BadRequest ErrorKind = "bad_request"
	// MalformedResponse means the provider replied 2xx but the body could
	// not be parsed into the declared schema, even after the repair pass.
	MalformedResponse ErrorKind = "malformed_response"
	// Unexpected is the catch-all for anything not otherwise classified.
	Unexpected ErrorKind = "unexpected"
	// TemplateError names a prompt-template defect; not retried. The
	// Gateway does not produce this kind: a prompt.TemplateError reaches
	// callers from prompt.Registry.Get as its own type.
	TemplateError ErrorKind = "template_error"
	// StoreConflict names a persistence-layer write conflict; not
	// retried. Nothing in this module produces this kind.
	StoreConflict ErrorKind = "store_conflict"
	// ProviderAuthError names a credential rejection by the transport;
	// not retried. internal/llmclient does not produce this kind.
	ProviderAuthError ErrorKind = "provider_auth_error"
)

// Error wraps a transport-level failure with its normalized Kind. The
// Gateway's retry policy and the Classification Engine's status mapping
// both switch on Kind, never on Unwrap().
type Error struct {
	Kind     ErrorKind
	Template string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("llm: %s (%s)", e.Kind, e.Template)
	}
	return fmt.Sprintf("llm: %s (%s): %v", e.Kind, e.Template, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the Gateway's backoff loop should attempt
// another call for this error kind.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case RateLimited, Transient:
		return true
	default:
		return false
	}
}
