package email

import (
	"context"
	"time"

	"github.com/triagekit/emailtriage/internal/model"
)

// Provider defines the interface an email backend implements to feed
// the Pipeline Scheduler (spec §6 names Outlook COM and Graph REST
// bindings as existing implementations; this repo ships Gmail).
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Authenticate performs OAuth or credential validation.
	Authenticate(ctx context.Context) error

	// IsAuthenticated checks if valid credentials exist.
	IsAuthenticated() bool

	// FetchMessages retrieves messages matching criteria, already
	// mapped into the pipeline's model.Message vocabulary.
	FetchMessages(ctx context.Context, opts FetchOptions) ([]model.Message, error)

	// GetMessage retrieves a single message by provider id.
	GetMessage(ctx context.Context, id string) (*model.Message, error)

	// GetUserEmail returns the authenticated user's email address.
	GetUserEmail(ctx context.Context) (string, error)
}

// FetchOptions configures message fetching.
type FetchOptions struct {
	MaxResults int        // Maximum number of messages to fetch
	After      *time.Time // Fetch messages received after this date
	Query      string     // Provider-specific query string
}

// DefaultFetchOptions returns sensible defaults.
func DefaultFetchOptions() FetchOptions {
	after := time.Now().AddDate(0, -1, 0) // Last 30 days
	return FetchOptions{
		MaxResults: 100,
		After:      &after,
	}
}
