// Package gmail implements email.Provider against the Gmail API, the
// concrete EmailProvider binding this repo ships (SPEC_FULL §11).
package gmail

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/triagekit/emailtriage/internal/email"
	"github.com/triagekit/emailtriage/internal/model"
)

// ProgressCallback is called with progress updates during fetching.
type ProgressCallback func(phase string, current, total int)

// concurrentFetches is the number of parallel Gmail API calls.
const concurrentFetches = 10

// Provider implements email.Provider for Gmail.
type Provider struct {
	credPath         string
	tokenPath        string
	service          *gmail.Service
	userEmail        string
	progressCallback ProgressCallback
}

// New creates a new Gmail provider.
func New(credPath, tokenPath string) *Provider {
	return &Provider{
		credPath:  credPath,
		tokenPath: tokenPath,
	}
}

func (p *Provider) Name() string { return "gmail" }

// SetProgressCallback sets a callback for progress updates.
func (p *Provider) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

func (p *Provider) reportProgress(phase string, current, total int) {
	if p.progressCallback != nil {
		p.progressCallback(phase, current, total)
	}
}

// IsAuthenticated checks if valid token exists.
func (p *Provider) IsAuthenticated() bool {
	_, err := loadToken(p.tokenPath)
	return err == nil
}

// Authenticate performs OAuth authentication.
func (p *Provider) Authenticate(ctx context.Context) error {
	config, err := loadCredentials(p.credPath)
	if err != nil {
		return err
	}

	client, err := getClient(ctx, config, p.tokenPath)
	if err != nil {
		return fmt.Errorf("failed to get OAuth client: %w", err)
	}

	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("failed to create Gmail service: %w", err)
	}

	p.service = service

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get user profile: %w", err)
	}

	p.userEmail = profile.EmailAddress
	return nil
}

// GetUserEmail returns the authenticated user's email address.
func (p *Provider) GetUserEmail(ctx context.Context) (string, error) {
	if p.userEmail == "" {
		return "", fmt.Errorf("not authenticated")
	}
	return p.userEmail, nil
}

// FetchMessages retrieves messages matching criteria using parallel
// fetching, mapped into model.Message.
func (p *Provider) FetchMessages(ctx context.Context, opts email.FetchOptions) ([]model.Message, error) {
	if p.service == nil {
		return nil, fmt.Errorf("not authenticated - call Authenticate() first")
	}

	query := buildQuery(opts)

	var messageIDs []string
	pageToken := ""

	p.reportProgress("listing", 0, opts.MaxResults)

	for {
		req := p.service.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(minInt(opts.MaxResults-len(messageIDs), 500)))

		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}

		for _, msg := range resp.Messages {
			messageIDs = append(messageIDs, msg.Id)
			if len(messageIDs) >= opts.MaxResults {
				break
			}
		}

		p.reportProgress("listing", len(messageIDs), opts.MaxResults)

		pageToken = resp.NextPageToken
		if pageToken == "" || len(messageIDs) >= opts.MaxResults {
			break
		}
	}

	if len(messageIDs) == 0 {
		return nil, nil
	}

	return p.fetchMessagesParallel(ctx, messageIDs)
}

// fetchMessagesParallel fetches multiple messages concurrently over a
// bounded worker pool (teacher's provider.go shape).
func (p *Provider) fetchMessagesParallel(ctx context.Context, messageIDs []string) ([]model.Message, error) {
	type result struct {
		index int
		msg   model.Message
		err   error
	}

	results := make(chan result, len(messageIDs))
	var wg sync.WaitGroup
	var fetchedCount int64

	sem := make(chan struct{}, concurrentFetches)

	total := len(messageIDs)
	p.reportProgress("fetching", 0, total)

	for i, msgID := range messageIDs {
		wg.Add(1)
		go func(index int, id string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results <- result{index: index, err: ctx.Err()}
				return
			}

			fullMsg, err := p.service.Users.Messages.Get("me", id).
				Format("full").
				Context(ctx).
				Do()
			if err != nil {
				results <- result{index: index, err: err}
				return
			}

			current := int(atomic.AddInt64(&fetchedCount, 1))
			p.reportProgress("fetching", current, total)

			results <- result{index: index, msg: convertMessage(fullMsg)}
		}(i, msgID)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	messages := make([]model.Message, len(messageIDs))
	var fetchErrors []error

	for r := range results {
		if r.err != nil {
			fetchErrors = append(fetchErrors, fmt.Errorf("message %d: %w", r.index, r.err))
			continue
		}
		messages[r.index] = r.msg
	}

	var valid []model.Message
	for _, m := range messages {
		if m.ID != "" {
			valid = append(valid, m)
		}
	}

	if len(fetchErrors) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: failed to fetch %d messages\n", len(fetchErrors))
	}

	return valid, nil
}

// GetMessage retrieves a single message by id.
func (p *Provider) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	if p.service == nil {
		return nil, fmt.Errorf("not authenticated")
	}

	msg, err := p.service.Users.Messages.Get("me", id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	result := convertMessage(msg)
	return &result, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
