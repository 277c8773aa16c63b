// Package llmclient is the concrete HTTP-backed binding of
// llm.CompletionClient, the transport the spec leaves abstract. It
// speaks the Ollama /api/generate wire shape, the local model the
// teacher's default config already points at.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/triagekit/emailtriage/internal/llm"
)

// Client posts completion requests to a single Ollama-compatible
// endpoint (grounded on the teacher's classifier/client.go HTTP shape:
// a baseURL, a timeout-bound http.Client, JSON marshal/decode of a
// single request/response pair, no retry of its own since the Gateway
// already retries around Complete).
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// New creates a Client posting to endpoint using model for every call.
func New(endpoint, model string) *Client {
	return &Client{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Complete implements llm.CompletionClient.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &llm.Error{Kind: llm.Transient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &llm.Error{Kind: llm.Transient, Err: fmt.Errorf("completion request failed (status %d): %s", resp.StatusCode, string(respBody))}
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if result.Error != "" {
		return "", &llm.Error{Kind: llm.Transient, Err: fmt.Errorf("%s", result.Error)}
	}

	return result.Response, nil
}
