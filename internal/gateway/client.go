// Package gateway talks to the hosted chat-completion endpoint. It asks
// for a streamed response and hands the raw event stream back to the
// caller; assembling it is the stream package's job.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const defaultAPIURL = "https://ai.gateway.lovable.dev/v1/chat/completions"

var (
	// ErrRateLimited maps the gateway's 429 responses.
	ErrRateLimited = errors.New("gateway: rate limit exceeded")
	// ErrQuotaExhausted maps the gateway's 402 responses.
	ErrQuotaExhausted = errors.New("gateway: credits exhausted")
)

// Message is one chat turn on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type Client struct {
	apiKey string
	model  string
	client *http.Client
	apiURL string
	logger *slog.Logger
}

func NewClient(apiKey, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		// No timeout: the body is a long-lived event stream. Callers
		// cancel via context.
		client: &http.Client{},
		apiURL: defaultAPIURL,
		logger: logger,
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(url string) {
	c.apiURL = url
}

// StreamCompletion prepends the category system prompt and requests a
// streamed completion. The caller owns closing the returned stream.
func (c *Client) StreamCompletion(ctx context.Context, category string, messages []Message) (io.ReadCloser, error) {
	all := make([]Message, 0, len(messages)+1)
	all = append(all, Message{Role: "system", Content: SystemPrompt(category)})
	all = append(all, messages...)

	body, err := json.Marshal(request{
		Model:    c.model,
		Messages: all,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway call: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case http.StatusPaymentRequired:
			return nil, ErrQuotaExhausted
		}
		c.logger.Error("gateway error", "status", resp.StatusCode, "body", string(raw))
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	return resp.Body, nil
}
