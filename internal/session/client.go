package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatRequest is the wire body sent to the chat endpoint.
type ChatRequest struct {
	Messages  []Turn `json:"messages"`
	Category  string `json:"category"`
	SessionID string `json:"sessionId,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// ChatClient posts a conversation to the chat endpoint and hands back the
// response stream. The endpoint answers with a text/event-stream body on
// success or a JSON {"error": ...} body on failure.
type ChatClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewChatClient(endpoint, token string) *ChatClient {
	// No client timeout: stream reads wait indefinitely for the next
	// chunk. Callers bound the request with the context instead.
	return &ChatClient{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{},
	}
}

// Stream sends the turn history and returns the raw event stream. The
// caller owns closing the returned body.
func (c *ChatClient) Stream(ctx context.Context, turns []Turn, category Category, sessionID string) (io.ReadCloser, error) {
	if c.endpoint == "" || c.token == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(ChatRequest{
		Messages:  turns,
		Category:  string(category),
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("chat endpoint: %s", eb.Error)
		}
		return nil, fmt.Errorf("chat endpoint returned %d", resp.StatusCode)
	}

	return resp.Body, nil
}
