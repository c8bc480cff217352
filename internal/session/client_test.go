package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStream_NotConfigured(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		token    string
	}{
		{"no endpoint", "", "tok"},
		{"no token", "http://example.com/chat", ""},
		{"neither", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChatClient(tt.endpoint, tt.token)
			_, err := c.Stream(context.Background(), nil, CategoryPostVisit, "")
			if !errors.Is(err, ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestStream_SendsWireBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Category != "nursing_assessment" {
			t.Errorf("expected nursing_assessment, got %q", req.Category)
		}
		if req.SessionID != "sess-1" {
			t.Errorf("expected sessionId sess-1, got %q", req.SessionID)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "I feel dizzy" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		io.WriteString(w, "data: [DONE]\n")
	}))
	defer server.Close()

	c := NewChatClient(server.URL, "tok")
	turns := []Turn{
		{Role: RoleAssistant, Content: "How are you feeling?"},
		{Role: RoleUser, Content: "I feel dizzy"},
	}
	body, err := c.Stream(context.Background(), turns, CategoryNursing, "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	raw, _ := io.ReadAll(body)
	if string(raw) != "data: [DONE]\n" {
		t.Errorf("unexpected stream body %q", raw)
	}
}

func TestStream_ErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded. Please try again in a moment."})
	}))
	defer server.Close()

	c := NewChatClient(server.URL, "tok")
	_, err := c.Stream(context.Background(), nil, CategoryPostVisit, "")
	if err == nil {
		t.Fatal("expected error for non-success status")
	}
	if got := err.Error(); got != "chat endpoint: Rate limit exceeded. Please try again in a moment." {
		t.Errorf("unexpected error message %q", got)
	}
}

func TestStream_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream timeout")
	}))
	defer server.Close()

	c := NewChatClient(server.URL, "tok")
	_, err := c.Stream(context.Background(), nil, CategoryPostVisit, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "chat endpoint returned 502" {
		t.Errorf("unexpected error message %q", got)
	}
}
