package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer key, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		if !req.Stream {
			t.Error("expected stream true")
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system + user message, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "nursing assistant") {
			t.Errorf("expected nursing system prompt first, got %+v", req.Messages[0])
		}
		if req.Messages[1].Content != "hello" {
			t.Errorf("unexpected user message %+v", req.Messages[1])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: [DONE]\n")
	}))
	defer server.Close()

	c := NewClient("test-key", "test-model", nil)
	c.SetTestTransport(server.URL)

	body, err := c.StreamCompletion(context.Background(), "nursing_assessment", []Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer body.Close()

	raw, _ := io.ReadAll(body)
	if string(raw) != "data: [DONE]\n" {
		t.Errorf("unexpected body %q", raw)
	}
}

func TestStreamCompletion_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"quota exhausted", http.StatusPaymentRequired, ErrQuotaExhausted},
		{"server error", http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, "nope")
			}))
			defer server.Close()

			c := NewClient("k", "m", nil)
			c.SetTestTransport(server.URL)

			_, err := c.StreamCompletion(context.Background(), "post_visit", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		category     string
		wantContains string
	}{
		{"post_visit", "how their recent visit went"},
		{"treatment_experience", "treatment and care"},
		{"service_quality", "facility and staff"},
		{"nursing_assessment", "introducing yourself as the nursing assistant"},
		{"unknown_thing", "how their recent visit went"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := SystemPrompt(tt.category)
			if !strings.Contains(got, tt.wantContains) {
				t.Errorf("prompt for %s missing %q", tt.category, tt.wantContains)
			}
		})
	}

	if !strings.Contains(SystemPrompt("nursing_assessment"), "[NURSING_ASSESSMENT]") {
		t.Error("nursing prompt must instruct the nursing completion block")
	}
	if !strings.Contains(SystemPrompt("post_visit"), "[FEEDBACK_SUMMARY]") {
		t.Error("feedback prompt must instruct the feedback completion block")
	}
}
