package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/carelinehq/careline/internal/gateway"
)

type chatRequest struct {
	Messages  []gateway.Message `json:"messages"`
	Category  string            `json:"category"`
	SessionID string            `json:"sessionId,omitempty"`
}

// relayChat forwards a conversation to the completion gateway and streams
// the raw event stream back to the caller unmodified.
func (s *Server) relayChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// An empty message list is the conversation opener: the assistant's
	// first turn comes from the system prompt alone.

	body, err := s.chat.StreamCompletion(r.Context(), req.Category, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again in a moment.")
		case errors.Is(err, gateway.ErrQuotaExhausted):
			writeError(w, http.StatusPaymentRequired, "AI credits exhausted. Please add credits to continue.")
		default:
			s.logger.Error("chat relay failed", "error", err, "session_id", req.SessionID)
			writeError(w, http.StatusInternalServerError, "Failed to get AI response")
		}
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("chat relay interrupted", "error", err, "session_id", req.SessionID)
			}
			return
		}
	}
}
