package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelinehq/careline/internal/events"
	"github.com/carelinehq/careline/internal/session"
	"github.com/carelinehq/careline/internal/store"
	"github.com/carelinehq/careline/internal/stream"
)

type createSessionRequest struct {
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	Category    string     `json:"category"`
	PatientName string     `json:"patient_name,omitempty"`
	RoomNumber  string     `json:"room_number,omitempty"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cat := session.Category(req.Category)
	if !cat.Valid() {
		writeError(w, http.StatusBadRequest, "unknown category: "+req.Category)
		return
	}

	id, err := s.store.CreateSession(r.Context(), store.NewSession{
		UserID:      req.UserID,
		Category:    req.Category,
		PatientName: req.PatientName,
		RoomNumber:  req.RoomNumber,
		IsNursing:   cat == session.CategoryNursing,
	})
	if err != nil {
		s.logger.Error("create session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

type appendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Server) appendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req appendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != string(session.RoleUser) && req.Role != string(session.RoleAssistant) {
		writeError(w, http.StatusBadRequest, "role must be user or assistant")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := s.store.AppendMessage(r.Context(), id, req.Role, req.Content); err != nil {
		s.logger.Error("append message failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to record message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeSessionRequest struct {
	Feedback *stream.FeedbackResult    `json:"feedback,omitempty"`
	Nursing  *stream.NursingAssessment `json:"nursing,omitempty"`
}

// completeSession finalizes a session with the structured outcome the
// client extracted from the conversation, then publishes it on the bus.
func (s *Server) completeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.Feedback == nil) == (req.Nursing == nil) {
		writeError(w, http.StatusBadRequest, "exactly one of feedback or nursing is required")
		return
	}

	var err error
	if req.Feedback != nil {
		err = s.store.CompleteFeedback(r.Context(), id, *req.Feedback)
	} else {
		err = s.store.CompleteNursing(r.Context(), id, *req.Nursing)
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("complete session failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to complete session")
		return
	}

	s.publishOutcome(r, id, req)
	w.WriteHeader(http.StatusNoContent)
}

// publishOutcome emits the completion event. Bus failures are logged,
// never surfaced: the session is already completed in the database.
func (s *Server) publishOutcome(r *http.Request, id uuid.UUID, req completeSessionRequest) {
	if s.bus == nil {
		return
	}

	if req.Feedback != nil {
		row, err := s.store.GetSession(r.Context(), id)
		if err != nil {
			s.logger.Warn("outcome lookup failed", "error", err, "session_id", id)
			return
		}
		evt := events.FeedbackCompleted{
			SessionID: id.String(),
			Category:  row.Category,
			Score:     req.Feedback.Score,
			Summary:   req.Feedback.Summary,
		}
		if err := s.bus.Publish(events.SubjectFeedbackCompleted, evt); err != nil {
			s.logger.Warn("publish failed", "error", err, "subject", events.SubjectFeedbackCompleted)
		}
		return
	}

	row, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		s.logger.Warn("outcome lookup failed", "error", err, "session_id", id)
		return
	}
	evt := events.AssessmentCompleted{
		SessionID:        id.String(),
		ConditionSummary: req.Nursing.ConditionSummary,
		MoodAssessment:   req.Nursing.MoodAssessment,
		ImmediateNeeds:   req.Nursing.ImmediateNeeds,
		PriorityLevel:    req.Nursing.PriorityLevel,
	}
	if row.PatientName != nil {
		evt.PatientName = *row.PatientName
	}
	if row.RoomNumber != nil {
		evt.RoomNumber = *row.RoomNumber
	}
	if err := s.bus.Publish(events.SubjectAssessmentCompleted, evt); err != nil {
		s.logger.Warn("publish failed", "error", err, "subject", events.SubjectAssessmentCompleted)
	}
	if req.Nursing.PriorityLevel == stream.PriorityUrgent {
		if err := s.bus.Publish(events.SubjectAssessmentUrgent, evt); err != nil {
			s.logger.Warn("publish failed", "error", err, "subject", events.SubjectAssessmentUrgent)
		}
	}
}

func (s *Server) abandonSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	err := s.store.AbandonSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("abandon session failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to abandon session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	row, err := s.store.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.logger.Error("get session failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{
		Category: r.URL.Query().Get("category"),
		Status:   r.URL.Query().Get("status"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	rows, err := s.store.ListSessions(r.Context(), f)
	if err != nil {
		s.logger.Error("list sessions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": rows})
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	rows, err := s.store.Messages(r.Context(), id)
	if err != nil {
		s.logger.Error("list messages failed", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": rows})
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
