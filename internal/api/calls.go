package api

import (
	"encoding/json"
	"net/http"

	"github.com/carelinehq/careline/internal/voice"
)

type startCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	PatientName string `json:"patient_name,omitempty"`
	RoomNumber  string `json:"room_number,omitempty"`
	AssistantID string `json:"assistant_id"`
}

// startCall triggers an outbound voice check-in for a patient.
func (s *Server) startCall(w http.ResponseWriter, r *http.Request) {
	if s.dialer == nil {
		writeError(w, http.StatusServiceUnavailable, "voice calls not configured")
		return
	}

	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	callID, err := s.dialer.StartCall(r.Context(), voice.CallRequest{
		PhoneNumber: req.PhoneNumber,
		PatientName: req.PatientName,
		RoomNumber:  req.RoomNumber,
		AssistantID: req.AssistantID,
	})
	if err != nil {
		s.logger.Error("start call failed", "error", err, "phone", req.PhoneNumber)
		writeError(w, http.StatusBadGateway, "failed to start call")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "call_id": callID})
}
