// Package alerts reacts to urgent nursing assessments by calling the
// on-call nurse line, so a distressed patient is never waiting on someone
// to check a dashboard.
package alerts

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/carelinehq/careline/internal/events"
	"github.com/carelinehq/careline/internal/stream"
	"github.com/carelinehq/careline/internal/voice"
)

// Dialer places outbound calls. Satisfied by *voice.Client.
type Dialer interface {
	StartCall(ctx context.Context, req voice.CallRequest) (string, error)
}

type Notifier struct {
	dialer       Dialer
	onCallNumber string
	assistantID  string
	logger       *slog.Logger
}

func NewNotifier(dialer Dialer, onCallNumber, assistantID string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		dialer:       dialer,
		onCallNumber: onCallNumber,
		assistantID:  assistantID,
		logger:       logger,
	}
}

// HandleAssessment is the bus handler for completed nursing assessments.
// Only urgent priorities trigger a call; everything else is left to the
// dashboard.
func (n *Notifier) HandleAssessment(subject string, data []byte) {
	var evt events.AssessmentCompleted
	if err := json.Unmarshal(data, &evt); err != nil {
		n.logger.Error("failed to parse assessment event", "subject", subject, "error", err)
		return
	}

	if evt.PriorityLevel != stream.PriorityUrgent {
		return
	}

	n.logger.Info("urgent assessment received",
		"session_id", evt.SessionID,
		"room", evt.RoomNumber,
		"mood", evt.MoodAssessment,
	)

	callID, err := n.dialer.StartCall(context.Background(), voice.CallRequest{
		PhoneNumber: n.onCallNumber,
		PatientName: evt.PatientName,
		RoomNumber:  evt.RoomNumber,
		AssistantID: n.assistantID,
	})
	if err != nil {
		n.logger.Error("failed to place on-call alert", "session_id", evt.SessionID, "error", err)
		return
	}
	n.logger.Info("on-call alert placed", "session_id", evt.SessionID, "call_id", callID)
}
