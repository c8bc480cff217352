// Package events publishes conversation outcomes on the message bus so
// downstream consumers (alerting, analytics) can react without polling
// the database.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects carrying conversation outcomes.
const (
	SubjectFeedbackCompleted   = "careline.feedback.completed"
	SubjectAssessmentCompleted = "careline.assessment.completed"
	SubjectAssessmentUrgent    = "careline.assessment.urgent"
)

// FeedbackCompleted is published when a satisfaction conversation ends
// with a structured outcome.
type FeedbackCompleted struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Score     int    `json:"score"`
	Summary   string `json:"summary"`
}

// AssessmentCompleted is published when a nursing check-in ends. Urgent
// assessments are additionally published on SubjectAssessmentUrgent.
type AssessmentCompleted struct {
	SessionID        string   `json:"session_id"`
	PatientName      string   `json:"patient_name"`
	RoomNumber       string   `json:"room_number"`
	ConditionSummary string   `json:"condition_summary"`
	MoodAssessment   string   `json:"mood_assessment"`
	ImmediateNeeds   []string `json:"immediate_needs"`
	PriorityLevel    string   `json:"priority_level"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
