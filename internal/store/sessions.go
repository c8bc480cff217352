package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/carelinehq/careline/internal/stream"
)

// Session statuses. A session starts in_progress and moves to completed
// when a structured outcome is recorded, or abandoned when the patient
// walks away.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

var ErrNotFound = errors.New("store: not found")

// NewSession carries the fields known when a conversation begins.
type NewSession struct {
	UserID      *uuid.UUID
	Category    string
	PatientName string
	RoomNumber  string
	IsNursing   bool
}

// SessionRow mirrors one feedback_sessions record.
type SessionRow struct {
	ID                uuid.UUID  `json:"id"`
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	Category          string     `json:"category"`
	Status            string     `json:"status"`
	PatientName       *string    `json:"patient_name,omitempty"`
	RoomNumber        *string    `json:"room_number,omitempty"`
	IsNursing         bool       `json:"is_nursing_assessment"`
	SatisfactionScore *int       `json:"satisfaction_score,omitempty"`
	Summary           *string    `json:"summary,omitempty"`
	ConditionSummary  *string    `json:"condition_summary,omitempty"`
	MoodAssessment    *string    `json:"mood_assessment,omitempty"`
	ImmediateNeeds    []string   `json:"immediate_needs,omitempty"`
	PriorityLevel     *string    `json:"priority_level,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// MessageRow mirrors one feedback_messages record.
type MessageRow struct {
	ID        int64     `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const sessionColumns = `id, user_id, category, status, patient_name, room_number,
	is_nursing_assessment, satisfaction_score, summary, condition_summary,
	mood_assessment, immediate_needs, priority_level, created_at, completed_at`

// CreateSession inserts an in-progress session and returns its id.
func (s *Store) CreateSession(ctx context.Context, ns NewSession) (uuid.UUID, error) {
	id := uuid.New()
	var patientName, roomNumber *string
	if ns.PatientName != "" {
		patientName = &ns.PatientName
	}
	if ns.RoomNumber != "" {
		roomNumber = &ns.RoomNumber
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_sessions (id, user_id, category, status, patient_name, room_number, is_nursing_assessment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		id, ns.UserID, ns.Category, StatusInProgress, patientName, roomNumber, ns.IsNursing,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// AppendMessage records one turn of a session's transcript.
func (s *Store) AppendMessage(ctx context.Context, sessionID uuid.UUID, role, content string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback_messages (session_id, role, content, created_at)
		VALUES ($1, $2, $3, now())`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// CompleteFeedback records a satisfaction outcome and closes the session.
func (s *Store) CompleteFeedback(ctx context.Context, sessionID uuid.UUID, fr stream.FeedbackResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback_sessions
		SET satisfaction_score = $1, summary = $2, status = $3, completed_at = now()
		WHERE id = $4`,
		fr.Score, fr.Summary, StatusCompleted, sessionID,
	)
	if err != nil {
		return fmt.Errorf("complete feedback session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteNursing records a nursing assessment and closes the session.
func (s *Store) CompleteNursing(ctx context.Context, sessionID uuid.UUID, na stream.NursingAssessment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback_sessions
		SET condition_summary = $1, mood_assessment = $2, immediate_needs = $3,
		    priority_level = $4, status = $5, completed_at = now()
		WHERE id = $6`,
		na.ConditionSummary, na.MoodAssessment, na.ImmediateNeeds, na.PriorityLevel, StatusCompleted, sessionID,
	)
	if err != nil {
		return fmt.Errorf("complete nursing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AbandonSession marks a session the patient walked away from.
func (s *Store) AbandonSession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback_sessions SET status = $1 WHERE id = $2 AND status = $3`,
		StatusAbandoned, sessionID, StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSession fetches one session by id.
func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*SessionRow, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM feedback_sessions WHERE id = $1`, id)
	sr, err := scanSession(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sr, nil
}

// Filter narrows ListSessions. Zero values mean no constraint.
type Filter struct {
	Category string
	Status   string
	Limit    int
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context, f Filter) ([]SessionRow, error) {
	q := `SELECT ` + sessionColumns + ` FROM feedback_sessions WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRow
	for rows.Next() {
		sr, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

// Messages returns a session's transcript in conversation order.
func (s *Store) Messages(ctx context.Context, sessionID uuid.UUID) ([]MessageRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, created_at
		FROM feedback_messages WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanSession(row pgx.Row) (*SessionRow, error) {
	var sr SessionRow
	err := row.Scan(
		&sr.ID, &sr.UserID, &sr.Category, &sr.Status, &sr.PatientName, &sr.RoomNumber,
		&sr.IsNursing, &sr.SatisfactionScore, &sr.Summary, &sr.ConditionSummary,
		&sr.MoodAssessment, &sr.ImmediateNeeds, &sr.PriorityLevel, &sr.CreatedAt, &sr.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
