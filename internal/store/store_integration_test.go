//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/carelinehq/careline/internal/stream"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_FeedbackSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, NewSession{Category: "post_visit"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil session id")
	}

	if err := s.AppendMessage(ctx, id, "assistant", "How was your visit?"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}
	if err := s.AppendMessage(ctx, id, "user", "It went well"); err != nil {
		t.Fatalf("AppendMessage failed: %v", err)
	}

	if err := s.CompleteFeedback(ctx, id, stream.FeedbackResult{Score: 4, Summary: "smooth visit"}); err != nil {
		t.Fatalf("CompleteFeedback failed: %v", err)
	}

	row, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if row.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", row.Status)
	}
	if row.SatisfactionScore == nil || *row.SatisfactionScore != 4 {
		t.Errorf("unexpected score %v", row.SatisfactionScore)
	}
	if row.CompletedAt == nil {
		t.Error("expected completed_at set")
	}

	msgs, err := s.Messages(ctx, id)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "assistant" || msgs[1].Content != "It went well" {
		t.Errorf("unexpected transcript %+v", msgs)
	}
}

func TestIntegration_NursingSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, NewSession{
		Category:    "nursing_assessment",
		PatientName: "Integration Test",
		RoomNumber:  "204B",
		IsNursing:   true,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	na := stream.NursingAssessment{
		ConditionSummary: "mild discomfort",
		MoodAssessment:   "anxious",
		ImmediateNeeds:   []string{"extra blanket", "water"},
		PriorityLevel:    stream.PriorityMedium,
	}
	if err := s.CompleteNursing(ctx, id, na); err != nil {
		t.Fatalf("CompleteNursing failed: %v", err)
	}

	row, err := s.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !row.IsNursing {
		t.Error("expected nursing flag")
	}
	if row.PriorityLevel == nil || *row.PriorityLevel != stream.PriorityMedium {
		t.Errorf("unexpected priority %v", row.PriorityLevel)
	}
	if len(row.ImmediateNeeds) != 2 {
		t.Errorf("unexpected needs %v", row.ImmediateNeeds)
	}
}

func TestIntegration_ListAndStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, NewSession{Category: "service_quality"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := s.CompleteFeedback(ctx, id, stream.FeedbackResult{Score: 2, Summary: "long waits"}); err != nil {
		t.Fatalf("CompleteFeedback failed: %v", err)
	}

	rows, err := s.ListSessions(ctx, Filter{Category: "service_quality", Limit: 10})
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected at least one session")
	}

	stats, err := s.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats failed: %v", err)
	}
	if stats.TotalSessions == 0 {
		t.Error("expected non-zero total")
	}
	if stats.LowScoreCount == 0 {
		t.Error("expected low-score session counted")
	}
}

func TestIntegration_AbandonSession(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id, err := s.CreateSession(ctx, NewSession{Category: "post_visit"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := s.AbandonSession(ctx, id); err != nil {
		t.Fatalf("AbandonSession failed: %v", err)
	}
	// Abandoning twice finds no in-progress row.
	if err := s.AbandonSession(ctx, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
