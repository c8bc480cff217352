package store

import (
	"context"
	"fmt"
)

// DashboardStats aggregates what the staff dashboard renders: headline
// numbers, a 1-5 score histogram, and per-category volumes.
type DashboardStats struct {
	TotalSessions     int            `json:"total_sessions"`
	CompletedSessions int            `json:"completed_sessions"`
	AverageScore      float64        `json:"average_score"`
	LowScoreCount     int            `json:"low_score_count"`
	UrgentAssessments int            `json:"urgent_assessments"`
	ScoreDistribution [5]int         `json:"score_distribution"`
	ByCategory        map[string]int `json:"by_category"`
}

func (s *Store) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{ByCategory: make(map[string]int)}

	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'completed'),
		       coalesce(avg(satisfaction_score), 0),
		       count(*) FILTER (WHERE satisfaction_score <= 2),
		       count(*) FILTER (WHERE priority_level = 'urgent')
		FROM feedback_sessions`,
	).Scan(&stats.TotalSessions, &stats.CompletedSessions, &stats.AverageScore,
		&stats.LowScoreCount, &stats.UrgentAssessments)
	if err != nil {
		return nil, fmt.Errorf("session counts: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT satisfaction_score, count(*)
		FROM feedback_sessions
		WHERE satisfaction_score BETWEEN 1 AND 5
		GROUP BY satisfaction_score`)
	if err != nil {
		return nil, fmt.Errorf("score distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var score, count int
		if err := rows.Scan(&score, &count); err != nil {
			return nil, fmt.Errorf("scan score bucket: %w", err)
		}
		stats.ScoreDistribution[score-1] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := s.pool.Query(ctx, `
		SELECT category, count(*) FROM feedback_sessions GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var category string
		var count int
		if err := catRows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan category bucket: %w", err)
		}
		stats.ByCategory[category] = count
	}
	return stats, catRows.Err()
}
