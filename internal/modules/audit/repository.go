// Package audit records chart generation requests and user feedback for
// compliance and debugging. Records are append-only.
package audit

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Generation is one recorded chart generation request.
type Generation struct {
	RequestID  string `json:"requestId"`
	CreatedAt  int64  `json:"createdAt"`
	Prompt     string `json:"prompt"`
	ChartType  string `json:"chartType"`
	Metric     string `json:"metric"`
	DateRange  string `json:"dateRange"`
	GroupBy    string `json:"groupBy,omitempty"`
	DataPoints int    `json:"dataPoints"`
	DurationMs int64  `json:"durationMs"`
}

// Feedback is a user rating attached to a recorded generation.
type Feedback struct {
	RequestID string `json:"requestId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	ChartID   string `json:"chartId,omitempty"`
}

// Stats aggregates generation and feedback history.
type Stats struct {
	TotalRequests       int            `json:"totalRequests"`
	TodayRequests       int            `json:"todayRequests"`
	ChartTypeBreakdown  map[string]int `json:"chartTypeBreakdown"`
	AverageResponseTime float64        `json:"averageResponseTime"`
	TotalFeedback       int            `json:"totalFeedback"`
	AverageRating       float64        `json:"averageRating"`
	RatingDistribution  map[int]int    `json:"ratingDistribution"`
}

// Repository handles audit persistence in audit.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new audit repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "audit").Logger(),
	}
}

// RecordGeneration inserts a chart generation record and returns its request
// ID, generating one when the record carries none.
func (r *Repository) RecordGeneration(g *Generation) (string, error) {
	if g.RequestID == "" {
		g.RequestID = uuid.NewString()
	}
	if g.CreatedAt == 0 {
		g.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO chart_generations (
			request_id, created_at, prompt, chart_type, metric,
			date_range, group_by, data_points, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(
		query,
		g.RequestID,
		g.CreatedAt,
		g.Prompt,
		g.ChartType,
		g.Metric,
		g.DateRange,
		g.GroupBy,
		g.DataPoints,
		g.DurationMs,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record chart generation: %w", err)
	}

	r.log.Debug().
		Str("request_id", g.RequestID).
		Str("chart_type", g.ChartType).
		Str("metric", g.Metric).
		Msg("Recorded chart generation")

	return g.RequestID, nil
}

// RecordFeedback inserts a feedback record. Ratings are clamped to the 1-5
// scale at the API boundary; this double-checks so bad data can never enter
// the trail.
func (r *Repository) RecordFeedback(f *Feedback) error {
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", f.Rating)
	}
	if f.RequestID == "" {
		return fmt.Errorf("feedback requires a request ID")
	}

	query := `
		INSERT INTO feedback (request_id, created_at, rating, comment, chart_id)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, f.RequestID, time.Now().Unix(), f.Rating, f.Comment, f.ChartID)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	r.log.Debug().
		Str("request_id", f.RequestID).
		Int("rating", f.Rating).
		Msg("Recorded feedback")

	return nil
}

// Stats aggregates the full audit trail.
func (r *Repository) Stats() (*Stats, error) {
	stats := &Stats{
		ChartTypeBreakdown: make(map[string]int),
		RatingDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	startOfDay := time.Now().Truncate(24 * time.Hour).Unix()

	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(NULLIF(duration_ms, 0)), 0)
		FROM chart_generations
	`, startOfDay).Scan(&stats.TotalRequests, &stats.TodayRequests, &stats.AverageResponseTime)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chart generations: %w", err)
	}

	rows, err := r.db.Query(`SELECT chart_type, COUNT(*) FROM chart_generations GROUP BY chart_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chart types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chartType string
		var count int
		if err := rows.Scan(&chartType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan chart type row: %w", err)
		}
		stats.ChartTypeBreakdown[chartType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chart type rows: %w", err)
	}

	ratingRows, err := r.db.Query(`SELECT rating, COUNT(*) FROM feedback GROUP BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}
	defer ratingRows.Close()

	ratingSum := 0
	for ratingRows.Next() {
		var rating, count int
		if err := ratingRows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		stats.RatingDistribution[rating] = count
		stats.TotalFeedback += count
		ratingSum += rating * count
	}
	if err := ratingRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating rows: %w", err)
	}

	if stats.TotalFeedback > 0 {
		stats.AverageRating = float64(ratingSum) / float64(stats.TotalFeedback)
	}

	return stats, nil
}

// Recent returns the most recent generations, newest first.
func (r *Repository) Recent(limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT request_id, created_at, prompt, chart_type, metric,
		       date_range, COALESCE(group_by, ''), data_points, duration_ms
		FROM chart_generations
		ORDER BY created_at DESC, request_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent generations: %w", err)
	}
	defer rows.Close()

	var generations []Generation
	for rows.Next() {
		var g Generation
		err := rows.Scan(
			&g.RequestID,
			&g.CreatedAt,
			&g.Prompt,
			&g.ChartType,
			&g.Metric,
			&g.DateRange,
			&g.GroupBy,
			&g.DataPoints,
			&g.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}
		generations = append(generations, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generation rows: %w", err)
	}

	return generations, nil
}
