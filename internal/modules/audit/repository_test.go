package audit

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE chart_generations (
	request_id  TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	prompt      TEXT NOT NULL,
	chart_type  TEXT NOT NULL,
	metric      TEXT NOT NULL,
	date_range  TEXT NOT NULL,
	group_by    TEXT,
	data_points INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE feedback (
	request_id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	rating     INTEGER NOT NULL,
	comment    TEXT,
	chart_id   TEXT
);
`

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRecordGenerationAssignsRequestID(t *testing.T) {
	repo := setupTestRepo(t)

	id, err := repo.RecordGeneration(&Generation{
		Prompt:     "show sales trends",
		ChartType:  "line",
		Metric:     "totalSales",
		DateRange:  "2024",
		DataPoints: 12,
		DurationMs: 250,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// A caller-provided ID is kept
	id2, err := repo.RecordGeneration(&Generation{
		RequestID: "req-fixed",
		Prompt:    "compare channels",
		ChartType: "stacked-bar",
		Metric:    "salesByChannel",
		DateRange: "2024",
	})
	require.NoError(t, err)
	assert.Equal(t, "req-fixed", id2)
}

func TestRecordFeedbackValidation(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.RecordFeedback(&Feedback{RequestID: "req-1", Rating: 0})
	assert.Error(t, err)

	err = repo.RecordFeedback(&Feedback{RequestID: "req-1", Rating: 6})
	assert.Error(t, err)

	err = repo.RecordFeedback(&Feedback{Rating: 3})
	assert.Error(t, err)

	err = repo.RecordFeedback(&Feedback{RequestID: "req-1", Rating: 5, Comment: "great chart"})
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	repo := setupTestRepo(t)

	for _, g := range []*Generation{
		{Prompt: "a", ChartType: "line", Metric: "totalSales", DateRange: "2024", DurationMs: 100},
		{Prompt: "b", ChartType: "line", Metric: "totalSales", DateRange: "2024", DurationMs: 300},
		{Prompt: "c", ChartType: "bar", Metric: "orderCount", DateRange: "2024-06", DurationMs: 200},
	} {
		_, err := repo.RecordGeneration(g)
		require.NoError(t, err)
	}

	require.NoError(t, repo.RecordFeedback(&Feedback{RequestID: "r1", Rating: 5}))
	require.NoError(t, repo.RecordFeedback(&Feedback{RequestID: "r2", Rating: 3}))

	stats, err := repo.Stats()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 3, stats.TodayRequests)
	assert.Equal(t, map[string]int{"line": 2, "bar": 1}, stats.ChartTypeBreakdown)
	assert.InDelta(t, 200.0, stats.AverageResponseTime, 0.001)
	assert.Equal(t, 2, stats.TotalFeedback)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.001)
	assert.Equal(t, 1, stats.RatingDistribution[5])
	assert.Equal(t, 1, stats.RatingDistribution[3])
	assert.Equal(t, 0, stats.RatingDistribution[1])
}

func TestStatsEmpty(t *testing.T) {
	repo := setupTestRepo(t)

	stats, err := repo.Stats()
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalRequests)
	assert.Zero(t, stats.AverageResponseTime)
	assert.Zero(t, stats.AverageRating)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, stats.RatingDistribution)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	repo := setupTestRepo(t)

	now := time.Now().Unix()
	for i, g := range []*Generation{
		{RequestID: "old", Prompt: "a", ChartType: "line", Metric: "m", DateRange: "2024"},
		{RequestID: "mid", Prompt: "b", ChartType: "bar", Metric: "m", DateRange: "2024"},
		{RequestID: "new", Prompt: "c", ChartType: "line", Metric: "m", DateRange: "2024"},
	} {
		g.CreatedAt = now + int64(i)
		_, err := repo.RecordGeneration(g)
		require.NoError(t, err)
	}

	recent, err := repo.Recent(2)
	require.NoError(t, err)

	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].RequestID)
	assert.Equal(t, "mid", recent[1].RequestID)
}
