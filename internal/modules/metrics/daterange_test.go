package metrics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestParseDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expr      string
		wantStart string
		wantEnd   string
	}{
		{
			name:      "empty defaults to trailing week",
			expr:      "",
			wantStart: "2024-06-09T10:30:00.000Z",
			wantEnd:   "2024-06-15T10:30:00.000Z",
		},
		{
			name:      "full year",
			expr:      "2024",
			wantStart: "2024-01-01T00:00:00.000Z",
			wantEnd:   "2024-12-31T23:59:59.999Z",
		},
		{
			name:      "leap february",
			expr:      "2024-02",
			wantStart: "2024-02-01T00:00:00.000Z",
			wantEnd:   "2024-02-29T23:59:59.999Z",
		},
		{
			name:      "non-leap february",
			expr:      "2023-02",
			wantStart: "2023-02-01T00:00:00.000Z",
			wantEnd:   "2023-02-28T23:59:59.999Z",
		},
		{
			name:      "december does not roll into next year",
			expr:      "2024-12",
			wantStart: "2024-12-01T00:00:00.000Z",
			wantEnd:   "2024-12-31T23:59:59.999Z",
		},
		{
			name:      "single day",
			expr:      "2024-03-15",
			wantStart: "2024-03-15T00:00:00.000Z",
			wantEnd:   "2024-03-15T23:59:59.999Z",
		},
		{
			name:      "custom range with date-only halves",
			expr:      "2024-01-01,2024-03-31",
			wantStart: "2024-01-01T00:00:00.000Z",
			wantEnd:   "2024-03-31T23:59:59.999Z",
		},
		{
			name:      "custom range with full timestamps kept verbatim",
			expr:      "2024-01-01T08:00:00.000Z,2024-01-02T17:30:00.000Z",
			wantStart: "2024-01-01T08:00:00.000Z",
			wantEnd:   "2024-01-02T17:30:00.000Z",
		},
		{
			name:      "unrecognized falls back to trailing week",
			expr:      "last quarter",
			wantStart: "2024-06-09T10:30:00.000Z",
			wantEnd:   "2024-06-15T10:30:00.000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := ParseDateRange(tt.expr, now, testLogger())
			assert.Equal(t, tt.wantStart, window.Start)
			assert.Equal(t, tt.wantEnd, window.End)
		})
	}
}

func TestIsValidDateRange(t *testing.T) {
	valid := []string{"2024", "2024-02", "2024-03-15", "2024-01-01T00:00:00.000Z,2024-03-31T23:59:59.999Z"}
	for _, expr := range valid {
		assert.True(t, isValidDateRange(expr), "expected %q to be valid", expr)
	}

	invalid := []string{"", "last quarter", "24", "2024-1", "2024/02", "2024-01-01,2024-03-31"}
	for _, expr := range invalid {
		assert.False(t, isValidDateRange(expr), "expected %q to be invalid", expr)
	}
}

func TestMatchesRange(t *testing.T) {
	tests := []struct {
		name string
		expr string
		date string
		want bool
	}{
		{"empty expression matches everything", "", "2024-03-15", true},
		{"empty date never matches", "2024", "", false},
		{"year prefix match", "2024", "2024-07-01", true},
		{"year prefix mismatch", "2024", "2023-07-01", false},
		{"month prefix match", "2024-03", "2024-03-31", true},
		{"month prefix mismatch", "2024-03", "2024-04-01", false},
		{"custom range inclusive start", "2024-01-01T00:00:00.000Z,2024-03-31T23:59:59.999Z", "2024-01-01", true},
		{"custom range inclusive end", "2024-01-01T00:00:00.000Z,2024-03-31T23:59:59.999Z", "2024-03-31", true},
		{"custom range outside", "2024-01-01T00:00:00.000Z,2024-03-31T23:59:59.999Z", "2024-04-01", false},
		{"custom range with timestamped date", "2024-01-01T00:00:00.000Z,2024-03-31T23:59:59.999Z", "2024-02-10T12:00:00.000Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesRange(tt.expr, tt.date))
		})
	}
}
