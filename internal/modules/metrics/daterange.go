package metrics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Accepted date-range formats at the slicing boundary.
var (
	yearOrMonthPattern = regexp.MustCompile(`^\d{4}(-\d{2})?$`)
	dayPattern         = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoRangePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T.*,\d{4}-\d{2}-\d{2}T.*$`)
)

// DateWindow is a canonical (start, end) instant pair in ISO form, used both
// for the upstream fetch request and for local record filtering so the two
// always agree on the selected window.
type DateWindow struct {
	Start string
	End   string
}

// ParseDateRange normalizes a date-range expression into a DateWindow.
// Supported forms, tried in order: empty (trailing 7-day window ending at
// now), "isoStart,isoEnd", "YYYY-MM-DD", "YYYY", and "YYYY-MM". Anything
// else logs a warning and falls back to the trailing 7-day window.
// now is injected so default-window computation stays deterministic in tests.
func ParseDateRange(expr string, now time.Time, log zerolog.Logger) DateWindow {
	if expr == "" {
		return trailingWeekWindow(now)
	}

	// Custom ranges: "startISO,endISO" or "YYYY-MM-DD,YYYY-MM-DD"
	if strings.Contains(expr, ",") {
		parts := strings.SplitN(expr, ",", 2)
		start, end := parts[0], parts[1]

		if strings.Contains(start, "T") && strings.Contains(end, "T") {
			return DateWindow{Start: start, End: end}
		}
		return DateWindow{
			Start: start + "T00:00:00.000Z",
			End:   end + "T23:59:59.999Z",
		}
	}

	// Single day (YYYY-MM-DD)
	if len(expr) == 10 && strings.Count(expr, "-") == 2 {
		return DateWindow{
			Start: expr + "T00:00:00.000Z",
			End:   expr + "T23:59:59.999Z",
		}
	}

	// Full year (YYYY)
	if len(expr) == 4 && isDigits(expr) {
		return DateWindow{
			Start: expr + "-01-01T00:00:00.000Z",
			End:   expr + "-12-31T23:59:59.999Z",
		}
	}

	// Calendar month (YYYY-MM)
	if len(expr) == 7 && strings.Count(expr, "-") == 1 {
		if window, ok := monthWindow(expr); ok {
			return window
		}
	}

	log.Warn().Str("date_range", expr).Msg("Unrecognized date range format, using default week range")
	return trailingWeekWindow(now)
}

// monthWindow computes the first and last calendar day of a month, rolling
// December over into January of the next year.
func monthWindow(expr string) (DateWindow, bool) {
	parts := strings.SplitN(expr, "-", 2)

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return DateWindow{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return DateWindow{}, false
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)

	return DateWindow{
		Start: start.Format("2006-01-02") + "T00:00:00.000Z",
		End:   end.Format("2006-01-02") + "T23:59:59.999Z",
	}, true
}

func trailingWeekWindow(now time.Time) DateWindow {
	const layout = "2006-01-02T15:04:05.000Z"
	utc := now.UTC()
	return DateWindow{
		Start: utc.AddDate(0, 0, -6).Format(layout),
		End:   utc.Format(layout),
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isValidDateRange reports whether expr is one of the accepted slicing
// formats: YYYY, YYYY-MM, YYYY-MM-DD, or isoStart,isoEnd.
func isValidDateRange(expr string) bool {
	return yearOrMonthPattern.MatchString(expr) ||
		dayPattern.MatchString(expr) ||
		isoRangePattern.MatchString(expr)
}

// MatchesRange is the per-record predicate paired with ParseDateRange: it
// reports whether a record's date falls inside the window expr selects.
// Custom ranges compare the date-only portion of both sides lexicographically,
// inclusive; single days, months, and years are prefix checks. An empty expr
// matches everything.
func MatchesRange(expr, date string) bool {
	if expr == "" {
		return true
	}
	if date == "" {
		return false
	}

	if strings.Contains(expr, ",") {
		parts := strings.SplitN(expr, ",", 2)
		start := dateOnly(parts[0])
		end := dateOnly(parts[1])
		d := dateOnly(date)
		return start <= d && d <= end
	}

	// YYYY-MM-DD, YYYY-MM, and YYYY are all prefix checks
	return strings.HasPrefix(date, expr)
}

// dateOnly strips any time component, keeping the YYYY-MM-DD part.
func dateOnly(s string) string {
	if i := strings.Index(s, "T"); i >= 0 {
		return s[:i]
	}
	return s
}
