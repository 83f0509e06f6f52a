package dashboard

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/finboard/finboard/internal/domain"
)

// Relative spread above which a series counts as volatile.
const volatilityThreshold = 0.5

// buildInsights derives up to three short observations about the generated
// charts: composition notes plus trend and volatility read from the data.
func buildInsights(charts []Chart) []string {
	var insights []string

	if len(charts) > 3 {
		insights = append(insights,
			fmt.Sprintf("Generated %d related charts for comprehensive analysis", len(charts)))
	}

	types := make(map[domain.ChartType]bool, len(charts))
	for _, c := range charts {
		types[c.ChartType] = true
	}
	if len(types) > 2 {
		insights = append(insights, "Multiple visualization types used for different data perspectives")
	}

	hasTrends := types[domain.ChartLine]
	hasComparison := types[domain.ChartBar] || types[domain.ChartStackedBar]
	if hasTrends && hasComparison {
		insights = append(insights, "Dashboard includes both trend analysis and comparative metrics")
	}

	for _, c := range charts {
		if insight := seriesInsight(c); insight != "" {
			insights = append(insights, insight)
			break
		}
	}

	if len(insights) > maxInsights {
		insights = insights[:maxInsights]
	}
	return insights
}

// seriesInsight fits a least-squares line through the chart's first series
// and reports a clear direction or unusual volatility, if either is present.
func seriesInsight(c Chart) string {
	if c.ChartType != domain.ChartLine || c.Data == nil || len(c.Data.Values) == 0 {
		return ""
	}

	values := c.Data.Values[0].Values
	if len(values) < 3 {
		return ""
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	_, slope := stat.LinearRegression(xs, values, nil, false)
	mean, std := stat.MeanStdDev(values, nil)

	if mean != 0 && std/abs(mean) > volatilityThreshold {
		return fmt.Sprintf("%s shows high volatility across the selected period", c.Title)
	}

	switch {
	case slope > 0:
		return fmt.Sprintf("%s is trending upward over the selected period", c.Title)
	case slope < 0:
		return fmt.Sprintf("%s is trending downward over the selected period", c.Title)
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
