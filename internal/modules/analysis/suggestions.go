package analysis

import (
	"sort"
	"strings"

	"github.com/finboard/finboard/internal/domain"
)

// SuggestCharts derives ranked chart-type recommendations from the catalog's
// shape statistics. Each rule is independent and either silent or emits one
// suggestion with a fixed confidence; the result is sorted by descending
// confidence with rule order preserved on ties.
func SuggestCharts(metrics []domain.MetricInfo) []domain.ChartSuggestion {
	var suggestions []domain.ChartSuggestion

	var timeSeriesCount, scalarCount, groupedCount, embeddedCount int
	var hasChange, hasCorrelation bool

	for _, m := range metrics {
		if m.IsTimeGrouped && len(m.GroupingFields) == 0 {
			timeSeriesCount++
		}
		if len(m.GroupingFields) > 0 {
			groupedCount++
		}
		if m.Type == domain.MetricScalar {
			scalarCount++
		}
		if m.Type == domain.MetricEmbeddedMetrics || m.Type == domain.MetricDynamicKeyObject {
			embeddedCount++
		}

		nameLower := strings.ToLower(m.Name)
		if strings.Contains(nameLower, "change") || strings.Contains(nameLower, "delta") {
			hasChange = true
		}

		if (len(m.GroupingFields) > 0 && m.IsTimeGrouped) ||
			(m.Type == domain.MetricEmbeddedMetrics && len(m.GroupingFields) > 3) ||
			containsAny(nameLower, []string{"correlation", "pattern", "intensity", "density"}) {
			hasCorrelation = true
		}
	}

	if timeSeriesCount > 0 {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartLine,
			Confidence: 0.9,
			Reasoning:  "Perfect for showing trends over time",
		})
	}

	if scalarCount > 1 {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartBar,
			Confidence: 0.8,
			Reasoning:  "Great for comparing different metrics",
		})
	}

	if groupedCount > 0 {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartStackedBar,
			Confidence: 0.85,
			Reasoning:  "Shows composition and trends for grouped data",
		})
	}

	if embeddedCount > 0 {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartBar,
			Confidence: 0.75,
			Reasoning:  "Ideal for comparing metrics across different accounts or entities",
		})
	}

	if hasChange {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartWaterfall,
			Confidence: 0.7,
			Reasoning:  "Excellent for showing cumulative changes",
		})
	}

	if hasCorrelation {
		suggestions = append(suggestions, domain.ChartSuggestion{
			ChartType:  domain.ChartHeatmap,
			Confidence: 0.65,
			Reasoning:  "Perfect for visualizing patterns and intensity across multiple dimensions",
		})
	}

	// Stable: equal confidences keep rule-evaluation order
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return suggestions
}
