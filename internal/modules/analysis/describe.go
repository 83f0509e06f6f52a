package analysis

import (
	"fmt"
	"strings"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/utils"
)

// describeMetric builds the human-readable description for one metric.
func describeMetric(key string, metricType domain.MetricType) string {
	words := utils.Humanize(key)

	switch metricType {
	case domain.MetricScalar:
		return "Total " + words
	case domain.MetricTimeSeries:
		return words + " over time"
	case domain.MetricGroupedSeries:
		return words + " broken down by category over time"
	case domain.MetricArray:
		return words + " data points"
	case domain.MetricDynamicKeyObject:
		return words + " breakdown by account/entity"
	case domain.MetricEmbeddedMetrics:
		return words + " with multiple metrics"
	default:
		return words
	}
}

// DescribeData summarizes the catalog as free text, used as context for the
// natural-language chart-spec translator.
func DescribeData(metrics []domain.MetricInfo, detectedYear string) string {
	var timeSeriesCount, groupedCount, scalarCount, embeddedCount int
	var currencyMetrics, percentageMetrics, countMetrics []string

	for _, m := range metrics {
		if m.IsTimeGrouped {
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

		switch m.ValueType {
		case domain.ValueCurrency:
			currencyMetrics = append(currencyMetrics, m.Name)
		case domain.ValuePercentage:
			percentageMetrics = append(percentageMetrics, m.Name)
		case domain.ValueCount:
			countMetrics = append(countMetrics, m.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This dataset contains %d metrics. ", len(metrics))

	if timeSeriesCount > 0 {
		fmt.Fprintf(&b, "There are %d time-series metrics that show trends over time. ", timeSeriesCount)
	}
	if groupedCount > 0 {
		fmt.Fprintf(&b, "There are %d grouped metrics that can be broken down by categories. ", groupedCount)
	}
	if scalarCount > 0 {
		fmt.Fprintf(&b, "There are %d summary/total metrics. ", scalarCount)
	}
	if embeddedCount > 0 {
		fmt.Fprintf(&b, "There are %d complex metrics with embedded sub-metrics or account-level breakdowns. ", embeddedCount)
	}

	if len(currencyMetrics) > 0 {
		fmt.Fprintf(&b, "Currency metrics include: %s. ", strings.Join(currencyMetrics, ", "))
	}
	if len(percentageMetrics) > 0 {
		fmt.Fprintf(&b, "Percentage metrics include: %s. ", strings.Join(percentageMetrics, ", "))
	}
	if len(countMetrics) > 0 {
		fmt.Fprintf(&b, "Count metrics include: %s. ", strings.Join(countMetrics, ", "))
	}

	if detectedYear != "" {
		fmt.Fprintf(&b, "Data appears to be from %s. Use %s for date ranges unless user specifies otherwise. ",
			detectedYear, detectedYear)
	}

	return b.String()
}

// DetectYear scans the document shallowly for the first dated record and
// returns its 4-digit year, or "" when no dates are found.
func DetectYear(doc *document.Node) string {
	return checkForDates(doc, 0)
}

func checkForDates(node *document.Node, depth int) string {
	if depth > 3 {
		return ""
	}

	switch node.Kind() {
	case document.Array:
		for i, item := range node.Items() {
			if i >= 3 {
				break
			}
			if item.IsObject() && item.Has("date") {
				if dateStr := item.Get("date").Str(); len(dateStr) >= 4 {
					return dateStr[:4]
				}
			}
		}
	case document.Object:
		// Grouped data keeps its dates in a sibling array
		if dates := node.Get("dates"); dates.IsArray() && dates.Len() > 0 {
			if dateStr := dates.First().Str(); len(dateStr) >= 4 {
				return dateStr[:4]
			}
		}

		for i, m := range node.Members() {
			if i >= 10 {
				break
			}
			if year := checkForDates(m.Value, depth+1); year != "" {
				return year
			}
		}
	}

	return ""
}
