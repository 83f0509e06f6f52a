package metrics

import (
	"fmt"
	"strings"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/modules/analysis"
)

// sliceMetric dispatches on the descriptor's type and extracts a normalized
// chart-ready series from the document. Every branch resolves the dotted
// metric name via successive key lookups; missing paths yield empty results,
// never a failure.
func sliceMetric(doc *document.Node, metric *domain.MetricInfo, dateRange string) (*domain.ChartData, error) {
	switch metric.Type {
	case domain.MetricTimeSeries:
		return sliceTimeSeries(doc, metric, dateRange), nil
	case domain.MetricGroupedSeries:
		return sliceGroupedSeries(doc, metric, dateRange), nil
	case domain.MetricScalar:
		return sliceScalar(doc, metric), nil
	case domain.MetricDynamicKeyObject:
		return sliceDynamicKeyObject(doc, metric)
	case domain.MetricEmbeddedMetrics:
		return sliceEmbeddedMetrics(doc, metric), nil
	case domain.MetricArray:
		return sliceArray(doc, metric), nil
	default:
		return nil, &domain.UnsupportedMetricTypeError{Type: metric.Type}
	}
}

// resolvePath walks the dotted metric name against the document.
func resolvePath(doc *document.Node, path string) *document.Node {
	return doc.Lookup(strings.Split(path, ".")...)
}

func emptyChartData() *domain.ChartData {
	return &domain.ChartData{Dates: []string{}, Values: []domain.SeriesGroup{}}
}

// sliceTimeSeries filters a sequence of {date, value} records by the date
// predicate and emits one series labeled with the metric's description.
func sliceTimeSeries(doc *document.Node, metric *domain.MetricInfo, dateRange string) *domain.ChartData {
	raw := resolvePath(doc, metric.Name)
	if !raw.IsArray() {
		return emptyChartData()
	}

	return filterDatedRecords(raw, metric.Description, dateRange)
}

// filterDatedRecords applies the date predicate to {date, value} records.
// Records without a date are skipped.
func filterDatedRecords(records *document.Node, label, dateRange string) *domain.ChartData {
	dates := []string{}
	values := []float64{}

	for _, item := range records.Items() {
		date := item.Get("date").Str()
		if date == "" {
			continue
		}
		if !MatchesRange(dateRange, date) {
			continue
		}
		dates = append(dates, date)
		values = append(values, item.Get("value").FloatOr(0))
	}

	return &domain.ChartData{
		Dates:  dates,
		Values: []domain.SeriesGroup{{Label: label, Values: values}},
	}
}

// sliceGroupedSeries handles both the flat {dates, values} shape and nested
// dotted-path fields inside arrays of category rows.
func sliceGroupedSeries(doc *document.Node, metric *domain.MetricInfo, dateRange string) *domain.ChartData {
	raw := resolvePath(doc, metric.Name)
	if !raw.Get("dates").IsArray() || !raw.Get("values").IsArray() {
		if strings.Contains(metric.Name, ".") {
			return sliceNestedGroupedSeries(doc, metric, dateRange)
		}
		return emptyChartData()
	}

	dates := raw.Get("dates")
	seriesList := raw.Get("values")
	if dates.Len() == 0 || seriesList.Len() == 0 {
		return emptyChartData()
	}

	// Surviving indices under the date predicate
	var indices []int
	filteredDates := []string{}
	for i, date := range dates.Items() {
		if MatchesRange(dateRange, date.Str()) {
			indices = append(indices, i)
			filteredDates = append(filteredDates, date.Str())
		}
	}

	// Project every series onto the surviving indices, preserving order and labels
	groups := make([]domain.SeriesGroup, 0, seriesList.Len())
	for _, series := range seriesList.Items() {
		seriesValues := series.Get("values").Items()

		values := make([]float64, 0, len(indices))
		for _, idx := range indices {
			if idx < len(seriesValues) {
				values = append(values, seriesValues[idx].FloatOr(0))
			} else {
				values = append(values, 0)
			}
		}

		groups = append(groups, domain.SeriesGroup{
			Label:  series.Get("label").Str(),
			Values: values,
		})
	}

	return &domain.ChartData{Dates: filteredDates, Values: groups}
}

// sliceNestedGroupedSeries extracts one field from an array of category rows
// (name = container.field). Containers that actually hold {date, value}
// records with field "value" are ambiguous between "array of time points"
// and "array of category rows"; they are reclassified and sliced as a plain
// time series. True category rows are not date-filtered.
func sliceNestedGroupedSeries(doc *document.Node, metric *domain.MetricInfo, dateRange string) *domain.ChartData {
	lastDot := strings.LastIndex(metric.Name, ".")
	containerPath := metric.Name[:lastDot]
	field := metric.Name[lastDot+1:]

	container := resolvePath(doc, containerPath)
	if !container.IsArray() {
		return emptyChartData()
	}

	first := container.First()
	if field == "value" && first.Has("value") && first.Get("date").Str() != "" {
		return filterDatedRecords(container, metric.Description, dateRange)
	}

	categories := make([]string, 0, container.Len())
	values := make([]float64, 0, container.Len())
	for _, item := range container.Items() {
		categories = append(categories, analysis.ItemLabel(item))
		values = append(values, item.Get(field).FloatOr(0))
	}

	return &domain.ChartData{
		Dates:  categories,
		Values: []domain.SeriesGroup{{Label: metric.Description, Values: values}},
	}
}

// sliceScalar emits a single "Total" category with the resolved value.
func sliceScalar(doc *document.Node, metric *domain.MetricInfo) *domain.ChartData {
	value := resolvePath(doc, metric.Name).FloatOr(0)

	return &domain.ChartData{
		Dates: []string{"Total"},
		Values: []domain.SeriesGroup{
			{Label: metric.Description, Values: []float64{value}},
		},
	}
}

// sliceDynamicKeyObject extracts per-account values from an ID-keyed map.
// When the name denotes the container itself, the first numeric field of the
// first entry is auto-selected; a container without any numeric field is an
// unsupported metric.
func sliceDynamicKeyObject(doc *document.Node, metric *domain.MetricInfo) (*domain.ChartData, error) {
	raw := resolvePath(doc, metric.Name)
	if raw.IsObject() && raw.Len() > 0 {
		entries := raw.Members()

		field := firstNumericField(entries[0].Value)
		if field == "" {
			return nil, &domain.UnsupportedMetricTypeError{
				Type:   domain.MetricDynamicKeyObject,
				Reason: fmt.Sprintf("no numeric field to chart in %q", metric.Name),
			}
		}

		return dynamicKeyChart(entries, field, field+" by account"), nil
	}

	// name = container.field: the last segment addresses a field inside each entry
	lastDot := strings.LastIndex(metric.Name, ".")
	if lastDot < 0 {
		return emptyChartData(), nil
	}

	container := resolvePath(doc, metric.Name[:lastDot])
	if !container.IsObject() || container.Len() == 0 {
		return emptyChartData(), nil
	}

	return dynamicKeyChart(container.Members(), metric.Name[lastDot+1:], metric.Description), nil
}

func dynamicKeyChart(entries []document.Member, field, label string) *domain.ChartData {
	categories := make([]string, 0, len(entries))
	values := make([]float64, 0, len(entries))

	for _, entry := range entries {
		categories = append(categories, analysis.EntryLabel(entry.Key, entry.Value))
		values = append(values, entry.Value.Get(field).FloatOr(0))
	}

	return &domain.ChartData{
		Dates:  categories,
		Values: []domain.SeriesGroup{{Label: label, Values: values}},
	}
}

func firstNumericField(obj *document.Node) string {
	for _, m := range obj.Members() {
		if m.Value.IsNumber() {
			return m.Key
		}
	}
	return ""
}

// sliceEmbeddedMetrics emits one series per numeric field of the container's
// first item, with per-item category labels. Not date-filtered.
func sliceEmbeddedMetrics(doc *document.Node, metric *domain.MetricInfo) *domain.ChartData {
	raw := resolvePath(doc, metric.Name)
	if !raw.IsArray() || raw.Len() == 0 {
		return emptyChartData()
	}

	categories := make([]string, 0, raw.Len())
	for _, item := range raw.Items() {
		categories = append(categories, analysis.ItemLabel(item))
	}

	first := raw.First()
	var numericKeys []string
	for _, m := range first.Members() {
		if m.Value.IsNumber() && m.Key != "date" {
			numericKeys = append(numericKeys, m.Key)
		}
	}
	if len(numericKeys) == 0 {
		return emptyChartData()
	}

	groups := make([]domain.SeriesGroup, 0, len(numericKeys))
	for _, key := range numericKeys {
		values := make([]float64, 0, raw.Len())
		for _, item := range raw.Items() {
			values = append(values, item.Get(key).FloatOr(0))
		}
		groups = append(groups, domain.SeriesGroup{Label: key, Values: values})
	}

	return &domain.ChartData{Dates: categories, Values: groups}
}

// sliceArray emits positional categories for a sequence of scalars,
// coercing non-numeric entries to 0.
func sliceArray(doc *document.Node, metric *domain.MetricInfo) *domain.ChartData {
	raw := resolvePath(doc, metric.Name)
	if !raw.IsArray() || raw.Len() == 0 {
		return emptyChartData()
	}

	categories := make([]string, 0, raw.Len())
	values := make([]float64, 0, raw.Len())
	for i, item := range raw.Items() {
		categories = append(categories, fmt.Sprintf("Item %d", i+1))
		values = append(values, item.FloatOr(0))
	}

	return &domain.ChartData{
		Dates:  categories,
		Values: []domain.SeriesGroup{{Label: metric.Description, Values: values}},
	}
}
