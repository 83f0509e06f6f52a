// Package analysis infers a metric catalog from arbitrarily-shaped upstream
// documents and derives chart recommendations from it. Classification never
// fails: shapes that fit no known pattern simply produce no catalog entry,
// since upstream documents are expected to contain unclassifiable noise.
package analysis

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/utils"
)

const (
	// maxDepth bounds the whole recursive walk.
	maxDepth = 10
	// maxRecursePathLen bounds how deep nested objects are entered. Independent
	// of maxDepth, which also covers extractor work at the leaves.
	maxRecursePathLen = 5
	// samplePreviewLen is how many values a sampleValue preview carries.
	samplePreviewLen = 3
)

// Service analyzes document structure and provides chart recommendations.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new analysis service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze walks the document and returns the metric catalog, ranked chart
// suggestions, a free-text description, and the detected data year.
// The result is immutable and safe to share across concurrent slicing calls.
func (s *Service) Analyze(doc *document.Node) *domain.DataAnalysis {
	defer utils.OperationTimer("analyze_document", s.log)()

	metrics := extractMetrics(doc, nil, 0)
	suggestions := SuggestCharts(metrics)
	year := DetectYear(doc)

	s.log.Debug().
		Int("metrics", len(metrics)).
		Int("suggestions", len(suggestions)).
		Str("detected_year", year).
		Msg("Document analyzed")

	return &domain.DataAnalysis{
		AvailableMetrics:    metrics,
		SuggestedChartTypes: suggestions,
		DataDescription:     DescribeData(metrics, year),
		TotalDataPoints:     len(metrics),
		DateRangeAvailable:  year,
	}
}

// extractMetrics is a pure fold over the document: it recursively collects
// metric descriptors in encounter order.
func extractMetrics(node *document.Node, path []string, depth int) []domain.MetricInfo {
	if depth > maxDepth || !node.IsObject() {
		return nil
	}

	var metrics []domain.MetricInfo

	for _, m := range node.Members() {
		currentPath := joinPath(path, m.Key)
		fullPath := appendPath(path, m.Key)

		// Classify the direct value at this level
		if metric := analyzeMetric(m.Key, m.Value, currentPath); metric != nil {
			metrics = append(metrics, *metric)
		}

		// Arrays of objects may carry embedded per-field metrics
		if m.Value.IsArray() && m.Value.Len() > 0 && m.Value.First().IsObject() {
			metrics = append(metrics, extractFromObjectArray(m.Value, currentPath)...)
		}

		// Objects keyed by opaque IDs (account maps and the like)
		if isDynamicKeyObject(m.Value) {
			metrics = append(metrics, extractFromDynamicKeyObject(m.Key, m.Value, currentPath)...)
		}

		if shouldRecurseInto(m.Value, fullPath) {
			metrics = append(metrics, extractMetrics(m.Value, fullPath, depth+1)...)
		}
	}

	return metrics
}

// analyzeMetric classifies a single (key, value) node. Returns nil when the
// node's shape is not directly classifiable.
func analyzeMetric(key string, value *document.Node, fullPath string) *domain.MetricInfo {
	switch value.Kind() {
	case document.Number:
		return &domain.MetricInfo{
			Name:           fullPath,
			Type:           domain.MetricScalar,
			Description:    describeMetric(key, domain.MetricScalar),
			SampleValue:    value.Interface(),
			ValueType:      DetectValueType(key, value),
			IsTimeGrouped:  false,
			GroupingFields: []string{},
		}
	case document.Array:
		return analyzeArrayMetric(key, value, fullPath)
	case document.Object:
		return analyzeObjectMetric(key, value, fullPath)
	default:
		return nil
	}
}

// analyzeArrayMetric classifies sequence values: date/value records become a
// time series, scalar sequences become a plain array metric, and object
// sequences are left to the embedded-metrics extractor.
func analyzeArrayMetric(key string, value *document.Node, fullPath string) *domain.MetricInfo {
	first := value.First()
	if first == nil {
		return nil
	}

	if first.IsObject() && first.Has("date") && first.Has("value") {
		return &domain.MetricInfo{
			Name:           fullPath,
			Type:           domain.MetricTimeSeries,
			Description:    describeMetric(key, domain.MetricTimeSeries),
			SampleValue:    fieldPreview(value, "value"),
			ValueType:      DetectValueType(key, first.Get("value")),
			IsTimeGrouped:  true,
			GroupingFields: []string{},
		}
	}

	// Arrays of objects are handled by extractFromObjectArray
	if first.IsObject() {
		return nil
	}

	return &domain.MetricInfo{
		Name:           fullPath,
		Type:           domain.MetricArray,
		Description:    describeMetric(key, domain.MetricArray),
		SampleValue:    itemPreview(value),
		ValueType:      domain.ValueGeneric,
		IsTimeGrouped:  false,
		GroupingFields: []string{},
	}
}

// analyzeObjectMetric recognizes the {dates, values} grouped-series shape.
// Other objects yield nothing here; recursion or the extractors handle them.
func analyzeObjectMetric(key string, value *document.Node, fullPath string) *domain.MetricInfo {
	if !isGroupedSeriesShape(value) {
		return nil
	}

	seriesList := value.Get("values")

	groupingFields := make([]string, 0, seriesList.Len())
	for _, series := range seriesList.Items() {
		groupingFields = append(groupingFields, series.Get("label").Str())
	}

	firstSeries := seriesList.First()
	sample := itemPreview(firstSeries.Get("values"))

	var firstSample *document.Node
	if values := firstSeries.Get("values"); values != nil {
		firstSample = values.First()
	}

	return &domain.MetricInfo{
		Name:           fullPath,
		Type:           domain.MetricGroupedSeries,
		Description:    describeMetric(key, domain.MetricGroupedSeries),
		SampleValue:    sample,
		ValueType:      DetectValueType(key, firstSample),
		IsTimeGrouped:  true,
		GroupingFields: groupingFields,
	}
}

// extractFromObjectArray emits a container descriptor plus one groupedSeries
// descriptor per numeric field of the array's first element.
func extractFromObjectArray(array *document.Node, basePath string) []domain.MetricInfo {
	first := array.First()
	if first == nil {
		return nil
	}

	numericKeys := numericFieldKeys(first, "date")
	if len(numericKeys) == 0 {
		return nil
	}

	groupingDimensions := make([]string, 0, array.Len())
	for _, item := range array.Items() {
		groupingDimensions = append(groupingDimensions, ItemLabel(item))
	}

	metrics := make([]domain.MetricInfo, 0, len(numericKeys)+1)

	metrics = append(metrics, domain.MetricInfo{
		Name: basePath,
		Type: domain.MetricEmbeddedMetrics,
		Description: fmt.Sprintf("%s containing %d metrics",
			describeMetric(basePath, domain.MetricEmbeddedMetrics), len(numericKeys)),
		SampleValue:    numericKeys,
		ValueType:      domain.ValueGeneric,
		IsTimeGrouped:  false,
		GroupingFields: groupingDimensions,
	})

	for _, key := range numericKeys {
		metrics = append(metrics, domain.MetricInfo{
			Name: basePath + "." + key,
			Type: domain.MetricGroupedSeries,
			Description: fmt.Sprintf("%s from %s",
				describeMetric(key, domain.MetricGroupedSeries), basePath),
			SampleValue:    fieldPreview(array, key),
			ValueType:      DetectValueType(key, first.Get(key)),
			IsTimeGrouped:  false,
			GroupingFields: groupingDimensions,
		})
	}

	return metrics
}

// extractFromDynamicKeyObject emits a container descriptor plus one
// groupedSeries descriptor per numeric field shared by the entries.
func extractFromDynamicKeyObject(containerKey string, obj *document.Node, basePath string) []domain.MetricInfo {
	entries := obj.Members()
	if len(entries) == 0 {
		return nil
	}

	firstValue := entries[0].Value
	if !firstValue.IsObject() {
		return nil
	}

	numericKeys := numericFieldKeys(firstValue, "")
	if len(numericKeys) == 0 {
		return nil
	}

	groupingDimensions := make([]string, 0, len(entries))
	for _, entry := range entries {
		groupingDimensions = append(groupingDimensions, EntryLabel(entry.Key, entry.Value))
	}

	metrics := make([]domain.MetricInfo, 0, len(numericKeys)+1)

	metrics = append(metrics, domain.MetricInfo{
		Name: basePath,
		Type: domain.MetricDynamicKeyObject,
		Description: fmt.Sprintf("%s with %d accounts",
			describeMetric(containerKey, domain.MetricDynamicKeyObject), len(entries)),
		SampleValue:    numericKeys,
		ValueType:      domain.ValueGeneric,
		IsTimeGrouped:  false,
		GroupingFields: groupingDimensions,
	})

	for _, key := range numericKeys {
		sample := make([]any, 0, samplePreviewLen)
		for i, entry := range entries {
			if i >= samplePreviewLen {
				break
			}
			sample = append(sample, entry.Value.Get(key).Interface())
		}

		metrics = append(metrics, domain.MetricInfo{
			Name: basePath + "." + key,
			Type: domain.MetricGroupedSeries,
			Description: fmt.Sprintf("%s across %s",
				describeMetric(key, domain.MetricGroupedSeries), containerKey),
			SampleValue:    sample,
			ValueType:      DetectValueType(key, firstValue.Get(key)),
			IsTimeGrouped:  false,
			GroupingFields: groupingDimensions,
		})
	}

	return metrics
}

// isDynamicKeyObject reports whether a mapping is keyed by opaque IDs:
// every key longer than 20 characters of alphanumerics and hyphens, and
// every value an object sharing one identical key set.
func isDynamicKeyObject(value *document.Node) bool {
	entries := value.Members()
	if len(entries) == 0 {
		return false
	}

	for _, entry := range entries {
		if !isIDLikeKey(entry.Key) {
			return false
		}
	}

	firstValue := entries[0].Value
	if !firstValue.IsObject() {
		return false
	}

	firstKeys := keySet(firstValue)
	for _, entry := range entries {
		if !entry.Value.IsObject() {
			return false
		}
		if !sameKeySet(firstKeys, entry.Value) {
			return false
		}
	}

	return true
}

func isIDLikeKey(key string) bool {
	if len(key) <= 20 {
		return false
	}
	for _, r := range key {
		if r == '-' {
			continue
		}
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func keySet(obj *document.Node) map[string]bool {
	set := make(map[string]bool, obj.Len())
	for _, m := range obj.Members() {
		set[m.Key] = true
	}
	return set
}

func sameKeySet(keys map[string]bool, obj *document.Node) bool {
	if obj.Len() != len(keys) {
		return false
	}
	for _, m := range obj.Members() {
		if !keys[m.Key] {
			return false
		}
	}
	return true
}

// shouldRecurseInto gates descent into nested objects: shapes already handled
// by an extractor are skipped, as are paths deeper than maxRecursePathLen.
func shouldRecurseInto(value *document.Node, path []string) bool {
	if !value.IsObject() || value.Len() == 0 {
		return false
	}
	if isDynamicKeyObject(value) {
		return false
	}
	if isGroupedSeriesShape(value) {
		return false
	}
	return len(path) <= maxRecursePathLen
}

// isGroupedSeriesShape reports whether the object matches {dates: [...], values: [...]}.
func isGroupedSeriesShape(value *document.Node) bool {
	return value.Get("dates").IsArray() && value.Get("values").IsArray()
}

// numericFieldKeys returns the keys of numeric fields on an object, in member
// order, skipping excludeKey when non-empty.
func numericFieldKeys(obj *document.Node, excludeKey string) []string {
	var keys []string
	for _, m := range obj.Members() {
		if excludeKey != "" && m.Key == excludeKey {
			continue
		}
		if m.Value.IsNumber() {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// ItemLabel picks a per-item grouping label from an array element, trying
// connector, label, and name in order.
func ItemLabel(item *document.Node) string {
	for _, key := range []string{"connector", "label", "name"} {
		if label := item.Get(key).Str(); label != "" {
			return label
		}
	}
	return "Unknown"
}

// EntryLabel picks a grouping label for a dynamic-key entry, falling back to
// the raw key.
func EntryLabel(key string, value *document.Node) string {
	if name := value.Get("name").Str(); name != "" {
		return name
	}
	if name := value.Get("officialName").Str(); name != "" {
		return name
	}
	return key
}

// fieldPreview returns up to samplePreviewLen values of one field across the
// array's elements.
func fieldPreview(array *document.Node, field string) []any {
	preview := make([]any, 0, samplePreviewLen)
	for i, item := range array.Items() {
		if i >= samplePreviewLen {
			break
		}
		preview = append(preview, item.Get(field).Interface())
	}
	return preview
}

// itemPreview returns up to samplePreviewLen raw elements of an array.
func itemPreview(array *document.Node) []any {
	preview := make([]any, 0, samplePreviewLen)
	for i, item := range array.Items() {
		if i >= samplePreviewLen {
			break
		}
		preview = append(preview, item.Interface())
	}
	return preview
}

func joinPath(path []string, key string) string {
	if len(path) == 0 {
		return key
	}
	return strings.Join(path, ".") + "." + key
}

func appendPath(path []string, key string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, key)
}
