// Package domain provides core domain models and types.
package domain

// MetricType classifies the structural shape of a discovered metric.
type MetricType string

const (
	MetricTimeSeries       MetricType = "timeSeries"
	MetricGroupedSeries    MetricType = "groupedSeries"
	MetricScalar           MetricType = "scalar"
	MetricDynamicKeyObject MetricType = "dynamicKeyObject"
	MetricEmbeddedMetrics  MetricType = "embeddedMetrics"
	MetricArray            MetricType = "array"
)

// ValueType classifies the semantic unit of a metric's values.
type ValueType string

const (
	ValueCurrency   ValueType = "currency"
	ValuePercentage ValueType = "percentage"
	ValueCount      ValueType = "count"
	ValueGeneric    ValueType = "generic"
)

// ChartType is one of the chart kinds the frontend can render.
type ChartType string

const (
	ChartLine       ChartType = "line"
	ChartBar        ChartType = "bar"
	ChartStackedBar ChartType = "stacked-bar"
	ChartHeatmap    ChartType = "heatmap"
	ChartWaterfall  ChartType = "waterfall"
)

// MetricInfo describes one metric discovered in an upstream document.
// Name is a dot-joined path resolvable against the document via successive
// key lookups. A MetricInfo is immutable once the catalog is built.
type MetricInfo struct {
	Name           string     `json:"name"`
	Type           MetricType `json:"type"`
	Description    string     `json:"description"`
	SampleValue    any        `json:"sampleValue"`
	ValueType      ValueType  `json:"valueType"`
	IsTimeGrouped  bool       `json:"isTimeGrouped"`
	GroupingFields []string   `json:"groupingFields"`
}

// ChartSuggestion is a ranked chart-type recommendation derived from the catalog.
type ChartSuggestion struct {
	ChartType  ChartType `json:"chartType"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
}

// DataAnalysis bundles everything derived from one fetched document.
// It is built once per fetch and shared read-only afterwards.
type DataAnalysis struct {
	AvailableMetrics    []MetricInfo      `json:"availableMetrics"`
	SuggestedChartTypes []ChartSuggestion `json:"suggestedChartTypes"`
	DataDescription     string            `json:"dataDescription"`
	TotalDataPoints     int               `json:"totalDataPoints"`
	DateRangeAvailable  string            `json:"dateRangeAvailable,omitempty"`
}

// SeriesGroup is one labeled numeric series of a chart.
type SeriesGroup struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// ChartData is a normalized chart-ready slice of one metric: categories
// (the "dates" axis, which may hold category labels for non-time shapes)
// plus one or more labeled series of equal length.
type ChartData struct {
	Dates  []string      `json:"dates"`
	Values []SeriesGroup `json:"values"`
}

// ChartSpec is a structured chart request, typically produced by the
// natural-language translator or assembled directly by the dashboard.
type ChartSpec struct {
	ChartType ChartType `json:"chartType"`
	Metric    string    `json:"metric"`
	DateRange string    `json:"dateRange"`
	GroupBy   string    `json:"groupBy,omitempty"`
}
