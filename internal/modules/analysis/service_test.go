package analysis

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
)

const fixtureJSON = `{
	"totalSales": [
		{"date": "2024-01-31", "value": 1000.5},
		{"date": "2024-02-29", "value": 1200}
	],
	"salesByChannel": {
		"dates": ["2024-01-31", "2024-02-29"],
		"values": [
			{"label": "DTC", "values": [600, 700]},
			{"label": "Wholesale", "values": [400.5, 500]}
		]
	},
	"orderCount": 42,
	"connectors": [
		{"connector": "Shopify", "revenue": 5000.5, "orders": 120},
		{"connector": "Amazon", "revenue": 3000, "orders": 80}
	],
	"cashDetails": {
		"account-4f3c2b1a9d8e7f6a5b": {"name": "Operating", "balance": 1500.5},
		"account-9a8b7c6d5e4f3a2b1c": {"name": "Savings", "balance": 2500}
	},
	"ratios": [1.5, 2.5],
	"meta": {"note": "generated"}
}`

func analyzeFixture(t *testing.T) *domain.DataAnalysis {
	t.Helper()
	doc, err := document.Decode([]byte(fixtureJSON))
	require.NoError(t, err)

	svc := NewService(zerolog.New(nil).Level(zerolog.Disabled))
	return svc.Analyze(doc)
}

func metricByName(t *testing.T, anal *domain.DataAnalysis, name string, metricType domain.MetricType) domain.MetricInfo {
	t.Helper()
	for _, m := range anal.AvailableMetrics {
		if m.Name == name && m.Type == metricType {
			return m
		}
	}
	t.Fatalf("metric %q of type %q not in catalog", name, metricType)
	return domain.MetricInfo{}
}

func TestAnalyze_CatalogOrder(t *testing.T) {
	anal := analyzeFixture(t)

	var names []string
	for _, m := range anal.AvailableMetrics {
		names = append(names, m.Name)
	}

	// Encounter order over the document, with extractor output following the
	// direct classification of each member.
	assert.Equal(t, []string{
		"totalSales",
		"totalSales",
		"totalSales.value",
		"salesByChannel",
		"orderCount",
		"connectors",
		"connectors.revenue",
		"connectors.orders",
		"cashDetails",
		"cashDetails.balance",
		"ratios",
	}, names)

	assert.Equal(t, len(anal.AvailableMetrics), anal.TotalDataPoints)
	assert.Equal(t, "2024", anal.DateRangeAvailable)
}

func TestAnalyze_TimeSeries(t *testing.T) {
	anal := analyzeFixture(t)

	m := metricByName(t, anal, "totalSales", domain.MetricTimeSeries)
	assert.Equal(t, domain.ValueCurrency, m.ValueType)
	assert.True(t, m.IsTimeGrouped)
	assert.Empty(t, m.GroupingFields)
	assert.Equal(t, []any{1000.5, 1200.0}, m.SampleValue)

	// The record array additionally feeds the embedded extractor
	container := metricByName(t, anal, "totalSales", domain.MetricEmbeddedMetrics)
	assert.Equal(t, []string{"value"}, container.SampleValue)
	assert.Equal(t, []string{"Unknown", "Unknown"}, container.GroupingFields)
}

func TestAnalyze_GroupedSeries(t *testing.T) {
	anal := analyzeFixture(t)

	m := metricByName(t, anal, "salesByChannel", domain.MetricGroupedSeries)
	assert.Equal(t, []string{"DTC", "Wholesale"}, m.GroupingFields)
	assert.True(t, m.IsTimeGrouped)
	assert.Equal(t, domain.ValueCurrency, m.ValueType)
	assert.Equal(t, []any{600.0, 700.0}, m.SampleValue)
}

func TestAnalyze_Scalar(t *testing.T) {
	anal := analyzeFixture(t)

	m := metricByName(t, anal, "orderCount", domain.MetricScalar)
	assert.Equal(t, domain.ValueCount, m.ValueType)
	assert.False(t, m.IsTimeGrouped)
	assert.Equal(t, 42.0, m.SampleValue)
}

func TestAnalyze_EmbeddedMetrics(t *testing.T) {
	anal := analyzeFixture(t)

	container := metricByName(t, anal, "connectors", domain.MetricEmbeddedMetrics)
	assert.Equal(t, []string{"revenue", "orders"}, container.SampleValue)
	assert.Equal(t, []string{"Shopify", "Amazon"}, container.GroupingFields)
	assert.Contains(t, container.Description, "2 metrics")

	revenue := metricByName(t, anal, "connectors.revenue", domain.MetricGroupedSeries)
	assert.Equal(t, domain.ValueCurrency, revenue.ValueType)
	assert.Equal(t, []any{5000.5, 3000.0}, revenue.SampleValue)
	assert.Equal(t, []string{"Shopify", "Amazon"}, revenue.GroupingFields)

	orders := metricByName(t, anal, "connectors.orders", domain.MetricGroupedSeries)
	assert.Equal(t, domain.ValueCount, orders.ValueType)
}

func TestAnalyze_DynamicKeyObject(t *testing.T) {
	anal := analyzeFixture(t)

	container := metricByName(t, anal, "cashDetails", domain.MetricDynamicKeyObject)
	assert.Equal(t, []string{"balance"}, container.SampleValue)
	assert.Equal(t, []string{"Operating", "Savings"}, container.GroupingFields)
	assert.Contains(t, container.Description, "2 accounts")

	balance := metricByName(t, anal, "cashDetails.balance", domain.MetricGroupedSeries)
	assert.Equal(t, domain.ValueCurrency, balance.ValueType)
	assert.Equal(t, []any{1500.5, 2500.0}, balance.SampleValue)
}

func TestAnalyze_PlainArray(t *testing.T) {
	anal := analyzeFixture(t)

	m := metricByName(t, anal, "ratios", domain.MetricArray)
	assert.Equal(t, domain.ValueGeneric, m.ValueType)
	assert.Equal(t, []any{1.5, 2.5}, m.SampleValue)
}

func TestAnalyze_Idempotent(t *testing.T) {
	doc, err := document.Decode([]byte(fixtureJSON))
	require.NoError(t, err)
	svc := NewService(zerolog.New(nil).Level(zerolog.Disabled))

	first := svc.Analyze(doc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, svc.Analyze(doc))
	}
}

func TestAnalyze_UnclassifiableNoise(t *testing.T) {
	doc, err := document.Decode([]byte(`{
		"label": "hello",
		"enabled": true,
		"nothing": null,
		"empty": [],
		"emptyObj": {}
	}`))
	require.NoError(t, err)

	svc := NewService(zerolog.New(nil).Level(zerolog.Disabled))
	anal := svc.Analyze(doc)

	assert.Empty(t, anal.AvailableMetrics)
	assert.Empty(t, anal.SuggestedChartTypes)
	assert.Equal(t, "", anal.DateRangeAvailable)
}

func TestIsDynamicKeyObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{
			"long uniform keys",
			`{"account-4f3c2b1a9d8e7f6a5b": {"balance": 1}, "account-9a8b7c6d5e4f3a2b1c": {"balance": 2}}`,
			true,
		},
		{
			"short keys",
			`{"dtc": {"balance": 1}, "wholesale": {"balance": 2}}`,
			false,
		},
		{
			"differing key sets",
			`{"account-4f3c2b1a9d8e7f6a5b": {"balance": 1}, "account-9a8b7c6d5e4f3a2b1c": {"total": 2}}`,
			false,
		},
		{
			"non-object values",
			`{"account-4f3c2b1a9d8e7f6a5b": 1, "account-9a8b7c6d5e4f3a2b1c": 2}`,
			false,
		},
		{
			"key with invalid characters",
			`{"account_4f3c2b1a9d8e7f6a5b": {"balance": 1}}`,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, isDynamicKeyObject(doc))
		})
	}
}

func TestAnalyze_DepthLimit(t *testing.T) {
	// Nest a scalar deeper than the recursion cap; it must not appear.
	raw := `{"l1":{"l2":{"l3":{"l4":{"l5":{"l6":{"totalSales": 5}}}}}}}`
	doc, err := document.Decode([]byte(raw))
	require.NoError(t, err)

	svc := NewService(zerolog.New(nil).Level(zerolog.Disabled))
	anal := svc.Analyze(doc)

	for _, m := range anal.AvailableMetrics {
		assert.NotContains(t, m.Name, "totalSales")
	}
}
