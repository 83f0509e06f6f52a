package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
)

func TestDescribeMetric(t *testing.T) {
	tests := []struct {
		key        string
		metricType domain.MetricType
		want       string
	}{
		{"orderCount", domain.MetricScalar, "Total order count"},
		{"totalSales", domain.MetricTimeSeries, "total sales over time"},
		{"salesByChannel", domain.MetricGroupedSeries, "sales by channel broken down by category over time"},
		{"ratios", domain.MetricArray, "ratios data points"},
		{"cashDetails", domain.MetricDynamicKeyObject, "cash details breakdown by account/entity"},
		{"connectors", domain.MetricEmbeddedMetrics, "connectors with multiple metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, describeMetric(tt.key, tt.metricType))
		})
	}
}

func TestDescribeData(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "totalSales", Type: domain.MetricTimeSeries, ValueType: domain.ValueCurrency, IsTimeGrouped: true},
		{Name: "conversionRate", Type: domain.MetricScalar, ValueType: domain.ValuePercentage},
		{Name: "orderCount", Type: domain.MetricScalar, ValueType: domain.ValueCount},
		{Name: "cashDetails", Type: domain.MetricDynamicKeyObject, ValueType: domain.ValueGeneric, GroupingFields: []string{"Operating"}},
	}

	got := DescribeData(metrics, "2024")

	assert.Contains(t, got, "This dataset contains 4 metrics.")
	assert.Contains(t, got, "1 time-series metrics")
	assert.Contains(t, got, "1 grouped metrics")
	assert.Contains(t, got, "2 summary/total metrics")
	assert.Contains(t, got, "1 complex metrics")
	assert.Contains(t, got, "Currency metrics include: totalSales.")
	assert.Contains(t, got, "Percentage metrics include: conversionRate.")
	assert.Contains(t, got, "Count metrics include: orderCount.")
	assert.Contains(t, got, "Data appears to be from 2024.")
}

func TestDescribeData_NoYear(t *testing.T) {
	got := DescribeData(nil, "")

	assert.Contains(t, got, "This dataset contains 0 metrics.")
	assert.NotContains(t, got, "Data appears to be from")
}

func TestDetectYear(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"dated record array",
			`{"totalSales": [{"date": "2023-05-31", "value": 1}]}`,
			"2023",
		},
		{
			"grouped series dates",
			`{"salesByChannel": {"dates": ["2022-01-31"], "values": []}}`,
			"2022",
		},
		{
			"nested below shallow scan",
			`{"a": {"b": {"c": {"d": [{"date": "2024-01-01", "value": 1}]}}}}`,
			"",
		},
		{
			"no dates anywhere",
			`{"orderCount": 42}`,
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := document.Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, DetectYear(doc))
		})
	}
}
