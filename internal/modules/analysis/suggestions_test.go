package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/domain"
)

func TestSuggestCharts_Rules(t *testing.T) {
	tests := []struct {
		name    string
		metrics []domain.MetricInfo
		want    []domain.ChartType
	}{
		{
			name:    "empty catalog yields nothing",
			metrics: nil,
			want:    nil,
		},
		{
			name: "ungrouped time series suggests line",
			metrics: []domain.MetricInfo{
				{Name: "totalSales", Type: domain.MetricTimeSeries, IsTimeGrouped: true},
			},
			want: []domain.ChartType{domain.ChartLine},
		},
		{
			name: "one scalar is not enough for bar",
			metrics: []domain.MetricInfo{
				{Name: "orderCount", Type: domain.MetricScalar},
			},
			want: nil,
		},
		{
			name: "two scalars suggest bar",
			metrics: []domain.MetricInfo{
				{Name: "orderCount", Type: domain.MetricScalar},
				{Name: "customerCount", Type: domain.MetricScalar},
			},
			want: []domain.ChartType{domain.ChartBar},
		},
		{
			name: "grouped time series suggests stacked bar and heatmap",
			metrics: []domain.MetricInfo{
				{Name: "salesByChannel", Type: domain.MetricGroupedSeries, IsTimeGrouped: true, GroupingFields: []string{"DTC", "Wholesale"}},
			},
			want: []domain.ChartType{domain.ChartStackedBar, domain.ChartHeatmap},
		},
		{
			name: "change metric suggests waterfall",
			metrics: []domain.MetricInfo{
				{Name: "cashChange", Type: domain.MetricScalar},
			},
			want: []domain.ChartType{domain.ChartWaterfall},
		},
		{
			name: "embedded metrics suggest bar for entity comparison",
			metrics: []domain.MetricInfo{
				{Name: "connectors", Type: domain.MetricEmbeddedMetrics, GroupingFields: []string{"Shopify"}},
			},
			// GroupingFields also trips the stacked-bar rule
			want: []domain.ChartType{domain.ChartStackedBar, domain.ChartBar},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestCharts(tt.metrics)

			var types []domain.ChartType
			for _, s := range got {
				types = append(types, s.ChartType)
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestSuggestCharts_ConfidenceOrdering(t *testing.T) {
	// A catalog tripping every rule at once
	metrics := []domain.MetricInfo{
		{Name: "totalSales", Type: domain.MetricTimeSeries, IsTimeGrouped: true},
		{Name: "orderCount", Type: domain.MetricScalar},
		{Name: "customerCount", Type: domain.MetricScalar},
		{Name: "salesByChannel", Type: domain.MetricGroupedSeries, IsTimeGrouped: true, GroupingFields: []string{"DTC"}},
		{Name: "connectors", Type: domain.MetricEmbeddedMetrics, GroupingFields: []string{"a"}},
		{Name: "cashChange", Type: domain.MetricScalar},
	}

	got := SuggestCharts(metrics)
	require.Len(t, got, 6)

	wantConfidences := []float64{0.9, 0.85, 0.8, 0.75, 0.7, 0.65}
	for i, s := range got {
		assert.Equal(t, wantConfidences[i], s.Confidence)
		assert.NotEmpty(t, s.Reasoning)
	}

	assert.Equal(t, domain.ChartLine, got[0].ChartType)
	assert.Equal(t, domain.ChartStackedBar, got[1].ChartType)
	assert.Equal(t, domain.ChartBar, got[2].ChartType)
	assert.Equal(t, domain.ChartBar, got[3].ChartType)
	assert.Equal(t, domain.ChartWaterfall, got[4].ChartType)
	assert.Equal(t, domain.ChartHeatmap, got[5].ChartType)
}

func TestSuggestCharts_Deterministic(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "totalSales", Type: domain.MetricTimeSeries, IsTimeGrouped: true},
		{Name: "orderCount", Type: domain.MetricScalar},
		{Name: "customerCount", Type: domain.MetricScalar},
	}

	first := SuggestCharts(metrics)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SuggestCharts(metrics))
	}
}
