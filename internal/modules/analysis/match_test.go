package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/domain"
)

func TestFindBestMatch(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "totalSales"},
		{Name: "netRevenue"},
		{Name: "salesByChannel"},
		{Name: "orderCount"},
	}

	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"single keyword", "show me revenue", "netRevenue"},
		{"two keywords beat one", "sales by channel please", "salesByChannel"},
		{"case insensitive", "TOTAL SALES", "totalSales"},
		{"partial keyword", "how are the orders doing", "orderCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBestMatch(tt.prompt, metrics)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestFindBestMatch_NoMatch(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "totalSales"},
	}

	assert.Nil(t, FindBestMatch("weather forecast tomorrow", metrics))
	assert.Nil(t, FindBestMatch("", metrics))
	assert.Nil(t, FindBestMatch("   ", metrics))
	assert.Nil(t, FindBestMatch("sales", nil))
}

func TestFindBestMatch_SampleValueBonus(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "channels", SampleValue: []any{"shopify", "amazon"}},
		{Name: "shopifyOrders"},
	}

	// "shopify" scores 1 on shopifyOrders via the name, but 1 + 2 on
	// channels via the sample bonus.
	got := FindBestMatch("shopify performance", metrics)
	require.NotNil(t, got)
	assert.Equal(t, "channels", got.Name)
}

func TestFindBestMatch_FirstWinsOnTie(t *testing.T) {
	metrics := []domain.MetricInfo{
		{Name: "grossSales"},
		{Name: "netSales"},
	}

	got := FindBestMatch("sales", metrics)
	require.NotNil(t, got)
	assert.Equal(t, "grossSales", got.Name)
}
