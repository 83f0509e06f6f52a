package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
)

func TestDetectValueType(t *testing.T) {
	tests := []struct {
		key      string
		integral bool
		want     domain.ValueType
	}{
		{"totalSales", true, domain.ValueCurrency},
		{"netRevenue", false, domain.ValueCurrency},
		{"operatingExpenses", false, domain.ValueCurrency},
		{"cashBalance", false, domain.ValueCurrency},
		{"grossMargin", false, domain.ValueCurrency},
		{"profitMargin", false, domain.ValueCurrency},
		{"marginPercentage", false, domain.ValuePercentage},
		{"grossMarginPercentage", false, domain.ValuePercentage},
		{"conversionRate", false, domain.ValuePercentage},
		{"quickRatio", false, domain.ValuePercentage},
		{"totalOrders", true, domain.ValueCount},
		{"activeCustomers", true, domain.ValueCount},
		{"orders", false, domain.ValueGeneric},
		{"temperature", false, domain.ValueGeneric},
		{"sku", true, domain.ValueGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := detectValueType(tt.key, tt.integral)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectValueType_SampleIntegrality(t *testing.T) {
	intSample, err := document.Decode([]byte(`42`))
	require.NoError(t, err)
	floatSample, err := document.Decode([]byte(`42.5`))
	require.NoError(t, err)

	// Count requires an integral sample; a fractional one demotes to generic
	assert.Equal(t, domain.ValueCount, DetectValueType("orderCount", intSample))
	assert.Equal(t, domain.ValueGeneric, DetectValueType("orderCount", floatSample))

	// A missing sample counts as integral
	assert.Equal(t, domain.ValueCount, DetectValueType("orderCount", nil))

	// Currency does not care about integrality
	assert.Equal(t, domain.ValueCurrency, DetectValueType("totalSales", floatSample))
}
