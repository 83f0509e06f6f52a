package analysis

import (
	"strings"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
)

// Keyword sets used by the value-type classifier. Matching is substring-based
// over the lowercased field key.
var (
	currencyKeywords = []string{
		"sales", "revenue", "income", "profit", "cash", "expenses",
		"cost", "balance", "amount",
	}
	percentageKeywords = []string{"percentage", "rate", "ratio"}
	countKeywords      = []string{"orders", "customers", "count", "users", "total"}
)

// DetectValueType classifies a field's semantic unit from its key and one
// sample value. Rules are checked in fixed precedence: currency, percentage,
// count, generic.
//
// Keys containing "margin" classify as currency unless the key also contains
// "percentage"; only that combination falls through to the percentage rule.
// Irregular, but part of the established catalog contract.
func DetectValueType(key string, sample *document.Node) domain.ValueType {
	// An absent sample is treated as the integral zero value, which matters
	// only for the count rule.
	integral := sample == nil || sample.IsIntegral()
	return detectValueType(key, integral)
}

func detectValueType(key string, integral bool) domain.ValueType {
	keyLower := strings.ToLower(key)

	if containsAny(keyLower, currencyKeywords) || strings.Contains(keyLower, "margin") {
		if !(strings.Contains(keyLower, "margin") && strings.Contains(keyLower, "percentage")) {
			return domain.ValueCurrency
		}
	}

	if containsAny(keyLower, percentageKeywords) {
		return domain.ValuePercentage
	}

	if containsAny(keyLower, countKeywords) && integral {
		return domain.ValueCount
	}

	return domain.ValueGeneric
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
