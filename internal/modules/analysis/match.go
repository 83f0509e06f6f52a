package analysis

import (
	"strings"

	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/utils"
)

// FindBestMatch scores every metric against the prompt's tokens and returns
// the highest-scoring one, or nil when nothing matches at all. A prompt token
// counts when it contains or is contained by any word fragment of the metric
// name; string entries in the sample preview add a bonus. First metric to
// reach the maximum wins on ties (left-to-right scan, strict comparison).
func FindBestMatch(prompt string, metrics []domain.MetricInfo) *domain.MetricInfo {
	keywords := strings.Fields(strings.ToLower(prompt))
	if len(keywords) == 0 {
		return nil
	}

	var bestMatch *domain.MetricInfo
	bestScore := 0

	for i := range metrics {
		metric := &metrics[i]
		fragments := utils.SplitWords(metric.Name)

		score := 0
		for _, keyword := range keywords {
			if matchesAnyFragment(keyword, fragments) {
				score++
			}
		}

		if sampleMatchesKeywords(metric.SampleValue, keywords) {
			score += 2
		}

		if score > bestScore {
			bestScore = score
			bestMatch = metric
		}
	}

	return bestMatch
}

func matchesAnyFragment(keyword string, fragments []string) bool {
	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		if strings.Contains(fragment, keyword) || strings.Contains(keyword, fragment) {
			return true
		}
	}
	return false
}

// sampleMatchesKeywords checks string entries of a sample preview against
// the prompt tokens. Container metrics carry their field names as samples,
// so this lets "sales" find a byChannel container exposing a sales field.
func sampleMatchesKeywords(sample any, keywords []string) bool {
	var entries []string

	switch v := sample.(type) {
	case []string:
		entries = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				entries = append(entries, s)
			}
		}
	default:
		return false
	}

	for _, entry := range entries {
		entryLower := strings.ToLower(entry)
		for _, keyword := range keywords {
			if strings.Contains(entryLower, keyword) || strings.Contains(keyword, entryLower) {
				return true
			}
		}
	}

	return false
}
