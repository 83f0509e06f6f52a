package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/domain"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func toolCallResponse(arguments string) string {
	return `{"choices": [{"message": {"tool_calls": [{"function": {"arguments": ` +
		mustQuote(arguments) + `}}]}}]}`
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestTranslateParsesToolCall(t *testing.T) {
	var gotBody chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(toolCallResponse(`{"chartType": "line", "metric": "totalSales", "dateRange": "2024"}`)))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", testLogger())

	spec, err := client.Translate(context.Background(), "show sales trends", &domain.DataAnalysis{
		DataDescription: "Financial metrics dataset",
		AvailableMetrics: []domain.MetricInfo{
			{Name: "totalSales", Type: domain.MetricTimeSeries, Description: "totalSales over time"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ChartLine, spec.ChartType)
	assert.Equal(t, "totalSales", spec.Metric)
	assert.Equal(t, "2024", spec.DateRange)

	// The model is forced into the create_chart tool with a grounded prompt
	assert.Equal(t, "gpt-4o", gotBody.Model)
	assert.Zero(t, gotBody.Temperature)
	require.Len(t, gotBody.Messages, 1)
	assert.Contains(t, gotBody.Messages[0].Content, "show sales trends")
	assert.Contains(t, gotBody.Messages[0].Content, "totalSales over time")
	require.NotNil(t, gotBody.ToolChoice)
}

func TestTranslateWithoutKey(t *testing.T) {
	client := NewClient("", "", "", testLogger())

	assert.False(t, client.Configured())

	_, err := client.Translate(context.Background(), "anything", nil)
	assert.Error(t, err)
}

func TestTranslateRejectsMissingToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [{"message": {}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", testLogger())

	_, err := client.Translate(context.Background(), "anything", nil)
	assert.ErrorContains(t, err, "tool call")
}

func TestTranslateSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "", testLogger())

	_, err := client.Translate(context.Background(), "anything", nil)
	assert.ErrorContains(t, err, "429")
}
