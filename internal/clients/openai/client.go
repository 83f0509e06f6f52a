// Package openai translates natural-language chart requests into structured
// chart specifications via the OpenAI chat completions API, using a forced
// tool call so the model can only answer with a valid spec.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finboard/finboard/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o"
)

// Client for the OpenAI chat completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new OpenAI client. Empty baseURL and model select the
// production endpoint and gpt-4o.
func NewClient(baseURL, apiKey, model string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     log.With().Str("client", "openai").Logger(),
	}
}

// Configured reports whether an API key is present. Callers fall back to
// keyword matching when it is not.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// toolSchema is the create_chart function the model is forced to call.
var toolSchema = []map[string]any{{
	"type": "function",
	"function": map[string]any{
		"name":        "create_chart",
		"description": "Produce a simple chart spec",
		"parameters": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chartType": map[string]any{
					"enum":        []string{"line", "bar", "stacked-bar", "heatmap", "waterfall"},
					"description": "Type of chart to generate",
				},
				"metric": map[string]any{
					"type":        "string",
					"description": "The metric to display in the chart",
				},
				"groupBy": map[string]any{
					"type":        "string",
					"description": "Optional grouping dimension for the data",
				},
				"dateRange": map[string]any{
					"type":        "string",
					"pattern":     "YYYY[-MM]",
					"description": "Date range in YYYY or YYYY-MM format",
				},
			},
			"required": []string{"chartType", "metric", "dateRange"},
		},
	},
}}

type chatRequest struct {
	Model       string           `json:"model"`
	Temperature float64          `json:"temperature"`
	Messages    []chatMessage    `json:"messages"`
	Tools       []map[string]any `json:"tools"`
	ToolChoice  map[string]any   `json:"tool_choice"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Translate sends the prompt together with the data context and returns the
// chart spec the model selected.
func (c *Client) Translate(ctx context.Context, prompt string, analysis *domain.DataAnalysis) (*domain.ChartSpec, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not configured")
	}

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(prompt, analysis)},
		},
		Tools: toolSchema,
		ToolChoice: map[string]any{
			"type":     "function",
			"function": map[string]any{"name": "create_chart"},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("OpenAI returned HTTP %d: %s", resp.StatusCode, string(detail))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("OpenAI did not return a valid tool call response")
	}

	var spec domain.ChartSpec
	args := parsed.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(args), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse tool call arguments: %w", err)
	}

	c.log.Info().
		Str("chart_type", string(spec.ChartType)).
		Str("metric", spec.Metric).
		Str("date_range", spec.DateRange).
		Msg("Translated prompt to chart spec")

	return &spec, nil
}

// buildPrompt assembles the visualization-expert prompt with the catalog and
// ranked suggestions as grounding context.
func buildPrompt(prompt string, analysis *domain.DataAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a data visualization expert. Analyze this request and create the most appropriate chart specification.

USER REQUEST: %q

CHART TYPE SELECTION GUIDELINES:
- **line**: Best for time series trends, showing change over time. Use for single or multiple metrics over dates.
- **bar**: Best for comparing values across categories or discrete time periods. Use when emphasis is on comparison, not trends.
- **stacked-bar**: Best for showing composition and part-to-whole relationships over categories or time.
- **heatmap**: Best for showing intensity/correlation patterns across two dimensions (e.g., time vs categories).
- **waterfall**: Best for showing cumulative effect of sequential positive/negative changes.

USER INTENT KEYWORDS:
- "trend/trending/over time/growth/decline" -> line chart
- "compare/comparison/vs/versus/against" -> bar chart
- "breakdown/composition/parts/segments" -> stacked-bar chart
- "pattern/correlation/intensity" -> heatmap chart
- "impact/effect/contribution/waterfall" -> waterfall chart`, prompt)

	if analysis != nil {
		fmt.Fprintf(&b, "\n\nAVAILABLE DATA CONTEXT:\n%s", analysis.DataDescription)

		b.WriteString("\n\nAVAILABLE METRICS:")
		for _, metric := range analysis.AvailableMetrics {
			fmt.Fprintf(&b, "\n- **%s**: %s", metric.Name, metric.Description)
			fmt.Fprintf(&b, "\n  Type: %s, Values: %s", metric.Type, metric.ValueType)

			switch metric.Type {
			case domain.MetricTimeSeries:
				b.WriteString(" -> Recommended: line (trends) or bar (periods)")
			case domain.MetricGroupedSeries:
				b.WriteString(" -> Recommended: stacked-bar (composition) or line (comparison)")
			case domain.MetricScalar:
				b.WriteString(" -> Recommended: bar (single value)")
			}
		}

		if len(analysis.SuggestedChartTypes) > 0 {
			b.WriteString("\n\nAUTO-GENERATED SUGGESTIONS:")
			for _, s := range analysis.SuggestedChartTypes {
				fmt.Fprintf(&b, "\n- %s: %s (confidence: %g)", s.ChartType, s.Reasoning, s.Confidence)
			}
		}
	}

	b.WriteString(`

IMPORTANT:
- Choose the chart type that best matches the user's analytical intent
- Select appropriate date ranges (specific months for snapshots, full year for trends)
- If the request is ambiguous, default to the most informative visualization
- Prioritize clarity and insight over complexity`)

	return b.String()
}
