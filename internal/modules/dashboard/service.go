// Package dashboard orchestrates multi-chart dashboard generation: it picks
// the metrics related to a prompt, asks the translator for a spec per metric,
// slices every chart in parallel, and lays the results out on a grid.
package dashboard

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/modules/analysis"
	"github.com/finboard/finboard/internal/utils"
)

const (
	defaultMaxCharts = 5
	maxInsights      = 3
	sliceConcurrency = 4
)

// Translator turns a natural-language prompt into a chart spec.
type Translator interface {
	Translate(ctx context.Context, prompt string, analysis *domain.DataAnalysis) (*domain.ChartSpec, error)
	Configured() bool
}

// Slicer loads documents and extracts chart data per metric.
type Slicer interface {
	Analysis(ctx context.Context, dateRange string) (*domain.DataAnalysis, error)
	Slice(ctx context.Context, spec domain.ChartSpec) (*domain.ChartData, error)
}

// Request is a dashboard generation request.
type Request struct {
	Prompt          string
	DateRange       string
	NumberOfCharts  int
	IncludeInsights bool
}

// Chart is one positioned chart of a generated dashboard.
type Chart struct {
	ID        string            `json:"id"`
	ChartType domain.ChartType  `json:"chartType"`
	Metric    string            `json:"metric"`
	DateRange string            `json:"dateRange"`
	GroupBy   string            `json:"groupBy,omitempty"`
	Title     string            `json:"title"`
	Data      *domain.ChartData `json:"data"`
	Row       int               `json:"row"`
	Col       int               `json:"col"`
	Span      int               `json:"span"`
}

// Metadata describes how a dashboard was produced.
type Metadata struct {
	TotalCharts    int    `json:"totalCharts"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
}

// Response is a complete generated dashboard.
type Response struct {
	DashboardID string   `json:"dashboardId"`
	RequestID   string   `json:"requestId"`
	Charts      []Chart  `json:"charts"`
	Insights    []string `json:"insights,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// Service generates dashboards.
type Service struct {
	translator Translator
	slicer     Slicer
	log        zerolog.Logger
	nowFn      func() time.Time
}

// NewService creates a dashboard service. translator may be nil; every spec
// then comes from the shape-based fallback.
func NewService(translator Translator, slicer Slicer, log zerolog.Logger) *Service {
	return &Service{
		translator: translator,
		slicer:     slicer,
		log:        log.With().Str("service", "dashboard").Logger(),
		nowFn:      time.Now,
	}
}

// Generate builds a dashboard for the request. Individual chart failures are
// logged and skipped; partial success is a valid outcome.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	timer := utils.NewTimer("generate_dashboard", s.log)
	defer timer.Stop()

	start := s.nowFn()
	resp := &Response{
		DashboardID: s.dashboardID(),
		RequestID:   uuid.NewString(),
		Charts:      []Chart{},
	}

	anal, err := s.slicer.Analysis(ctx, req.DateRange)
	if err != nil {
		return nil, fmt.Errorf("loading data analysis: %w", err)
	}

	related := relatedMetrics(req.Prompt, anal, maxCharts(req.NumberOfCharts))
	if len(related) == 0 {
		s.log.Warn().Str("prompt", req.Prompt).Msg("No suitable metrics found for dashboard")
		resp.Metadata = Metadata{
			ResponseTimeMs: s.nowFn().Sub(start).Milliseconds(),
			Error:          "No visualizable metrics found",
		}
		return resp, nil
	}

	specs := s.chartSpecs(ctx, req, related, anal)
	resp.Charts = s.sliceCharts(ctx, specs)

	if req.IncludeInsights {
		resp.Insights = buildInsights(resp.Charts)
	}

	resp.Metadata = Metadata{
		TotalCharts:    len(resp.Charts),
		ResponseTimeMs: s.nowFn().Sub(start).Milliseconds(),
	}

	s.log.Info().
		Str("dashboard_id", resp.DashboardID).
		Int("charts", len(resp.Charts)).
		Int("requested", len(specs)).
		Msg("Dashboard generated")

	return resp, nil
}

func maxCharts(requested int) int {
	if requested <= 0 {
		return defaultMaxCharts
	}
	return requested
}

// relatedMetrics picks the metrics a dashboard for this prompt should show.
// Scalars are excluded: they don't visualize well as standalone charts.
// TODO: add a metric-card chart type so scalars can come back.
func relatedMetrics(prompt string, anal *domain.DataAnalysis, limit int) []domain.MetricInfo {
	promptLower := strings.ToLower(prompt)

	var visualizable []domain.MetricInfo
	for _, m := range anal.AvailableMetrics {
		if m.Type != domain.MetricScalar {
			visualizable = append(visualizable, m)
		}
	}
	if len(visualizable) == 0 {
		return nil
	}

	var related []domain.MetricInfo
	if primary := analysis.FindBestMatch(prompt, visualizable); primary != nil {
		related = append(related, *primary)
	}

	if containsAnyKeyword(promptLower, "performance", "overview", "dashboard") {
		related = append(related, metricsNamedLike(visualizable, 3, "sales", "orders", "revenue", "profit")...)
	}
	if containsAnyKeyword(promptLower, "sales", "revenue") {
		related = append(related, metricsNamedLike(visualizable, 2, "gross", "net", "connector", "channel")...)
	}
	if containsAnyKeyword(promptLower, "financial", "cash") {
		related = append(related, metricsNamedLike(visualizable, 2, "cash", "profit", "margin")...)
	}

	seen := make(map[string]bool, len(related))
	unique := make([]domain.MetricInfo, 0, len(related))
	for _, m := range related {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		unique = append(unique, m)
		if len(unique) == limit {
			break
		}
	}

	return unique
}

func containsAnyKeyword(prompt string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(prompt, kw) {
			return true
		}
	}
	return false
}

// metricsNamedLike returns up to limit metrics whose name contains any term.
func metricsNamedLike(metrics []domain.MetricInfo, limit int, terms ...string) []domain.MetricInfo {
	var matched []domain.MetricInfo
	for _, m := range metrics {
		name := strings.ToLower(m.Name)
		for _, term := range terms {
			if strings.Contains(name, term) {
				matched = append(matched, m)
				break
			}
		}
		if len(matched) == limit {
			break
		}
	}
	return matched
}

// chartSpecs asks the translator for one spec per metric, falling back to a
// shape-based default whenever the translator is unavailable or fails.
func (s *Service) chartSpecs(ctx context.Context, req Request, metrics []domain.MetricInfo, anal *domain.DataAnalysis) []domain.ChartSpec {
	specs := make([]domain.ChartSpec, 0, len(metrics))

	for _, metric := range metrics {
		spec := s.specForMetric(ctx, metric, anal)

		if req.DateRange != "" {
			spec.DateRange = req.DateRange
		}
		if spec.DateRange == "" {
			spec.DateRange = s.nowFn().Format("2006")
		}
		// The translator sometimes picks a sibling metric; pin the one we chose
		spec.Metric = metric.Name

		specs = append(specs, spec)
	}

	return specs
}

func (s *Service) specForMetric(ctx context.Context, metric domain.MetricInfo, anal *domain.DataAnalysis) domain.ChartSpec {
	fallback := domain.ChartSpec{
		ChartType: domain.ChartBar,
		Metric:    metric.Name,
	}
	if metric.IsTimeGrouped {
		fallback.ChartType = domain.ChartLine
	}

	if s.translator == nil || !s.translator.Configured() {
		return fallback
	}

	shape := "breakdown"
	if metric.IsTimeGrouped {
		shape = "trends over time"
	}
	prompt := fmt.Sprintf("Show %s %s", metric.Name, shape)

	spec, err := s.translator.Translate(ctx, prompt, anal)
	if err != nil {
		s.log.Warn().Err(err).Str("metric", metric.Name).Msg("Falling back to default chart spec")
		return fallback
	}
	return *spec
}

// sliceCharts fetches every chart's data in parallel and keeps the ones that
// succeed, preserving spec order for the grid layout.
func (s *Service) sliceCharts(ctx context.Context, specs []domain.ChartSpec) []Chart {
	results := make([]*domain.ChartData, len(specs))

	var g errgroup.Group
	g.SetLimit(sliceConcurrency)

	var mu sync.Mutex
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			data, err := s.slicer.Slice(ctx, spec)
			if err != nil {
				s.log.Error().Err(err).Str("metric", spec.Metric).Msg("Failed to slice chart data")
				return nil
			}
			mu.Lock()
			results[i] = data
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	charts := make([]Chart, 0, len(specs))
	for i, spec := range specs {
		if results[i] == nil {
			continue
		}
		idx := len(charts)
		charts = append(charts, Chart{
			ID:        fmt.Sprintf("chart_%d", idx+1),
			ChartType: spec.ChartType,
			Metric:    spec.Metric,
			DateRange: spec.DateRange,
			GroupBy:   spec.GroupBy,
			Title:     chartTitle(spec.Metric, spec.ChartType),
			Data:      results[i],
			Row:       idx/2 + 1,
			Col:       idx%2 + 1,
			Span:      4,
		})
	}

	return charts
}

// chartTitle builds a human-readable title from the metric's last path
// segment and the chart kind.
func chartTitle(metricName string, chartType domain.ChartType) string {
	segment := metricName
	if i := strings.LastIndex(metricName, "."); i >= 0 {
		segment = metricName[i+1:]
	}

	name := capitalize(utils.Humanize(segment))

	suffix := "Analysis"
	switch chartType {
	case domain.ChartLine:
		suffix = "Trends"
	case domain.ChartBar:
		suffix = "Comparison"
	case domain.ChartStackedBar:
		suffix = "Breakdown"
	case domain.ChartHeatmap:
		suffix = "Pattern Analysis"
	case domain.ChartWaterfall:
		suffix = "Impact Analysis"
	}

	return name + " " + suffix
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func (s *Service) dashboardID() string {
	return fmt.Sprintf("dashboard_%d_%s", s.nowFn().Unix(), randomString(9))
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}
