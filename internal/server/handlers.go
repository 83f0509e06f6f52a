package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/events"
	"github.com/finboard/finboard/internal/modules/analysis"
	"github.com/finboard/finboard/internal/modules/audit"
	"github.com/finboard/finboard/internal/modules/dashboard"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "finboard",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleChat turns a natural-language prompt into a single sliced chart.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ChatRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()

	anal, err := s.metrics.Analysis(ctx, req.DateRange)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	spec := s.translatePrompt(ctx, req.Prompt, anal)
	if spec == nil {
		s.writeError(w, http.StatusBadRequest, "could not match the request to any available metric")
		return
	}

	// The explicit request body range wins over whatever the translator
	// (or its fallback) picked.
	if req.DateRange != "" {
		spec.DateRange = req.DateRange
	}
	if spec.DateRange == "" {
		spec.DateRange = s.defaultDateRange(anal)
	}

	data, err := s.metrics.Slice(ctx, *spec)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	durationMs := time.Since(start).Milliseconds()
	requestID := s.recordGeneration(&audit.Generation{
		Prompt:     req.Prompt,
		ChartType:  string(spec.ChartType),
		Metric:     spec.Metric,
		DateRange:  spec.DateRange,
		GroupBy:    spec.GroupBy,
		DataPoints: len(data.Dates),
		DurationMs: durationMs,
	})

	if s.bus != nil {
		s.bus.Publish(&events.ChartGeneratedData{
			RequestID:  requestID,
			ChartType:  string(spec.ChartType),
			Metric:     spec.Metric,
			DateRange:  spec.DateRange,
			DataPoints: len(data.Dates),
			DurationMs: durationMs,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"chartType":      spec.ChartType,
		"metric":         spec.Metric,
		"dateRange":      spec.DateRange,
		"groupBy":        spec.GroupBy,
		"data":           data,
		"requestId":      requestID,
		"originalPrompt": req.Prompt,
		"dataAnalysis": map[string]interface{}{
			"totalMetrics":        len(anal.AvailableMetrics),
			"suggestedChartTypes": anal.SuggestedChartTypes,
		},
	})
}

// translatePrompt produces a chart spec for the prompt, via the configured
// translator when available, otherwise via keyword matching against the
// catalog. Returns nil when no metric relates to the prompt.
func (s *Server) translatePrompt(ctx context.Context, prompt string, anal *domain.DataAnalysis) *domain.ChartSpec {
	if s.translator != nil && s.translator.Configured() {
		spec, err := s.translator.Translate(ctx, prompt, anal)
		if err == nil && spec.Metric != "" {
			return spec
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("Translator failed, falling back to keyword matching")
		}
	}

	match := analysis.FindBestMatch(prompt, anal.AvailableMetrics)
	if match == nil {
		return nil
	}

	chartType := domain.ChartBar
	if len(anal.SuggestedChartTypes) > 0 {
		chartType = anal.SuggestedChartTypes[0].ChartType
	}
	if match.IsTimeGrouped {
		chartType = domain.ChartLine
	}

	return &domain.ChartSpec{
		ChartType: chartType,
		Metric:    match.Name,
	}
}

func (s *Server) defaultDateRange(anal *domain.DataAnalysis) string {
	if anal.DateRangeAvailable != "" {
		return anal.DateRangeAvailable
	}
	return time.Now().Format("2006")
}

// handleDashboard generates a multi-chart dashboard for a prompt.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var req DashboardRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	numberOfCharts := req.NumberOfCharts
	if numberOfCharts == 0 {
		numberOfCharts = 4
	}
	includeInsights := true
	if req.IncludeInsights != nil {
		includeInsights = *req.IncludeInsights
	}

	resp, err := s.dashboard.Generate(r.Context(), dashboard.Request{
		Prompt:          req.Prompt,
		DateRange:       req.DateRange,
		NumberOfCharts:  numberOfCharts,
		IncludeInsights: includeInsights,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.recordGeneration(&audit.Generation{
		RequestID:  resp.RequestID,
		Prompt:     req.Prompt,
		ChartType:  "dashboard",
		DateRange:  req.DateRange,
		DataPoints: resp.Metadata.TotalCharts,
		DurationMs: resp.Metadata.ResponseTimeMs,
	})

	if s.bus != nil {
		s.bus.Publish(&events.DashboardGeneratedData{
			DashboardID:    resp.DashboardID,
			RequestID:      resp.RequestID,
			TotalCharts:    resp.Metadata.TotalCharts,
			ResponseTimeMs: resp.Metadata.ResponseTimeMs,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"charts":         resp.Charts,
		"insights":       resp.Insights,
		"requestId":      resp.RequestID,
		"dashboardId":    resp.DashboardID,
		"originalPrompt": req.Prompt,
		"metadata":       resp.Metadata,
	})
}

// handleFeedback records a user rating for a previously generated chart.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	if s.audit == nil {
		s.writeError(w, http.StatusServiceUnavailable, "feedback recording is disabled")
		return
	}

	err := s.audit.RecordFeedback(&audit.Feedback{
		RequestID: req.RequestID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		ChartID:   req.ChartID,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.bus != nil {
		s.bus.Publish(&events.FeedbackReceivedData{
			RequestID: req.RequestID,
			Rating:    req.Rating,
			ChartID:   req.ChartID,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Feedback recorded",
	})
}

// handleAnalysis returns the full data analysis for the requested window.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	anal, err := s.metrics.Analysis(r.Context(), r.URL.Query().Get("dateRange"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, anal)
}

// handleMetrics returns just the metric catalog.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	anal, err := s.metrics.Analysis(r.Context(), r.URL.Query().Get("dateRange"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": anal.AvailableMetrics,
		"total":   len(anal.AvailableMetrics),
	})
}

// handleAuditStats returns aggregate generation and feedback statistics.
func (s *Server) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, http.StatusServiceUnavailable, "audit log is disabled")
		return
	}

	stats, err := s.audit.Stats()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read audit stats")
		s.writeError(w, http.StatusInternalServerError, "failed to read audit stats")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// handleAuditRecent returns the most recent chart generations.
func (s *Server) handleAuditRecent(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, http.StatusServiceUnavailable, "audit log is disabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	if limit <= 0 && s.cfg != nil {
		limit = s.cfg.AuditRetainN
	}

	generations, err := s.audit.Recent(limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read recent generations")
		s.writeError(w, http.StatusInternalServerError, "failed to read recent generations")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"generations": generations,
		"total":       len(generations),
	})
}

// recordGeneration writes an audit entry when auditing is enabled, and always
// returns a usable request ID.
func (s *Server) recordGeneration(g *audit.Generation) string {
	if s.audit == nil || (s.cfg != nil && !s.cfg.WriteAuditLog) {
		if g.RequestID != "" {
			return g.RequestID
		}
		return uuid.NewString()
	}

	requestID, err := s.audit.RecordGeneration(g)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to record generation audit entry")
		if g.RequestID != "" {
			return g.RequestID
		}
		return uuid.NewString()
	}
	return requestID
}

// writeDomainError maps domain errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var notFound *domain.MetricNotFoundError
	var unsupported *domain.UnsupportedMetricTypeError

	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidMetricName), errors.Is(err, domain.ErrInvalidDateRange):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &unsupported):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstreamAuthMissing):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstreamFetch):
		status = http.StatusBadGateway
	default:
		s.log.Error().Err(err).Msg("Unhandled error serving request")
		message = "internal server error"
	}

	s.writeError(w, status, message)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
