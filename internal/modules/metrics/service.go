package metrics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/finboard/finboard/internal/document"
	"github.com/finboard/finboard/internal/domain"
	"github.com/finboard/finboard/internal/modules/analysis"
)

// Fetcher retrieves the raw metrics document for a date window from the
// upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, startDate, endDate string) ([]byte, error)
}

// Store is the persistent cache consulted before going upstream. A nil
// payload with a nil error is a miss.
type Store interface {
	Document(rangeKey string) ([]byte, error)
	SaveDocument(rangeKey string, raw []byte) error
	Snapshot(rangeKey string) (*domain.DataAnalysis, error)
	SaveSnapshot(rangeKey string, a *domain.DataAnalysis) error
}

type cacheEntry struct {
	doc      *document.Node
	analysis *domain.DataAnalysis
	expires  time.Time
}

// Service loads metrics documents, caches them per date-range expression, and
// slices them into chart-ready series.
type Service struct {
	fetcher  Fetcher
	store    Store
	analyzer *analysis.Service
	ttl      time.Duration
	log      zerolog.Logger
	nowFn    func() time.Time

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// NewService creates a metrics service. store may be nil when no persistent
// cache is configured.
func NewService(fetcher Fetcher, store Store, analyzer *analysis.Service, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		store:    store,
		analyzer: analyzer,
		ttl:      ttl,
		log:      log.With().Str("service", "metrics").Logger(),
		nowFn:    time.Now,
		entries:  make(map[string]*cacheEntry),
	}
}

// Load returns the document and its analysis for a date-range expression,
// serving from the in-memory cache, then the persistent store, then the
// upstream API.
func (s *Service) Load(ctx context.Context, dateRange string) (*document.Node, *domain.DataAnalysis, error) {
	window := ParseDateRange(dateRange, s.nowFn(), s.log)

	// Cache on the raw expression, not the resolved window: the default
	// trailing window embeds now(), so a window-derived key would change on
	// every request and defeat the cache entirely.
	key := dateRange
	if key == "" {
		key = "default"
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.nowFn().Before(entry.expires) {
		return entry.doc, entry.analysis, nil
	}

	doc, anal, err := s.loadWindow(ctx, key, window)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	s.entries[key] = &cacheEntry{doc: doc, analysis: anal, expires: s.nowFn().Add(s.ttl)}
	s.mu.Unlock()

	return doc, anal, nil
}

func (s *Service) loadWindow(ctx context.Context, key string, window DateWindow) (*document.Node, *domain.DataAnalysis, error) {
	if raw := s.storedDocument(key); raw != nil {
		doc, err := document.Decode(raw)
		if err == nil {
			return doc, s.analysisFor(key, doc), nil
		}
		s.log.Warn().Err(err).Str("range", key).Msg("discarding undecodable cached document")
	}

	raw, err := s.fetcher.Fetch(ctx, window.Start, window.End)
	if err != nil {
		return nil, nil, err
	}

	doc, err := document.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding metrics document: %w", err)
	}

	if s.store != nil {
		if err := s.store.SaveDocument(key, raw); err != nil {
			s.log.Warn().Err(err).Str("range", key).Msg("failed to cache document")
		}
	}

	return doc, s.analysisFor(key, doc), nil
}

func (s *Service) storedDocument(key string) []byte {
	if s.store == nil {
		return nil
	}
	raw, err := s.store.Document(key)
	if err != nil {
		s.log.Warn().Err(err).Str("range", key).Msg("document cache lookup failed")
		return nil
	}
	return raw
}

// analysisFor serves a cached analysis snapshot when one exists, otherwise
// analyzes the document and stores the result.
func (s *Service) analysisFor(key string, doc *document.Node) *domain.DataAnalysis {
	if s.store != nil {
		snap, err := s.store.Snapshot(key)
		if err != nil {
			s.log.Warn().Err(err).Str("range", key).Msg("analysis snapshot lookup failed")
		} else if snap != nil {
			return snap
		}
	}

	anal := s.analyzer.Analyze(doc)

	if s.store != nil {
		if err := s.store.SaveSnapshot(key, anal); err != nil {
			s.log.Warn().Err(err).Str("range", key).Msg("failed to cache analysis snapshot")
		}
	}
	return anal
}

// Analysis returns the schema analysis of the document for a date range.
func (s *Service) Analysis(ctx context.Context, dateRange string) (*domain.DataAnalysis, error) {
	_, anal, err := s.Load(ctx, dateRange)
	return anal, err
}

// Slice extracts the chart data for one metric of a loaded document.
func (s *Service) Slice(ctx context.Context, spec domain.ChartSpec) (*domain.ChartData, error) {
	if strings.TrimSpace(spec.Metric) == "" {
		return nil, domain.ErrInvalidMetricName
	}
	if strings.TrimSpace(spec.DateRange) == "" || !isValidDateRange(spec.DateRange) {
		return nil, domain.ErrInvalidDateRange
	}

	doc, anal, err := s.Load(ctx, spec.DateRange)
	if err != nil {
		return nil, err
	}

	metric, err := resolveMetric(spec.Metric, anal.AvailableMetrics)
	if err != nil {
		return nil, err
	}

	data, err := sliceMetric(doc, metric, spec.DateRange)
	if err != nil {
		return nil, fmt.Errorf("slicing metric %q: %w", metric.Name, err)
	}

	s.log.Debug().
		Str("metric", metric.Name).
		Str("type", string(metric.Type)).
		Int("points", len(data.Dates)).
		Msg("sliced metric")

	return data, nil
}

// resolveMetric matches a requested name against the catalog: exact
// case-insensitive first, then bidirectional substring.
func resolveMetric(name string, catalog []domain.MetricInfo) (*domain.MetricInfo, error) {
	lowered := strings.ToLower(name)

	for i := range catalog {
		if strings.ToLower(catalog[i].Name) == lowered {
			return &catalog[i], nil
		}
	}

	for i := range catalog {
		candidate := strings.ToLower(catalog[i].Name)
		if strings.Contains(candidate, lowered) || strings.Contains(lowered, candidate) {
			return &catalog[i], nil
		}
	}

	available := make([]string, len(catalog))
	for i, m := range catalog {
		available[i] = m.Name
	}
	return nil, &domain.MetricNotFoundError{Metric: name, Available: available}
}
