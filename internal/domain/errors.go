package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the slicing and upstream boundaries. Handlers map these
// to HTTP status codes; anything else is treated as an internal failure.
var (
	// ErrInvalidMetricName is returned when a metric name is empty or blank.
	ErrInvalidMetricName = errors.New("metric name is required")

	// ErrInvalidDateRange is returned when a date range fails the accepted
	// format set (YYYY, YYYY-MM, YYYY-MM-DD, or isoStart,isoEnd).
	ErrInvalidDateRange = errors.New("date range must be in YYYY, YYYY-MM, YYYY-MM-DD, or custom range format")

	// ErrUpstreamAuthMissing is returned when no API token is configured for
	// the upstream metrics API. Kept distinct from fetch failures so callers
	// can tell "no credentials" from "fetch failed".
	ErrUpstreamAuthMissing = errors.New("upstream API token is required")

	// ErrUpstreamFetch wraps any failure talking to the upstream metrics API.
	ErrUpstreamFetch = errors.New("failed to fetch data from upstream metrics API")
)

// MetricNotFoundError is returned when neither an exact nor a substring match
// exists for the requested metric. The message enumerates every available
// metric so callers can present alternatives.
type MetricNotFoundError struct {
	Metric    string
	Available []string
}

func (e *MetricNotFoundError) Error() string {
	return fmt.Sprintf("metric %q not found in dataset. Available metrics: %s",
		e.Metric, strings.Join(e.Available, ", "))
}

// UnsupportedMetricTypeError is returned when a descriptor carries a type the
// slicer has no strategy for, or a dynamic-key container has no numeric field.
type UnsupportedMetricTypeError struct {
	Type   MetricType
	Reason string
}

func (e *UnsupportedMetricTypeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported metric type %q: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("unsupported metric type %q", e.Type)
}
