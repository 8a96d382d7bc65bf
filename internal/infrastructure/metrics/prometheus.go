// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clashstream"

var (
	// CacheOperationsTotal tracks in-memory cache operations.
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success
	//   - cache: tracks, searches
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "cache"},
	)

	// ExtractionAttemptsTotal tracks individual extraction strategy attempts.
	// Labels:
	//   - strategy: player client name (android, ios, ...) or "direct_url"
	//   - result: success, failure
	ExtractionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_attempts_total",
			Help:      "Total number of extraction strategy attempts",
		},
		[]string{"strategy", "result"},
	)

	// ToolInvocationsTotal tracks external tool process runs.
	// Labels:
	//   - command: probe, direct_url, search
	//   - result: success, failure
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Total number of extraction tool invocations",
		},
		[]string{"command", "result"},
	)

	// StreamRequestsTotal tracks stream proxy outcomes.
	// Labels:
	//   - result: success, failure
	StreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_requests_total",
			Help:      "Total number of stream proxy requests",
		},
		[]string{"result"},
	)

	// StreamRetriesTotal counts re-extractions triggered by stream failures.
	StreamRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_retries_total",
			Help:      "Total number of stream retries with fresh extraction",
		},
	)

	// UpstreamRedirectsTotal counts redirects followed towards media hosts.
	UpstreamRedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_redirects_total",
			Help:      "Total number of upstream redirects followed",
		},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Generic result constants.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Tool command constants.
const (
	ToolCommandProbe     = "probe"
	ToolCommandDirectURL = "direct_url"
	ToolCommandSearch    = "search"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
