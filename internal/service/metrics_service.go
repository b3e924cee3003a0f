package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation and keeps a few
// counters for the gateway's status endpoint.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	remoteDuration  *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	batchRows       *prometheus.CounterVec
	badgeHits       prometheus.Counter
	badgeMisses     prometheus.Counter
	badgeWrites     prometheus.Counter

	requestCount      uint64
	remoteCount       uint64
	remoteFailures    uint64
	badgeHitCount     uint64
	badgeMissCount    uint64
	transitionCount   uint64
	transitionFailure uint64
}

// MetricsSnapshot is a lightweight summary of gateway activity.
type MetricsSnapshot struct {
	RequestsTotal      uint64    `json:"requests_total"`
	RemoteCallsTotal   uint64    `json:"remote_calls_total"`
	RemoteFailures     uint64    `json:"remote_failures"`
	BadgeHitRatio      float64   `json:"badge_hit_ratio"`
	TransitionsTotal   uint64    `json:"transitions_total"`
	TransitionFailures uint64    `json:"transition_failures"`
	Goroutines         int       `json:"goroutines"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of gateway requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Total number of gateway requests",
	}, []string{"method", "path", "status"})

	remoteDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_call_duration_seconds",
		Help:    "Duration of calls to the result service",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "result_transitions_total",
		Help: "Result lifecycle actions by outcome",
	}, []string{"action", "outcome"})

	batchRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "score_batch_rows_total",
		Help: "Score rows sent in draft and correction batches",
	}, []string{"outcome"})

	badgeHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "badge_cache_hits_total",
		Help: "Badge lookups answered from the cache",
	})

	badgeMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "badge_cache_misses_total",
		Help: "Badge lookups with no cached status",
	})

	badgeWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "badge_cache_writes_total",
		Help: "Badge updates",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, remoteDuration, transitions, batchRows, badgeHits, badgeMisses, badgeWrites, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		remoteDuration:  remoteDuration,
		transitions:     transitions,
		batchRows:       batchRows,
		badgeHits:       badgeHits,
		badgeMisses:     badgeMisses,
		badgeWrites:     badgeWrites,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one gateway request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveRemoteCall records one round trip to the result service. Status 0
// means the request never got an answer.
func (m *MetricsService) ObserveRemoteCall(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.remoteDuration.WithLabelValues(method, endpoint, strconv.Itoa(status)).Observe(duration.Seconds())
	atomic.AddUint64(&m.remoteCount, 1)
	if status == 0 || status >= http.StatusBadRequest {
		atomic.AddUint64(&m.remoteFailures, 1)
	}
}

// RecordTransition counts a lifecycle action attempt.
func (m *MetricsService) RecordTransition(action string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
		atomic.AddUint64(&m.transitionFailure, 1)
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordBatch counts rows sent in a score batch.
func (m *MetricsService) RecordBatch(succeeded, failed int) {
	if m == nil {
		return
	}
	m.batchRows.WithLabelValues("success").Add(float64(succeeded))
	m.batchRows.WithLabelValues("failure").Add(float64(failed))
}

// RecordCacheOperation records a badge lookup.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.badgeHits.Inc()
		atomic.AddUint64(&m.badgeHitCount, 1)
		return
	}
	m.badgeMisses.Inc()
	atomic.AddUint64(&m.badgeMissCount, 1)
}

// RecordCacheWrite counts a badge update.
func (m *MetricsService) RecordCacheWrite() {
	if m == nil {
		return
	}
	m.badgeWrites.Inc()
}

// Snapshot returns the aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.badgeHitCount)
	misses := atomic.LoadUint64(&m.badgeMissCount)
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return MetricsSnapshot{
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		RemoteCallsTotal:   atomic.LoadUint64(&m.remoteCount),
		RemoteFailures:     atomic.LoadUint64(&m.remoteFailures),
		BadgeHitRatio:      ratio,
		TransitionsTotal:   atomic.LoadUint64(&m.transitionCount),
		TransitionFailures: atomic.LoadUint64(&m.transitionFailure),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
}
