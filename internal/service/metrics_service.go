package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "lapanclass"

// Leave workflow outcomes counted by RecordLeaveDecision.
const (
	LeaveDecisionSubmitted = "submitted"
	LeaveDecisionApproved  = "approved"
	LeaveDecisionRejected  = "rejected"
)

// MetricsSnapshot is the JSON view of the collectors served to admins.
type MetricsSnapshot struct {
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	HolidayCacheHits         uint64            `json:"holiday_cache_hits"`
	HolidayCacheMisses       uint64            `json:"holiday_cache_misses"`
	HolidayCacheHitRatio     float64           `json:"holiday_cache_hit_ratio"`
	AttendanceWrites         uint64            `json:"attendance_writes"`
	LeaveDecisions           map[string]uint64 `json:"leave_decisions"`
	RecapExports             uint64            `json:"recap_exports"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}

// MetricsService owns the Prometheus registry of the API. Counters that the admin snapshot
// reports are mirrored in atomics so the snapshot never has to gather the registry.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpDuration  *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cacheWrites   *prometheus.HistogramVec
	attendanceOps *prometheus.CounterVec
	leaveOutcomes *prometheus.CounterVec
	proofBytes    prometheus.Histogram
	recapRenders  *prometheus.HistogramVec

	requests     atomic.Uint64
	requestNanos atomic.Uint64
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	writes       atomic.Uint64
	exports      atomic.Uint64
	leaveSubmit  atomic.Uint64
	leaveApprove atomic.Uint64
	leaveReject  atomic.Uint64
}

// NewMetricsService registers the API collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &MetricsService{
		registry: registry,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route and status.",
		}, []string{"method", "route", "status"}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "holiday_cache",
			Name:      "lookups_total",
			Help:      "Holiday registry cache lookups by result.",
		}, []string{"result"}),
		cacheWrites: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "holiday_cache",
			Name:      "write_seconds",
			Help:      "Time spent storing a month of holidays in Redis.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5},
		}, []string{"outcome"}),
		attendanceOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "attendance",
			Name:      "writes_total",
			Help:      "Attendance rows written, by operation.",
		}, []string{"operation"}),
		leaveOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "leave",
			Name:      "requests_total",
			Help:      "Leave requests by workflow outcome.",
		}, []string{"decision"}),
		proofBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "leave",
			Name:      "proof_bytes",
			Help:      "Size of stored leave proof files.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 9),
		}),
		recapRenders: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "export",
			Name:      "recap_render_seconds",
			Help:      "Time spent rendering attendance recaps, by format.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "holiday_cache",
		Name:      "hit_ratio",
		Help:      "Share of holiday registry lookups served from Redis.",
	}, m.holidayHitRatio)
	return m
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

// ObserveHTTPRequest records one served request under its route template.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.requests.Add(1)
	m.requestNanos.Add(uint64(duration.Nanoseconds()))
}

// RecordCacheOperation counts a holiday cache lookup. Backend errors count as misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.cacheMisses.Add(1)
}

// ObserveCacheWrite tracks how long storing a cache entry took.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.cacheWrites.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordAttendanceWrites counts attendance rows written by an operation.
func (m *MetricsService) RecordAttendanceWrites(operation string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.attendanceOps.WithLabelValues(operation).Add(float64(count))
	m.writes.Add(uint64(count))
}

// RecordLeaveDecision counts a leave request reaching the given workflow state.
func (m *MetricsService) RecordLeaveDecision(decision string) {
	if m == nil {
		return
	}
	m.leaveOutcomes.WithLabelValues(decision).Inc()
	switch decision {
	case LeaveDecisionSubmitted:
		m.leaveSubmit.Add(1)
	case LeaveDecisionApproved:
		m.leaveApprove.Add(1)
	case LeaveDecisionRejected:
		m.leaveReject.Add(1)
	}
}

// ObserveProofUpload records the size of a stored proof file.
func (m *MetricsService) ObserveProofUpload(size int) {
	if m == nil {
		return
	}
	m.proofBytes.Observe(float64(size))
}

// ObserveRecapRender records a rendered recap download.
func (m *MetricsService) ObserveRecapRender(format string, duration time.Duration) {
	if m == nil {
		return
	}
	m.recapRenders.WithLabelValues(format).Observe(duration.Seconds())
	m.exports.Add(1)
}

func (m *MetricsService) holidayHitRatio() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns aggregated counters for the admin endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	requests := m.requests.Load()
	var avgMs float64
	if requests > 0 {
		avgMs = float64(m.requestNanos.Load()) / float64(requests) / float64(time.Millisecond)
	}
	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgMs,
		HolidayCacheHits:         m.cacheHits.Load(),
		HolidayCacheMisses:       m.cacheMisses.Load(),
		HolidayCacheHitRatio:     m.holidayHitRatio(),
		AttendanceWrites:         m.writes.Load(),
		LeaveDecisions: map[string]uint64{
			LeaveDecisionSubmitted: m.leaveSubmit.Load(),
			LeaveDecisionApproved:  m.leaveApprove.Load(),
			LeaveDecisionRejected:  m.leaveReject.Load(),
		},
		RecapExports: m.exports.Load(),
		Goroutines:   runtime.NumGoroutine(),
		GeneratedAt:  time.Now().UTC(),
	}
}
