package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wsr_notifier"

// Metrics stores Prometheus collectors used by the API and job runs.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	pushOutcomesTotal        *prometheus.CounterVec
	pushSendDuration         *prometheus.HistogramVec
	subscriptionsPrunedTotal prometheus.Counter
	jobRunsTotal             *prometheus.CounterVec
	jobRunDuration           *prometheus.HistogramVec
	dispatchInflight         *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		pushOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "push_outcomes_total",
				Help:      "Push dispatch outcomes grouped by job and status.",
			},
			[]string{"job", "status"},
		),
		pushSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "push_send_duration_seconds",
				Help:      "Push service round-trip duration in seconds grouped by job.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"job"},
		),
		subscriptionsPrunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_pruned_total",
				Help:      "Subscriptions cleared after the push service reported them gone.",
			},
		),
		jobRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Job runs grouped by job and result.",
			},
			[]string{"job", "result"},
		),
		jobRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_run_duration_seconds",
				Help:      "Wall-clock duration of completed job runs.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
			},
			[]string{"job"},
		),
		dispatchInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_inflight",
				Help:      "Current number of in-flight push dispatches grouped by job.",
			},
			[]string{"job"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.pushOutcomesTotal,
		m.pushSendDuration,
		m.subscriptionsPrunedTotal,
		m.jobRunsTotal,
		m.jobRunDuration,
		m.dispatchInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncPushOutcome(job string, status string) {
	if m == nil {
		return
	}
	m.pushOutcomesTotal.WithLabelValues(normalizeLabel(job), normalizeLabel(status)).Inc()
}

func (m *Metrics) ObservePushSendDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pushSendDuration.WithLabelValues(normalizeLabel(job)).Observe(nonNegativeSeconds(duration))
}

func (m *Metrics) IncSubscriptionPruned() {
	if m == nil {
		return
	}
	m.subscriptionsPrunedTotal.Inc()
}

// IncJobRun records a run with result "completed", "empty", "skipped" or "failed".
func (m *Metrics) IncJobRun(job string, result string) {
	if m == nil {
		return
	}
	m.jobRunsTotal.WithLabelValues(normalizeLabel(job), normalizeLabel(result)).Inc()
}

func (m *Metrics) ObserveJobRunDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobRunDuration.WithLabelValues(normalizeLabel(job)).Observe(nonNegativeSeconds(duration))
}

func (m *Metrics) IncDispatchInFlight(job string) {
	if m == nil {
		return
	}
	m.dispatchInflight.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *Metrics) DecDispatchInFlight(job string) {
	if m == nil {
		return
	}
	m.dispatchInflight.WithLabelValues(normalizeLabel(job)).Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func nonNegativeSeconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
