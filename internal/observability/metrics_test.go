package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsDispatchCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncPushOutcome("weekly-reminder", "SENT")
	metrics.IncPushOutcome("weekly-reminder", "sent")
	metrics.IncPushOutcome("weekly-reminder", "FAILED")
	metrics.ObservePushSendDuration("weekly-reminder", 120*time.Millisecond)
	metrics.IncSubscriptionPruned()
	metrics.IncDispatchInFlight("weekly-reminder")
	metrics.DecDispatchInFlight("weekly-reminder")

	if got := testutil.ToFloat64(metrics.pushOutcomesTotal.WithLabelValues("weekly-reminder", "sent")); got != 2 {
		t.Fatalf("push_outcomes_total{sent} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.pushOutcomesTotal.WithLabelValues("weekly-reminder", "failed")); got != 1 {
		t.Fatalf("push_outcomes_total{failed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.subscriptionsPrunedTotal); got != 1 {
		t.Fatalf("subscriptions_pruned_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.dispatchInflight.WithLabelValues("weekly-reminder")); got != 0 {
		t.Fatalf("dispatch_inflight = %v, want 0", got)
	}
}

func TestMetricsJobCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncJobRun("pending-follow-up", "completed")
	metrics.IncJobRun("pending-follow-up", "skipped")
	metrics.IncJobRun("", "failed")
	metrics.ObserveJobRunDuration("pending-follow-up", 2*time.Second)

	if got := testutil.ToFloat64(metrics.jobRunsTotal.WithLabelValues("pending-follow-up", "completed")); got != 1 {
		t.Fatalf("job_runs_total{completed} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.jobRunsTotal.WithLabelValues("unknown", "failed")); got != 1 {
		t.Fatalf("job_runs_total{unknown,failed} = %v, want 1", got)
	}
}

func TestMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncPushOutcome("job", "sent")
	metrics.IncSubscriptionPruned()
	metrics.IncJobRun("job", "completed")
	metrics.ObserveJobRunDuration("job", time.Second)
	if metrics.Handler() == nil {
		t.Fatal("Handler() should fall back to the default handler")
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsErrorStatus(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Post("/v1/admin/jobs/:kind/run", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	req := httptest.NewRequest("POST", "/v1/admin/jobs/reminder/run", nil)
	_, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("POST", "/v1/admin/jobs/:kind/run", "500")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}
