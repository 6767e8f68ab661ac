package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/domain"
)

// JobRunner runs a notification job synchronously.
type JobRunner interface {
	RunKind(ctx context.Context, kind domain.JobKind) (*domain.Summary, error)
}

type JobHandler struct {
	runner JobRunner
}

func NewJobHandler(runner JobRunner) (*JobHandler, error) {
	if runner == nil {
		return nil, fmt.Errorf("job runner is required")
	}
	return &JobHandler{runner: runner}, nil
}

type failureItem struct {
	EmployeeID          string `json:"employeeId"`
	Recipient           string `json:"recipient"`
	Reason              string `json:"reason"`
	SubscriptionCleared bool   `json:"subscriptionCleared"`
}

type runSummaryResponse struct {
	RunID      string        `json:"runId"`
	Job        string        `json:"job"`
	Kind       string        `json:"kind"`
	Sent       int           `json:"sent"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Failures   []failureItem `json:"failures"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
}

// RunJob handles POST /jobs/:kind/run. The response is returned after every
// recipient has been attempted.
func (h *JobHandler) RunJob(c *fiber.Ctx) error {
	kind, err := domain.ParseJobKindFromString(c.Params("kind"))
	if err != nil {
		return toHTTPError(err)
	}

	summary, err := h.runner.RunKind(c.Context(), kind)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRunSummaryResponse(summary))
}

func toRunSummaryResponse(s *domain.Summary) runSummaryResponse {
	if s == nil {
		return runSummaryResponse{Failures: []failureItem{}}
	}

	failures := make([]failureItem, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, failureItem{
			EmployeeID:          f.EmployeeID,
			Recipient:           f.RecipientName,
			Reason:              f.Reason,
			SubscriptionCleared: f.SubscriptionCleared,
		})
	}

	return runSummaryResponse{
		RunID:      s.RunID,
		Job:        s.Job,
		Kind:       s.Kind.String(),
		Sent:       s.Sent,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		Failures:   failures,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}
