package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/observability"
	"github.com/kursadbilgin/wsr-notifier/internal/runlock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minDispatchConcurrency = 1
	defaultJobLockTTL      = 30 * time.Minute
	lockReleaseTimeout     = 5 * time.Second
	jobLockKeyPrefix       = "wsr:job-lock:"
)

// RecipientSource resolves the target set of a job kind.
type RecipientSource interface {
	Select(ctx context.Context, kind domain.JobKind) ([]domain.Employee, error)
}

// PushDispatcher delivers a rendered message to one employee and never fails.
type PushDispatcher interface {
	Dispatch(ctx context.Context, jobLabel string, employee domain.Employee, tmpl domain.MessageTemplate) domain.Outcome
}

// JobRunner runs select -> fan-out dispatch -> fan-in -> summarize. Scheduled
// and on-demand runs share the same path.
type JobRunner struct {
	recipients  RecipientSource
	dispatcher  PushDispatcher
	locker      runlock.Locker
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	lockTTL     time.Duration
	now         func() time.Time
	newRunID    func() string
}

func NewJobRunner(
	recipients RecipientSource,
	dispatcher PushDispatcher,
	locker runlock.Locker,
	concurrency int,
	lockTTL time.Duration,
	logger *zap.Logger,
) (*JobRunner, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient source is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("push dispatcher is required")
	}
	if concurrency < minDispatchConcurrency {
		concurrency = minDispatchConcurrency
	}
	if lockTTL <= 0 {
		lockTTL = defaultJobLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &JobRunner{
		recipients:  recipients,
		dispatcher:  dispatcher,
		locker:      locker,
		logger:      logger,
		concurrency: concurrency,
		lockTTL:     lockTTL,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}, nil
}

func (r *JobRunner) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// RunKind runs kind with its built-in message template.
func (r *JobRunner) RunKind(ctx context.Context, kind domain.JobKind) (*domain.Summary, error) {
	tmpl, err := domain.DefaultTemplate(kind)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, kind, tmpl)
}

// Run executes one invocation. It returns domain.ErrConflict when a run of the
// same kind holds the lock, and the selection error when recipients could not
// be resolved. Per-recipient failures only show up in the Summary.
func (r *JobRunner) Run(ctx context.Context, kind domain.JobKind, tmpl domain.MessageTemplate) (*domain.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid job kind %q", domain.ErrValidation, kind)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	label := kind.Label()
	runID := r.newRunID()
	ctx = observability.WithRunID(ctx, runID)
	logger := observability.WithContextLogger(r.logger, ctx).With(zap.String("job", label))

	release, err := r.acquire(ctx, kind, logger)
	if err != nil {
		r.metrics.IncJobRun(label, "skipped")
		return nil, err
	}
	defer release()

	startedAt := r.now()
	logger.Info("notification run started")

	recipients, err := r.recipients.Select(ctx, kind)
	if err != nil {
		logger.Error("notification run aborted: recipient selection failed", zap.Error(err))
		r.metrics.IncJobRun(label, "failed")
		return nil, fmt.Errorf("%s: %w", label, err)
	}

	if len(recipients) == 0 {
		logger.Info("nothing to do: no recipients")
		r.metrics.IncJobRun(label, "empty")
		return &domain.Summary{
			RunID:      runID,
			Job:        label,
			Kind:       kind,
			StartedAt:  startedAt,
			FinishedAt: r.now(),
		}, nil
	}

	outcomes := r.fanOut(ctx, label, recipients, tmpl)

	summary := Summarize(label, outcomes)
	summary.RunID = runID
	summary.Kind = kind
	summary.StartedAt = startedAt
	summary.FinishedAt = r.now()

	LogSummary(logger, summary)
	r.metrics.IncJobRun(label, "completed")
	r.metrics.ObserveJobRunDuration(label, summary.FinishedAt.Sub(startedAt))

	return &summary, nil
}

// fanOut dispatches to every recipient and waits for all of them. Goroutines
// never return an error, so one recipient cannot cancel the rest.
func (r *JobRunner) fanOut(ctx context.Context, label string, recipients []domain.Employee, tmpl domain.MessageTemplate) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(recipients))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range recipients {
		i := i
		g.Go(func() error {
			outcomes[i] = r.dispatcher.Dispatch(ctx, label, recipients[i], tmpl)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// acquire takes the per-kind lease. Lock store errors are logged and the run
// proceeds without a lease.
func (r *JobRunner) acquire(ctx context.Context, kind domain.JobKind, logger *zap.Logger) (func(), error) {
	noop := func() {}
	if r.locker == nil {
		return noop, nil
	}

	lease, err := r.locker.Acquire(ctx, jobLockKeyPrefix+kind.String(), r.lockTTL)
	if errors.Is(err, runlock.ErrHeld) {
		logger.Warn("notification run skipped: previous run of this job still in progress")
		return nil, fmt.Errorf("%w: %s run already in progress", domain.ErrConflict, kind.Label())
	}
	if err != nil {
		logger.Warn("run lock unavailable, continuing without it", zap.Error(err))
		return noop, nil
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil {
			logger.Warn("failed to release run lock", zap.Error(err))
		}
	}, nil
}
