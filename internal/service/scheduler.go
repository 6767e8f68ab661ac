package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/observability"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trigger binds a five-field cron expression to a job kind.
type Trigger struct {
	Name string
	Spec string
	Kind domain.JobKind
}

// DefaultTriggers are the weekly WSR triggers, interpreted in the scheduler's
// location.
func DefaultTriggers() []Trigger {
	return []Trigger{
		{Name: "saturday-morning-reminder", Spec: "30 10 * * 6", Kind: domain.JobKindReminder},
		{Name: "saturday-evening-reminder", Spec: "0 17 * * 6", Kind: domain.JobKindReminder},
		{Name: "saturday-final-reminder", Spec: "30 17 * * 6", Kind: domain.JobKindReminder},
		{Name: "monday-follow-up", Spec: "30 10 * * 1", Kind: domain.JobKindFollowUp},
	}
}

// KindRunner is the part of JobRunner the scheduler calls.
type KindRunner interface {
	RunKind(ctx context.Context, kind domain.JobKind) (*domain.Summary, error)
}

type scheduledTrigger struct {
	trigger  Trigger
	schedule cron.Schedule
	entryID  cron.EntryID
}

// Scheduler owns the process-lifetime trigger registry. Triggers are fixed at
// construction.
type Scheduler struct {
	runner   KindRunner
	cron     *cron.Cron
	location *time.Location
	logger   *zap.Logger
	triggers []scheduledTrigger
}

func NewScheduler(runner KindRunner, location *time.Location, triggers []Trigger, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("job runner is required")
	}
	if location == nil {
		return nil, fmt.Errorf("scheduler location is required")
	}
	if len(triggers) == 0 {
		return nil, fmt.Errorf("at least one trigger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := cron.New(
		cron.WithLocation(location),
		cron.WithLogger(observability.CronLogger(logger)),
		cron.WithChain(cron.Recover(observability.CronLogger(logger))),
	)

	s := &Scheduler{
		runner:   runner,
		cron:     c,
		location: location,
		logger:   logger,
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for _, trigger := range triggers {
		if !trigger.Kind.IsValid() {
			return nil, fmt.Errorf("%w: trigger %q has invalid job kind %q", domain.ErrValidation, trigger.Name, trigger.Kind)
		}

		schedule, err := parser.Parse(trigger.Spec)
		if err != nil {
			return nil, fmt.Errorf("%w: trigger %q: %v", domain.ErrValidation, trigger.Name, err)
		}

		trigger := trigger
		entryID := c.Schedule(schedule, cron.FuncJob(func() { s.fire(trigger) }))
		s.triggers = append(s.triggers, scheduledTrigger{
			trigger:  trigger,
			schedule: schedule,
			entryID:  entryID,
		})
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, st := range s.triggers {
		s.logger.Info("scheduler trigger registered",
			zap.String("trigger", st.trigger.Name),
			zap.String("spec", st.trigger.Spec),
			zap.String("job", st.trigger.Kind.Label()),
			zap.String("timezone", s.location.String()),
			zap.Time("nextRun", st.schedule.Next(time.Now().In(s.location))),
		)
	}
}

// Stop halts new fires and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) Triggers() []Trigger {
	triggers := make([]Trigger, 0, len(s.triggers))
	for _, st := range s.triggers {
		triggers = append(triggers, st.trigger)
	}
	return triggers
}

// NextRuns returns the next fire time of each trigger after t, in the
// scheduler's location and in registration order.
func (s *Scheduler) NextRuns(after time.Time) []time.Time {
	next := make([]time.Time, 0, len(s.triggers))
	for _, st := range s.triggers {
		next = append(next, st.schedule.Next(after.In(s.location)))
	}
	return next
}

// fire runs a trigger. Errors stop at this boundary so the cron loop keeps
// ticking.
func (s *Scheduler) fire(trigger Trigger) {
	logger := s.logger.With(
		zap.String("trigger", trigger.Name),
		zap.String("job", trigger.Kind.Label()),
	)
	logger.Info("scheduler trigger fired")

	summary, err := s.runner.RunKind(context.Background(), trigger.Kind)
	switch {
	case errors.Is(err, domain.ErrConflict):
		logger.Warn("scheduler trigger skipped", zap.Error(err))
	case err != nil:
		logger.Error("scheduled notification run failed", zap.Error(err))
	case summary != nil:
		logger.Info("scheduler trigger finished",
			zap.String("runId", summary.RunID),
			zap.Int("total", summary.Total()),
		)
	}
}

var (
	_ KindRunner      = (*JobRunner)(nil)
	_ PushDispatcher  = (*Dispatcher)(nil)
	_ RecipientSource = (*RecipientSelector)(nil)
)
