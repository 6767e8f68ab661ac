package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/observability"
	"github.com/kursadbilgin/wsr-notifier/internal/provider"
	"github.com/kursadbilgin/wsr-notifier/internal/ratelimit"
	"go.uber.org/zap"
)

const unknownPushService = "unknown"

// SubscriptionStore is the directory write the dispatcher needs.
type SubscriptionStore interface {
	ClearPushSubscription(ctx context.Context, id string) error
}

// Dispatcher delivers one message to one employee. Every failure, including a
// panic in the provider, ends up in the returned Outcome.
type Dispatcher struct {
	provider      provider.Provider
	subscriptions SubscriptionStore
	rateLimiter   ratelimit.RateLimiter
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

func NewDispatcher(
	provider provider.Provider,
	subscriptions SubscriptionStore,
	rateLimiter ratelimit.RateLimiter,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("push provider is required")
	}
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		provider:      provider,
		subscriptions: subscriptions,
		rateLimiter:   rateLimiter,
		logger:        logger,
		now:           time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Dispatch renders tmpl for employee and sends it. jobLabel only tags logs and
// metrics.
func (d *Dispatcher) Dispatch(ctx context.Context, jobLabel string, employee domain.Employee, tmpl domain.MessageTemplate) (outcome domain.Outcome) {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome = domain.Outcome{
		EmployeeID:    employee.ID,
		RecipientName: employee.DisplayName(),
	}
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = domain.OutcomeFailed
			outcome.Reason = fmt.Sprintf("dispatch panicked: %v", r)
			observability.WithContextLogger(d.logger, ctx).Error("push dispatch panicked",
				zap.String("job", jobLabel),
				zap.String("employeeId", employee.ID),
				zap.Any("panic", r),
			)
		}
		d.metrics.IncPushOutcome(jobLabel, outcome.Status.String())
	}()

	if !employee.HasSubscription() {
		outcome.Status = domain.OutcomeSkipped
		outcome.Reason = "no push subscription"
		return outcome
	}

	d.metrics.IncDispatchInFlight(jobLabel)
	defer d.metrics.DecDispatchInFlight(jobLabel)

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, pushServiceHost(employee.PushSubscription)); err != nil {
			outcome.Status = domain.OutcomeFailed
			outcome.Reason = fmt.Sprintf("rate limiter wait failed: %v", err)
			return outcome
		}
	}

	payload := tmpl.Render(outcome.RecipientName)
	sendStart := d.now()
	_, sendErr := d.provider.Send(ctx, employee.PushSubscription, payload)
	d.metrics.ObservePushSendDuration(jobLabel, d.now().Sub(sendStart))

	if sendErr == nil {
		outcome.Status = domain.OutcomeSent
		return outcome
	}

	outcome.Status = domain.OutcomeFailed
	outcome.Reason = sendErr.Error()

	if provider.IsGone(sendErr) {
		if err := d.subscriptions.ClearPushSubscription(ctx, employee.ID); err != nil {
			observability.WithContextLogger(d.logger, ctx).Error("failed to clear expired push subscription",
				zap.String("job", jobLabel),
				zap.String("employeeId", employee.ID),
				zap.Error(err),
			)
			outcome.Reason = fmt.Sprintf("%s (subscription cleanup failed: %v)", outcome.Reason, err)
			return outcome
		}
		outcome.SubscriptionCleared = true
		d.metrics.IncSubscriptionPruned()
		observability.WithContextLogger(d.logger, ctx).Info("cleared expired push subscription",
			zap.String("job", jobLabel),
			zap.String("employeeId", employee.ID),
		)
	}

	return outcome
}

// pushServiceHost picks the rate limit bucket for a subscription without
// interpreting anything beyond its endpoint URL.
func pushServiceHost(sub domain.PushSubscription) string {
	var descriptor struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(sub, &descriptor); err != nil {
		return unknownPushService
	}

	parsed, err := url.Parse(strings.TrimSpace(descriptor.Endpoint))
	if err != nil || parsed.Hostname() == "" {
		return unknownPushService
	}
	return strings.ToLower(parsed.Hostname())
}
