package service

import (
	"context"
	"sync"
	"time"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/provider"
	"github.com/kursadbilgin/wsr-notifier/internal/ratelimit"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"github.com/kursadbilgin/wsr-notifier/internal/runlock"
)

type fakeEmployeeRepo struct {
	mu sync.Mutex

	listActiveFn       func(ctx context.Context) ([]domain.Employee, error)
	listActiveExceptFn func(ctx context.Context, excludeIDs []string) ([]domain.Employee, error)
	getByIDFn          func(ctx context.Context, id string) (*domain.Employee, error)
	setSubscriptionFn  func(ctx context.Context, id string, sub domain.PushSubscription) error
	clearSubscription  func(ctx context.Context, id string) error
	updateActiveFn     func(ctx context.Context, id string, active bool) error
	listSubscriptionFn func(ctx context.Context) ([]repository.SubscriptionStatus, error)

	cleared []string
}

func (f *fakeEmployeeRepo) ListActiveEmployees(ctx context.Context) ([]domain.Employee, error) {
	if f.listActiveFn != nil {
		return f.listActiveFn(ctx)
	}
	return nil, nil
}

func (f *fakeEmployeeRepo) ListActiveEmployeesExcept(ctx context.Context, excludeIDs []string) ([]domain.Employee, error) {
	if f.listActiveExceptFn != nil {
		return f.listActiveExceptFn(ctx, excludeIDs)
	}
	return nil, nil
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEmployeeRepo) SetPushSubscription(ctx context.Context, id string, sub domain.PushSubscription) error {
	if f.setSubscriptionFn != nil {
		return f.setSubscriptionFn(ctx, id, sub)
	}
	return nil
}

func (f *fakeEmployeeRepo) ClearPushSubscription(ctx context.Context, id string) error {
	f.mu.Lock()
	f.cleared = append(f.cleared, id)
	f.mu.Unlock()

	if f.clearSubscription != nil {
		return f.clearSubscription(ctx, id)
	}
	return nil
}

func (f *fakeEmployeeRepo) UpdateActive(ctx context.Context, id string, active bool) error {
	if f.updateActiveFn != nil {
		return f.updateActiveFn(ctx, id, active)
	}
	return nil
}

func (f *fakeEmployeeRepo) ListSubscriptionStatus(ctx context.Context) ([]repository.SubscriptionStatus, error) {
	if f.listSubscriptionFn != nil {
		return f.listSubscriptionFn(ctx)
	}
	return nil, nil
}

func (f *fakeEmployeeRepo) clearedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

var _ repository.EmployeeRepository = (*fakeEmployeeRepo)(nil)

type fakeReportRepo struct {
	distinctSinceFn func(ctx context.Context, since time.Time) ([]string, error)
}

func (f *fakeReportRepo) DistinctEmployeeIDsSince(ctx context.Context, since time.Time) ([]string, error) {
	if f.distinctSinceFn != nil {
		return f.distinctSinceFn(ctx, since)
	}
	return nil, nil
}

var _ repository.ReportRepository = (*fakeReportRepo)(nil)

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	sendFn func(ctx context.Context, sub domain.PushSubscription, payload domain.PushPayload) (*provider.ProviderResponse, error)
}

func (f *fakeProvider) Send(ctx context.Context, sub domain.PushSubscription, payload domain.PushPayload) (*provider.ProviderResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, sub, payload)
	}
	return &provider.ProviderResponse{StatusCode: 201}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, bucket string) (bool, error)
	waitFn  func(ctx context.Context, bucket string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, bucket string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, bucket)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, bucket string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, bucket)
	}
	return nil
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

type fakeDispatcher struct {
	dispatchFn func(ctx context.Context, jobLabel string, employee domain.Employee, tmpl domain.MessageTemplate) domain.Outcome
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, jobLabel string, employee domain.Employee, tmpl domain.MessageTemplate) domain.Outcome {
	if f.dispatchFn != nil {
		return f.dispatchFn(ctx, jobLabel, employee, tmpl)
	}
	return domain.Outcome{EmployeeID: employee.ID, RecipientName: employee.DisplayName(), Status: domain.OutcomeSent}
}

type fakeRecipientSource struct {
	selectFn func(ctx context.Context, kind domain.JobKind) ([]domain.Employee, error)
}

func (f *fakeRecipientSource) Select(ctx context.Context, kind domain.JobKind) ([]domain.Employee, error) {
	if f.selectFn != nil {
		return f.selectFn(ctx, kind)
	}
	return nil, nil
}

type fakeLocker struct {
	acquireFn func(ctx context.Context, key string, ttl time.Duration) (runlock.Lease, error)
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (runlock.Lease, error) {
	if f.acquireFn != nil {
		return f.acquireFn(ctx, key, ttl)
	}
	return &fakeLease{}, nil
}

type fakeLease struct {
	mu       sync.Mutex
	released int
}

func (f *fakeLease) Release(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
	return nil
}

type fakeKindRunner struct {
	mu    sync.Mutex
	kinds []domain.JobKind
	runFn func(ctx context.Context, kind domain.JobKind) (*domain.Summary, error)
}

func (f *fakeKindRunner) RunKind(ctx context.Context, kind domain.JobKind) (*domain.Summary, error) {
	f.mu.Lock()
	f.kinds = append(f.kinds, kind)
	f.mu.Unlock()

	if f.runFn != nil {
		return f.runFn(ctx, kind)
	}
	return &domain.Summary{Kind: kind}, nil
}

func activeEmployee(id, name string, sub string) domain.Employee {
	employee := domain.Employee{
		ID:       id,
		UserID:   id + "@conspicuous.com",
		Name:     name,
		Role:     domain.RoleEmployee,
		IsActive: true,
	}
	if sub != "" {
		employee.PushSubscription = domain.PushSubscription(sub)
	}
	return employee
}
