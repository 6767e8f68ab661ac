package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"go.uber.org/zap"
)

func newTestEmployeeService(t *testing.T, repo *fakeEmployeeRepo, dispatcher PushDispatcher) *EmployeeService {
	t.Helper()

	svc, err := NewEmployeeService(repo, dispatcher, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEmployeeService() error = %v", err)
	}
	return svc
}

func TestEmployeeServiceSaveSubscription(t *testing.T) {
	t.Parallel()

	var gotID string
	var gotSub domain.PushSubscription
	repo := &fakeEmployeeRepo{
		setSubscriptionFn: func(ctx context.Context, id string, sub domain.PushSubscription) error {
			gotID = id
			gotSub = sub
			return nil
		},
	}

	svc := newTestEmployeeService(t, repo, &fakeDispatcher{})

	if err := svc.SaveSubscription(context.Background(), " emp-a ", []byte(fcmSubscription)); err != nil {
		t.Fatalf("SaveSubscription() error = %v", err)
	}
	if gotID != "emp-a" {
		t.Fatalf("id = %q, want emp-a", gotID)
	}
	if gotSub.IsZero() {
		t.Fatal("subscription should be stored")
	}
}

func TestEmployeeServiceSaveSubscriptionErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		id      string
		raw     string
		repoErr error
		wantErr error
	}{
		{name: "missing id", id: " ", raw: fcmSubscription, wantErr: domain.ErrValidation},
		{name: "invalid json", id: "emp-a", raw: "{", wantErr: domain.ErrValidation},
		{name: "not an object", id: "emp-a", raw: `["https://fcm.googleapis.com"]`, wantErr: domain.ErrValidation},
		{name: "unknown employee", id: "emp-z", raw: fcmSubscription, repoErr: domain.ErrNotFound, wantErr: domain.ErrNotFound},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeEmployeeRepo{
				setSubscriptionFn: func(ctx context.Context, id string, sub domain.PushSubscription) error {
					return tc.repoErr
				},
			}
			svc := newTestEmployeeService(t, repo, &fakeDispatcher{})

			if err := svc.SaveSubscription(context.Background(), tc.id, []byte(tc.raw)); !errors.Is(err, tc.wantErr) {
				t.Fatalf("SaveSubscription() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEmployeeServiceSetActive(t *testing.T) {
	t.Parallel()

	var gotActive *bool
	repo := &fakeEmployeeRepo{
		updateActiveFn: func(ctx context.Context, id string, active bool) error {
			gotActive = &active
			return nil
		},
	}
	svc := newTestEmployeeService(t, repo, &fakeDispatcher{})

	if err := svc.SetActive(context.Background(), "emp-a", false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if gotActive == nil || *gotActive {
		t.Fatal("expected active flag to be set to false")
	}
	if err := svc.SetActive(context.Background(), "", true); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("SetActive(empty id) error = %v, want ErrValidation", err)
	}
}

func TestEmployeeServiceListSubscriptionStatus(t *testing.T) {
	t.Parallel()

	repo := &fakeEmployeeRepo{
		listSubscriptionFn: func(ctx context.Context) ([]repository.SubscriptionStatus, error) {
			return []repository.SubscriptionStatus{
				{EmployeeID: "emp-a", Name: "Asha", HasSubscription: true},
				{EmployeeID: "emp-b", Name: "Bala"},
			}, nil
		},
	}
	svc := newTestEmployeeService(t, repo, &fakeDispatcher{})

	statuses, err := svc.ListSubscriptionStatus(context.Background())
	if err != nil {
		t.Fatalf("ListSubscriptionStatus() error = %v", err)
	}
	if len(statuses) != 2 || !statuses[0].HasSubscription || statuses[1].HasSubscription {
		t.Fatalf("statuses = %+v", statuses)
	}
}

func TestEmployeeServiceSendTestNotification(t *testing.T) {
	t.Parallel()

	employee := activeEmployee("emp-a", "Asha", fcmSubscription)
	repo := &fakeEmployeeRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Employee, error) {
			if id != "emp-a" {
				return nil, domain.ErrNotFound
			}
			return &employee, nil
		},
	}

	var gotLabel string
	var gotTemplate domain.MessageTemplate
	dispatcher := &fakeDispatcher{
		dispatchFn: func(ctx context.Context, jobLabel string, e domain.Employee, tmpl domain.MessageTemplate) domain.Outcome {
			gotLabel = jobLabel
			gotTemplate = tmpl
			return domain.Outcome{EmployeeID: e.ID, RecipientName: e.DisplayName(), Status: domain.OutcomeSent}
		},
	}
	svc := newTestEmployeeService(t, repo, dispatcher)

	outcome, err := svc.SendTestNotification(context.Background(), "emp-a")
	if err != nil {
		t.Fatalf("SendTestNotification() error = %v", err)
	}
	if outcome.Status != domain.OutcomeSent {
		t.Fatalf("status = %s, want SENT", outcome.Status)
	}
	if gotLabel != "test-notification" || gotTemplate != domain.TestTemplate {
		t.Fatalf("dispatch label = %q, template = %+v", gotLabel, gotTemplate)
	}

	if _, err := svc.SendTestNotification(context.Background(), "emp-z"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SendTestNotification(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestNewEmployeeServiceValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewEmployeeService(nil, &fakeDispatcher{}, nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewEmployeeService(&fakeEmployeeRepo{}, nil, nil); err == nil {
		t.Fatal("expected error for nil dispatcher")
	}
}
