package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
)

// EmployeeDirectory is the read side of the directory store used for selection.
type EmployeeDirectory interface {
	ListActiveEmployees(ctx context.Context) ([]domain.Employee, error)
	ListActiveEmployeesExcept(ctx context.Context, excludeIDs []string) ([]domain.Employee, error)
}

// SubmissionIndex answers which employees submitted a report since a time.
type SubmissionIndex interface {
	DistinctEmployeeIDsSince(ctx context.Context, since time.Time) ([]string, error)
}

type RecipientSelector struct {
	employees   EmployeeDirectory
	submissions SubmissionIndex
	now         func() time.Time
}

func NewRecipientSelector(employees EmployeeDirectory, submissions SubmissionIndex) (*RecipientSelector, error) {
	if employees == nil {
		return nil, fmt.Errorf("employee directory is required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("submission index is required")
	}

	return &RecipientSelector{
		employees:   employees,
		submissions: submissions,
		now:         time.Now,
	}, nil
}

// Select resolves the recipients of a job kind. The store filters by role and
// active flag; the result is filtered again so a lax store can never widen it.
func (s *RecipientSelector) Select(ctx context.Context, kind domain.JobKind) ([]domain.Employee, error) {
	var (
		candidates []domain.Employee
		err        error
	)

	switch kind {
	case domain.JobKindReminder:
		candidates, err = s.employees.ListActiveEmployees(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list active employees: %w", err)
		}
	case domain.JobKindFollowUp:
		candidates, err = s.pending(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: invalid job kind %q", domain.ErrValidation, kind)
	}

	recipients := make([]domain.Employee, 0, len(candidates))
	for _, employee := range candidates {
		if employee.IsEligibleRecipient() {
			recipients = append(recipients, employee)
		}
	}
	return recipients, nil
}

func (s *RecipientSelector) pending(ctx context.Context) ([]domain.Employee, error) {
	since := domain.SubmissionCutoff(s.now())

	submitted, err := s.submissions.DistinctEmployeeIDsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent submissions: %w", err)
	}

	candidates, err := s.employees.ListActiveEmployeesExcept(ctx, submitted)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending employees: %w", err)
	}

	submittedSet := make(map[string]struct{}, len(submitted))
	for _, id := range submitted {
		submittedSet[id] = struct{}{}
	}

	pending := make([]domain.Employee, 0, len(candidates))
	for _, employee := range candidates {
		if _, ok := submittedSet[employee.ID]; !ok {
			pending = append(pending, employee)
		}
	}
	return pending, nil
}
