package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"go.uber.org/zap"
)

const testNotificationJob = "test-notification"

// EmployeeService covers the account operations around the notifier:
// subscription registration, the active flag, and self test pushes.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	dispatcher PushDispatcher
	logger     *zap.Logger
}

func NewEmployeeService(
	employees repository.EmployeeRepository,
	dispatcher PushDispatcher,
	logger *zap.Logger,
) (*EmployeeService, error) {
	if employees == nil {
		return nil, fmt.Errorf("employee repository is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("push dispatcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EmployeeService{
		employees:  employees,
		dispatcher: dispatcher,
		logger:     logger,
	}, nil
}

func (s *EmployeeService) SaveSubscription(ctx context.Context, employeeID string, raw []byte) error {
	id, err := requireEmployeeID(employeeID)
	if err != nil {
		return err
	}

	sub, err := domain.ParsePushSubscription(raw)
	if err != nil {
		return err
	}

	if err := s.employees.SetPushSubscription(ctx, id, sub); err != nil {
		return err
	}

	s.logger.Info("push subscription saved", zap.String("employeeId", id))
	return nil
}

func (s *EmployeeService) SetActive(ctx context.Context, employeeID string, active bool) error {
	id, err := requireEmployeeID(employeeID)
	if err != nil {
		return err
	}

	if err := s.employees.UpdateActive(ctx, id, active); err != nil {
		return err
	}

	s.logger.Info("employee active flag updated",
		zap.String("employeeId", id),
		zap.Bool("isActive", active),
	)
	return nil
}

func (s *EmployeeService) ListSubscriptionStatus(ctx context.Context) ([]repository.SubscriptionStatus, error) {
	return s.employees.ListSubscriptionStatus(ctx)
}

// SendTestNotification pushes the test template to one employee through the
// regular dispatcher, so an expired subscription is pruned here as well.
func (s *EmployeeService) SendTestNotification(ctx context.Context, employeeID string) (domain.Outcome, error) {
	id, err := requireEmployeeID(employeeID)
	if err != nil {
		return domain.Outcome{}, err
	}

	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return domain.Outcome{}, err
	}

	outcome := s.dispatcher.Dispatch(ctx, testNotificationJob, *employee, domain.TestTemplate)
	s.logger.Info("test notification dispatched",
		zap.String("employeeId", id),
		zap.String("status", outcome.Status.String()),
		zap.String("reason", outcome.Reason),
	)
	return outcome, nil
}

func requireEmployeeID(employeeID string) (string, error) {
	id := strings.TrimSpace(employeeID)
	if id == "" {
		return "", fmt.Errorf("%w: employee id is required", domain.ErrValidation)
	}
	return id, nil
}
