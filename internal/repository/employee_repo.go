package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
	"gorm.io/gorm"
)

// SubscriptionStatus is one row of the admin subscription overview.
type SubscriptionStatus struct {
	EmployeeID      string `gorm:"column:id"`
	UserID          string `gorm:"column:user_id"`
	Name            string `gorm:"column:name"`
	IsActive        bool   `gorm:"column:is_active"`
	HasSubscription bool   `gorm:"column:has_subscription"`
}

type EmployeeRepository interface {
	ListActiveEmployees(ctx context.Context) ([]domain.Employee, error)
	ListActiveEmployeesExcept(ctx context.Context, excludeIDs []string) ([]domain.Employee, error)
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	SetPushSubscription(ctx context.Context, id string, sub domain.PushSubscription) error
	ClearPushSubscription(ctx context.Context, id string) error
	UpdateActive(ctx context.Context, id string, active bool) error
	ListSubscriptionStatus(ctx context.Context) ([]SubscriptionStatus, error)
}

type GormEmployeeRepo struct {
	db *gorm.DB
}

func NewGormEmployeeRepo(db *gorm.DB) *GormEmployeeRepo {
	return &GormEmployeeRepo{db: db}
}

func (r *GormEmployeeRepo) activeEmployees(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Where("role = ? AND is_active = ?", domain.RoleEmployee, true).
		Order("created_at ASC, id ASC")
}

func (r *GormEmployeeRepo) ListActiveEmployees(ctx context.Context) ([]domain.Employee, error) {
	var models []EmployeeModel
	if err := r.activeEmployees(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	return employeeModelsToDomain(models), nil
}

// ListActiveEmployeesExcept returns active employees whose id is not in
// excludeIDs. An empty exclusion list behaves like ListActiveEmployees.
func (r *GormEmployeeRepo) ListActiveEmployeesExcept(ctx context.Context, excludeIDs []string) ([]domain.Employee, error) {
	if len(excludeIDs) == 0 {
		return r.ListActiveEmployees(ctx)
	}

	var models []EmployeeModel
	err := r.activeEmployees(ctx).
		Where("id NOT IN ?", excludeIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return employeeModelsToDomain(models), nil
}

func (r *GormEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	var model EmployeeModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return employeeModelToDomain(&model), nil
}

func (r *GormEmployeeRepo) SetPushSubscription(ctx context.Context, id string, sub domain.PushSubscription) error {
	if sub.IsZero() {
		return r.ClearPushSubscription(ctx, id)
	}

	raw := string(sub)
	result := r.db.WithContext(ctx).
		Model(&EmployeeModel{}).
		Where("id = ?", id).
		Update("push_subscription", &raw)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClearPushSubscription is idempotent: clearing an absent subscription or an
// unknown employee is not an error.
func (r *GormEmployeeRepo) ClearPushSubscription(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&EmployeeModel{}).
		Where("id = ? AND push_subscription IS NOT NULL", id).
		Update("push_subscription", gorm.Expr("NULL")).Error
}

func (r *GormEmployeeRepo) UpdateActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&EmployeeModel{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEmployeeRepo) ListSubscriptionStatus(ctx context.Context) ([]SubscriptionStatus, error) {
	var rows []SubscriptionStatus
	err := r.db.WithContext(ctx).
		Model(&EmployeeModel{}).
		Select("id, user_id, name, is_active, push_subscription IS NOT NULL AS has_subscription").
		Where("role = ?", domain.RoleEmployee).
		Order("name ASC, id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
