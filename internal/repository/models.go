package repository

import (
	"time"

	"github.com/kursadbilgin/wsr-notifier/internal/domain"
)

// EmployeeModel is the persistence model for the employees table.
type EmployeeModel struct {
	ID               string      `gorm:"type:uuid;primaryKey"`
	UserID           string      `gorm:"type:varchar(255);not null"`
	Name             string      `gorm:"type:varchar(255);not null;default:''"`
	Role             domain.Role `gorm:"type:varchar(20);not null;default:'employee'"`
	IsActive         bool        `gorm:"not null;default:true"`
	PushSubscription *string     `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (EmployeeModel) TableName() string {
	return "employees"
}

// WeeklyStatusReportModel is the persistence model for weekly_status_reports.
type WeeklyStatusReportModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	EmployeeID string `gorm:"type:uuid;not null"`
	Duration   string `gorm:"type:varchar(64);not null;default:''"`
	CreatedAt  time.Time
}

func (WeeklyStatusReportModel) TableName() string {
	return "weekly_status_reports"
}

func employeeModelToDomain(m *EmployeeModel) *domain.Employee {
	if m == nil {
		return nil
	}

	var sub domain.PushSubscription
	if m.PushSubscription != nil {
		sub = domain.PushSubscription(*m.PushSubscription)
	}

	return &domain.Employee{
		ID:               m.ID,
		UserID:           m.UserID,
		Name:             m.Name,
		Role:             m.Role,
		IsActive:         m.IsActive,
		PushSubscription: sub,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func employeeModelsToDomain(models []EmployeeModel) []domain.Employee {
	employees := make([]domain.Employee, 0, len(models))
	for i := range models {
		employees = append(employees, *employeeModelToDomain(&models[i]))
	}
	return employees
}
