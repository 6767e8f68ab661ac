package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ReportRepository interface {
	DistinctEmployeeIDsSince(ctx context.Context, since time.Time) ([]string, error)
}

type GormReportRepo struct {
	db *gorm.DB
}

func NewGormReportRepo(db *gorm.DB) *GormReportRepo {
	return &GormReportRepo{db: db}
}

// DistinctEmployeeIDsSince returns the owners of reports created at or after
// since.
func (r *GormReportRepo) DistinctEmployeeIDsSince(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&WeeklyStatusReportModel{}).
		Where("created_at >= ?", since).
		Distinct("employee_id").
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
