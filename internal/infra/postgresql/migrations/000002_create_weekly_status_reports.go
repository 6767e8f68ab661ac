package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"gorm.io/gorm"
)

func createWeeklyStatusReportsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_weekly_status_reports",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.WeeklyStatusReportModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_weekly_status_reports_created_employee ON weekly_status_reports (created_at, employee_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.WeeklyStatusReportModel{})
		},
	}
}
