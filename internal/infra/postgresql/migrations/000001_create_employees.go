package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/wsr-notifier/internal/repository"
	"gorm.io/gorm"
)

func createEmployeesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_employees",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.EmployeeModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_user_id ON employees (user_id)`,
				`CREATE INDEX IF NOT EXISTS idx_employees_role_active ON employees (role, is_active)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.EmployeeModel{})
		},
	}
}
