package repository

import (
	"FlightSync/internal/model"

	"gorm.io/gorm"
)

// Migrate 库表不存在则自动创建（按依赖顺序迁移：机场 → 航班 → 审计）
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Airport{},
		&model.Flight{},
		&model.IngestRun{},
	)
}
