package db

import (
	"csinventory/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Item{},
		&models.Trade{},
		&models.Position{},
		&models.ItemImport{},
		&models.PoolSnapshot{},
		&models.SystemSetting{},
	)
}
