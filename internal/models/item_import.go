package models

import (
	"time"

	"gorm.io/datatypes"
)

// ItemImport records one catalog import run.
type ItemImport struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement"`
	Source        string         `gorm:"type:varchar(256);not null"`
	TotalItems    int            `gorm:"not null"`
	ImportedCount int            `gorm:"not null"`
	SkippedCount  int            `gorm:"not null"`
	SkippedItems  datatypes.JSON `gorm:"type:jsonb"`
	StartedAt     time.Time      `gorm:"type:timestamptz;not null"`
	FinishedAt    time.Time      `gorm:"type:timestamptz;not null;index"`
}

func (ItemImport) TableName() string {
	return "item_imports"
}
