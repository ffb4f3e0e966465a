package models

import "time"

// Item is catalog reference data. NameID comes from the upstream market and is
// the key every trade and position refers to.
type Item struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	MarketHashName string `gorm:"type:varchar(512);not null;uniqueIndex"`
	NameID         int64  `gorm:"not null;uniqueIndex"`
	EnName         string `gorm:"type:varchar(512);not null"`
	CnName         string `gorm:"type:varchar(512);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (Item) TableName() string {
	return "items"
}
