package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PoolSnapshot is a periodic capture of the investment pool statistics.
type PoolSnapshot struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SnapshotAt time.Time `gorm:"type:timestamptz;not null;uniqueIndex"`

	TotalInvestment   decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	TotalWithdrawal   decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	HoldingCost       decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	PeakNetInvestment decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	RealizedProfit    decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	RealReturnRate    decimal.Decimal `gorm:"type:numeric(10,4);not null"`
	HoldingItems      int             `gorm:"not null"`

	// Full statistics payload as served by the pool endpoint.
	Stats datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (PoolSnapshot) TableName() string {
	return "pool_snapshots"
}
