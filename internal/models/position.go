package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the current holding of one item. Rows with zero quantity are
// deleted rather than kept.
type Position struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	NameID int64  `gorm:"not null;uniqueIndex"`

	CurrentQuantity     int             `gorm:"not null"`
	WeightedAverageCost decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	TotalInvestmentCost decimal.Decimal `gorm:"type:numeric(19,4);not null"`

	CreatedAt     time.Time `gorm:"type:timestamptz;not null"`
	LastUpdatedAt time.Time `gorm:"type:timestamptz;not null;index"`
}

func (Position) TableName() string {
	return "inventory"
}

func NewPosition(nameID int64, quantity int, avgCost, totalCost decimal.Decimal, now time.Time) *Position {
	now = now.UTC()
	return &Position{
		NameID:              nameID,
		CurrentQuantity:     quantity,
		WeightedAverageCost: avgCost,
		TotalInvestmentCost: totalCost,
		CreatedAt:           now,
		LastUpdatedAt:       now,
	}
}

// HoldingCost is the cost basis of the remaining units at the average cost.
func (p Position) HoldingCost() decimal.Decimal {
	return p.WeightedAverageCost.Mul(decimal.NewFromInt(int64(p.CurrentQuantity)))
}
