package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Trade is one append-only ledger row.
type Trade struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	NameID int64  `gorm:"not null;index"`
	Type   string `gorm:"type:varchar(8);not null;index"`

	UnitPrice   decimal.Decimal `gorm:"type:numeric(19,4);not null"`
	Quantity    int             `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(19,4);not null"`

	Platform     string `gorm:"type:varchar(128)"`
	Counterparty string `gorm:"type:varchar(128)"`

	OccurredAt time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null"`
}

func (Trade) TableName() string {
	return "trades"
}

// NewTrade builds a ledger row with the derived total and both timestamps set.
// A zero occurredAt means the trade happened now.
func NewTrade(nameID int64, tradeType string, unitPrice decimal.Decimal, quantity int, occurredAt, now time.Time) Trade {
	if occurredAt.IsZero() {
		occurredAt = now
	}
	t := Trade{
		NameID:     nameID,
		Type:       NormalizeTradeType(tradeType),
		UnitPrice:  unitPrice.Round(4),
		Quantity:   quantity,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now.UTC(),
	}
	t.RecomputeTotal()
	return t
}

// RecomputeTotal sets TotalAmount = UnitPrice × Quantity.
func (t *Trade) RecomputeTotal() {
	t.TotalAmount = t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity))).Round(4)
}

func (t Trade) IsBuy() bool  { return t.Type == TradeTypeBuy }
func (t Trade) IsSell() bool { return t.Type == TradeTypeSell }

func NormalizeTradeType(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
