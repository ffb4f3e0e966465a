// Package accounting applies ledger trades to positions using weighted average
// cost. Every derived decimal is rounded to Scale places, half away from zero.
package accounting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"csinventory/internal/models"
)

const Scale int32 = 4

// Apply dispatches on the trade type. A nil position with a nil error means
// the holding was fully sold and must be removed.
func Apply(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	switch trade.Type {
	case models.TradeTypeBuy:
		return ApplyBuy(pos, trade, now)
	case models.TradeTypeSell:
		return ApplySell(pos, trade, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTradeType, trade.Type)
	}
}

// ApplyBuy adds the trade to the holding and re-blends the average cost.
// pos may be nil for the first purchase of an item.
func ApplyBuy(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	if !trade.IsBuy() {
		return nil, fmt.Errorf("%w: buy expected, got %q", ErrInvalidTradeType, trade.Type)
	}
	if pos == nil {
		return models.NewPosition(trade.NameID, trade.Quantity, trade.UnitPrice, trade.TotalAmount, now), nil
	}

	next := *pos
	next.CurrentQuantity = pos.CurrentQuantity + trade.Quantity
	next.TotalInvestmentCost = pos.TotalInvestmentCost.Add(trade.TotalAmount)
	next.WeightedAverageCost = averageCost(next.TotalInvestmentCost, next.CurrentQuantity)
	next.LastUpdatedAt = now.UTC()
	return &next, nil
}

// ApplySell removes the sold units and their pro-rata share of the cost. The
// average cost of the remaining units does not change.
func ApplySell(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	if !trade.IsSell() {
		return nil, fmt.Errorf("%w: sell expected, got %q", ErrInvalidTradeType, trade.Type)
	}
	held := 0
	if pos != nil {
		held = pos.CurrentQuantity
	}
	if pos == nil || held < trade.Quantity {
		return nil, &InsufficientInventoryError{NameID: trade.NameID, Held: held, Requested: trade.Quantity}
	}

	remaining := held - trade.Quantity
	if remaining == 0 {
		return nil, nil
	}

	ratio := SellRatio(trade.Quantity, held)
	soldCost := pos.TotalInvestmentCost.Mul(ratio)

	next := *pos
	next.CurrentQuantity = remaining
	next.TotalInvestmentCost = pos.TotalInvestmentCost.Sub(soldCost).Round(Scale)
	next.LastUpdatedAt = now.UTC()
	return &next, nil
}

// SellRatio is sold/held at Scale places.
func SellRatio(sold, held int) decimal.Decimal {
	return decimalQty(sold).DivRound(decimalQty(held), Scale)
}

func decimalQty(q int) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}

func averageCost(total decimal.Decimal, quantity int) decimal.Decimal {
	return total.DivRound(decimalQty(quantity), Scale)
}
