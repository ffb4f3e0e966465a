package accounting

import (
	"fmt"
	"time"

	"csinventory/internal/models"
)

// Reverse undoes a trade on a best-effort basis. It is not an exact inverse of
// Apply: a sell is restored at the current average cost, which can differ from
// the cost basis that was removed when the sell was applied.
func Reverse(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	switch trade.Type {
	case models.TradeTypeBuy:
		return ReverseBuy(pos, trade, now)
	case models.TradeTypeSell:
		return ReverseSell(pos, trade, now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTradeType, trade.Type)
	}
}

// ReverseBuy takes the bought units and their amount back out of the holding.
func ReverseBuy(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	if !trade.IsBuy() {
		return nil, fmt.Errorf("%w: buy expected, got %q", ErrInvalidTradeType, trade.Type)
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: no position for item %d", ErrReversal, trade.NameID)
	}
	remaining := pos.CurrentQuantity - trade.Quantity
	if remaining < 0 {
		return nil, &InsufficientInventoryError{NameID: trade.NameID, Held: pos.CurrentQuantity, Requested: trade.Quantity}
	}
	if remaining == 0 {
		return nil, nil
	}
	total := pos.TotalInvestmentCost.Sub(trade.TotalAmount)
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: cost basis of item %d would become negative", ErrReversal, trade.NameID)
	}

	next := *pos
	next.CurrentQuantity = remaining
	next.TotalInvestmentCost = total
	next.WeightedAverageCost = averageCost(total, remaining)
	next.LastUpdatedAt = now.UTC()
	return &next, nil
}

// ReverseSell puts the sold units back at the current average cost. A holding
// that was sold out cannot be restored because its cost basis is gone.
func ReverseSell(pos *models.Position, trade models.Trade, now time.Time) (*models.Position, error) {
	if !trade.IsSell() {
		return nil, fmt.Errorf("%w: sell expected, got %q", ErrInvalidTradeType, trade.Type)
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: item %d was sold out, re-enter the buy manually", ErrReversal, trade.NameID)
	}
	restored := pos.WeightedAverageCost.Mul(decimalQty(trade.Quantity))

	next := *pos
	next.CurrentQuantity = pos.CurrentQuantity + trade.Quantity
	next.TotalInvestmentCost = pos.TotalInvestmentCost.Add(restored).Round(Scale)
	next.LastUpdatedAt = now.UTC()
	return &next, nil
}
