package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"csinventory/internal/models"
	"csinventory/internal/repository"
)

type itemDTO struct {
	ID             uint64    `json:"id"`
	MarketHashName string    `json:"market_hash_name"`
	NameID         int64     `json:"name_id"`
	EnName         string    `json:"en_name"`
	CnName         string    `json:"cn_name"`
	CreatedAt      time.Time `json:"created_at"`
}

func toItemDTO(it models.Item) itemDTO {
	return itemDTO{
		ID:             it.ID,
		MarketHashName: it.MarketHashName,
		NameID:         it.NameID,
		EnName:         it.EnName,
		CnName:         it.CnName,
		CreatedAt:      it.CreatedAt,
	}
}

func toItemDTOs(items []models.Item) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toItemDTO(it))
	}
	return out
}

type tradeDTO struct {
	ID           uint64          `json:"id"`
	NameID       int64           `json:"name_id"`
	Type         string          `json:"type"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Platform     string          `json:"platform,omitempty"`
	Counterparty string          `json:"counterparty,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
	CreatedAt    time.Time       `json:"created_at"`

	MarketHashName string `json:"market_hash_name,omitempty"`
	EnName         string `json:"en_name,omitempty"`
	CnName         string `json:"cn_name,omitempty"`
}

func toTradeDTO(t models.Trade) tradeDTO {
	return tradeDTO{
		ID:           t.ID,
		NameID:       t.NameID,
		Type:         t.Type,
		UnitPrice:    t.UnitPrice,
		Quantity:     t.Quantity,
		TotalAmount:  t.TotalAmount,
		Platform:     t.Platform,
		Counterparty: t.Counterparty,
		OccurredAt:   t.OccurredAt,
		CreatedAt:    t.CreatedAt,
	}
}

func toTradeViewDTOs(views []repository.TradeView) []tradeDTO {
	out := make([]tradeDTO, 0, len(views))
	for _, v := range views {
		d := toTradeDTO(v.Trade)
		d.MarketHashName = v.MarketHashName
		d.EnName = v.EnName
		d.CnName = v.CnName
		out = append(out, d)
	}
	return out
}

type positionDTO struct {
	NameID              int64           `json:"name_id"`
	CurrentQuantity     int             `json:"current_quantity"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	TotalInvestmentCost decimal.Decimal `json:"total_investment_cost"`
	CreatedAt           time.Time       `json:"created_at"`
	LastUpdatedAt       time.Time       `json:"last_updated_at"`

	MarketHashName string `json:"market_hash_name,omitempty"`
	EnName         string `json:"en_name,omitempty"`
	CnName         string `json:"cn_name,omitempty"`
}

// toPositionDTO returns nil for a nil position, which is how a sold-out
// holding is reported.
func toPositionDTO(p *models.Position) *positionDTO {
	if p == nil {
		return nil
	}
	return &positionDTO{
		NameID:              p.NameID,
		CurrentQuantity:     p.CurrentQuantity,
		WeightedAverageCost: p.WeightedAverageCost,
		TotalInvestmentCost: p.TotalInvestmentCost,
		CreatedAt:           p.CreatedAt,
		LastUpdatedAt:       p.LastUpdatedAt,
	}
}

func toPositionViewDTO(v repository.PositionView) positionDTO {
	d := toPositionDTO(&v.Position)
	d.MarketHashName = v.MarketHashName
	d.EnName = v.EnName
	d.CnName = v.CnName
	return *d
}

type tradeResultDTO struct {
	Trade    tradeDTO     `json:"trade"`
	Position *positionDTO `json:"position"`
}

type snapshotDTO struct {
	SnapshotAt        time.Time       `json:"snapshot_at"`
	TotalInvestment   decimal.Decimal `json:"total_investment"`
	TotalWithdrawal   decimal.Decimal `json:"total_withdrawal"`
	HoldingCost       decimal.Decimal `json:"holding_cost"`
	PeakNetInvestment decimal.Decimal `json:"peak_net_investment"`
	RealizedProfit    decimal.Decimal `json:"realized_profit"`
	RealReturnRate    decimal.Decimal `json:"real_return_rate"`
	HoldingItems      int             `json:"holding_items"`
}

func toSnapshotDTO(s models.PoolSnapshot) snapshotDTO {
	return snapshotDTO{
		SnapshotAt:        s.SnapshotAt,
		TotalInvestment:   s.TotalInvestment,
		TotalWithdrawal:   s.TotalWithdrawal,
		HoldingCost:       s.HoldingCost,
		PeakNetInvestment: s.PeakNetInvestment,
		RealizedProfit:    s.RealizedProfit,
		RealReturnRate:    s.RealReturnRate,
		HoldingItems:      s.HoldingItems,
	}
}
