// Package pool treats the whole trade history as one investment pool and
// derives cash-flow, profit and return figures from it. It only reads.
package pool

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"csinventory/internal/models"
)

const (
	rateScale  int32 = 4
	dateLayout       = "2006-01-02"
)

type Stats struct {
	TotalInvestment     decimal.Decimal `json:"total_investment"`
	TotalWithdrawal     decimal.Decimal `json:"total_withdrawal"`
	CurrentCost         decimal.Decimal `json:"current_cost"`
	StaticCost          decimal.Decimal `json:"static_cost"`
	CurrentHoldingValue decimal.Decimal `json:"current_holding_value"`
	AbsoluteProfit      decimal.Decimal `json:"absolute_profit"`
	ReturnRate          decimal.Decimal `json:"return_rate"`
	TotalValue          decimal.Decimal `json:"total_value"`

	PeakNetInvestment decimal.Decimal `json:"peak_net_investment"`
	NetCashFlow       decimal.Decimal `json:"net_cash_flow"`
	RealizedProfit    decimal.Decimal `json:"realized_profit"`
	UnrealizedProfit  decimal.Decimal `json:"unrealized_profit"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	RealReturnRate    decimal.Decimal `json:"real_return_rate"`

	FirstInvestmentDate string `json:"first_investment_date,omitempty"`
	LastTradeDate       string `json:"last_trade_date,omitempty"`
	TotalInvestmentDays int    `json:"total_investment_days"`

	TotalBuyTrades      int  `json:"total_buy_trades"`
	TotalSellTrades     int  `json:"total_sell_trades"`
	TotalItems          int  `json:"total_items"`
	CurrentHoldingItems int  `json:"current_holding_items"`
	ManualValueApplied  bool `json:"manual_value_applied"`
}

type Options struct {
	// ManualMarketValue replaces the cost-basis holding value for unrealized
	// profit. The stored cost figures are left untouched.
	ManualMarketValue *decimal.Decimal
	Now               time.Time
	Location          *time.Location
}

// Empty is the result for a ledger without trades.
func Empty() Stats {
	return Stats{
		TotalInvestment:     decimal.Zero,
		TotalWithdrawal:     decimal.Zero,
		CurrentCost:         decimal.Zero,
		StaticCost:          decimal.Zero,
		CurrentHoldingValue: decimal.Zero,
		AbsoluteProfit:      decimal.Zero,
		ReturnRate:          decimal.Zero,
		TotalValue:          decimal.Zero,
		PeakNetInvestment:   decimal.Zero,
		NetCashFlow:         decimal.Zero,
		RealizedProfit:      decimal.Zero,
		UnrealizedProfit:    decimal.Zero,
		TotalProfit:         decimal.Zero,
		RealReturnRate:      decimal.Zero,
	}
}

func Analyze(trades []models.Trade, positions []models.Position, opts Options) Stats {
	if len(trades) == 0 {
		return Empty()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := Empty()
	out.TotalInvestment = sumAmounts(trades, models.TradeTypeBuy)
	out.TotalWithdrawal = sumAmounts(trades, models.TradeTypeSell)
	out.NetCashFlow = out.TotalInvestment.Sub(out.TotalWithdrawal)
	out.CurrentCost = out.NetCashFlow

	out.StaticCost = HoldingCost(positions)
	out.CurrentHoldingValue = out.StaticCost
	if opts.ManualMarketValue != nil {
		out.CurrentHoldingValue = *opts.ManualMarketValue
		out.ManualValueApplied = true
	}

	out.PeakNetInvestment = PeakNetInvestment(trades)
	out.RealizedProfit = out.TotalWithdrawal.Sub(out.TotalInvestment.Sub(out.StaticCost))
	out.UnrealizedProfit = out.CurrentHoldingValue.Sub(out.StaticCost)
	out.TotalProfit = out.RealizedProfit.Add(out.UnrealizedProfit)
	out.RealReturnRate = ratio(out.TotalProfit, out.PeakNetInvestment)

	out.AbsoluteProfit = out.CurrentHoldingValue.Sub(out.CurrentCost)
	out.ReturnRate = ratio(out.AbsoluteProfit, out.CurrentCost)
	out.TotalValue = out.TotalWithdrawal.Add(out.CurrentHoldingValue)

	items := map[int64]struct{}{}
	var firstBuy, lastTrade time.Time
	for _, t := range trades {
		items[t.NameID] = struct{}{}
		switch t.Type {
		case models.TradeTypeBuy:
			out.TotalBuyTrades++
			if firstBuy.IsZero() || t.OccurredAt.Before(firstBuy) {
				firstBuy = t.OccurredAt
			}
		case models.TradeTypeSell:
			out.TotalSellTrades++
		}
		if t.OccurredAt.After(lastTrade) {
			lastTrade = t.OccurredAt
		}
	}
	out.TotalItems = len(items)
	for _, p := range positions {
		if p.CurrentQuantity > 0 {
			out.CurrentHoldingItems++
		}
	}

	if !firstBuy.IsZero() {
		out.FirstInvestmentDate = firstBuy.In(loc).Format(dateLayout)
		out.TotalInvestmentDays = daysBetween(firstBuy.In(loc), now.In(loc)) + 1
	}
	if !lastTrade.IsZero() {
		out.LastTradeDate = lastTrade.In(loc).Format(dateLayout)
	}
	return out
}

// HoldingCost sums average cost × quantity over positions still held.
func HoldingCost(positions []models.Position) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		if p.CurrentQuantity > 0 {
			total = total.Add(p.HoldingCost())
		}
	}
	return total
}

// PeakNetInvestment replays the trades chronologically and returns the
// highest net capital ever committed. When the running net never goes above
// zero the first purchase amount is used instead.
func PeakNetInvestment(trades []models.Trade) decimal.Decimal {
	sorted := make([]models.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	net := decimal.Zero
	peak := decimal.Zero
	for _, t := range sorted {
		switch t.Type {
		case models.TradeTypeBuy:
			net = net.Add(t.TotalAmount)
		case models.TradeTypeSell:
			net = net.Sub(t.TotalAmount)
		}
		if net.GreaterThan(peak) {
			peak = net
		}
	}
	if peak.IsPositive() {
		return peak
	}
	for _, t := range sorted {
		if t.IsBuy() {
			return t.TotalAmount
		}
	}
	return decimal.Zero
}

func sumAmounts(trades []models.Trade, tradeType string) decimal.Decimal {
	total := decimal.Zero
	for _, t := range trades {
		if t.Type == tradeType {
			total = total.Add(t.TotalAmount)
		}
	}
	return total
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.DivRound(den, rateScale)
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
