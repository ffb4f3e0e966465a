package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"csinventory/internal/accounting"
	"csinventory/internal/metrics"
	"csinventory/internal/models"
	"csinventory/internal/repository"
)

const maxDailyRangeDays = 366

// TradeService is the single entry point that writes the ledger. Every
// accepted trade and its position update commit together or not at all.
type TradeService struct {
	Repo   repository.Repository
	Items  *ItemService
	Logger *zap.Logger
	Flags  *SystemSettingsService
	Now    func() time.Time
}

type CreateTradeInput struct {
	NameID       int64
	Type         string
	UnitPrice    decimal.Decimal
	Quantity     int
	Platform     string
	Counterparty string
	OccurredAt   time.Time
}

// TradeResult is the stored trade and the position it left behind. Position
// is nil when the trade emptied it.
type TradeResult struct {
	Trade    models.Trade
	Position *models.Position
}

type DailyFlow struct {
	Day        string          `json:"day"`
	TotalBuy   decimal.Decimal `json:"total_buy"`
	TotalSell  decimal.Decimal `json:"total_sell"`
	Net        decimal.Decimal `json:"net"`
	TradeCount int64           `json:"trade_count"`
}

func (s *TradeService) CreateTrade(ctx context.Context, in CreateTradeInput) (*TradeResult, error) {
	res, err := s.createTrade(ctx, in)
	if err != nil {
		metrics.TradeRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	metrics.TradesTotal.WithLabelValues(res.Trade.Type).Inc()
	s.refreshHeldGauge(ctx)
	return res, nil
}

// CreateSell is CreateTrade with the type fixed to SELL.
func (s *TradeService) CreateSell(ctx context.Context, in CreateTradeInput) (*TradeResult, error) {
	in.Type = models.TradeTypeSell
	return s.CreateTrade(ctx, in)
}

func (s *TradeService) createTrade(ctx context.Context, in CreateTradeInput) (*TradeResult, error) {
	if err := validateTradeInput(in); err != nil {
		return nil, err
	}
	tradeType := models.NormalizeTradeType(in.Type)
	if _, err := s.Items.Get(ctx, in.NameID); err != nil {
		return nil, err
	}
	if tradeType == models.TradeTypeSell {
		pos, err := s.Repo.GetPosition(ctx, in.NameID)
		if err != nil {
			return nil, fmt.Errorf("load position %d: %w", in.NameID, err)
		}
		if err := checkSellable(pos, in.NameID, in.Quantity); err != nil {
			return nil, err
		}
	}

	now := s.now()
	trade := models.NewTrade(in.NameID, tradeType, in.UnitPrice, in.Quantity, in.OccurredAt, now)
	trade.Platform = strings.TrimSpace(in.Platform)
	trade.Counterparty = strings.TrimSpace(in.Counterparty)

	var next *models.Position
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		pos, err := s.Repo.GetPositionForUpdateTx(ctx, tx, in.NameID)
		if err != nil {
			return fmt.Errorf("lock position %d: %w", in.NameID, err)
		}
		// The pre-check ran without the row lock; a concurrent sell may have
		// drained the position since.
		if trade.IsSell() {
			if err := checkSellable(pos, in.NameID, in.Quantity); err != nil {
				return err
			}
		}
		if err := s.Repo.InsertTradeTx(ctx, tx, &trade); err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
		// The trade row is written; any failure from here on leaves the ledger
		// and the position disagreeing unless the transaction rolls back.
		next, err = accounting.Apply(pos, trade, now)
		if err != nil {
			return fmt.Errorf("%w: trade %d: %v", ErrInconsistentState, trade.ID, err)
		}
		if err := s.storePosition(ctx, tx, in.NameID, next); err != nil {
			return fmt.Errorf("%w: trade %d: %v", ErrInconsistentState, trade.ID, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInconsistentState) && s.Logger != nil {
			s.Logger.Error("position update failed after trade insert",
				zap.Int64("name_id", in.NameID),
				zap.String("type", tradeType),
				zap.Int("quantity", in.Quantity),
				zap.String("unit_price", trade.UnitPrice.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("trade recorded",
			zap.Uint64("id", trade.ID),
			zap.Int64("name_id", trade.NameID),
			zap.String("type", trade.Type),
			zap.Int("quantity", trade.Quantity),
			zap.String("total_amount", trade.TotalAmount.String()),
		)
	}
	return &TradeResult{Trade: trade, Position: next}, nil
}

// RollbackTrade deletes a trade and reverses its effect on the position.
// The reversal is approximate: a removed BUY re-derives the average from the
// remaining cost, and a removed SELL re-adds units at the current average.
func (s *TradeService) RollbackTrade(ctx context.Context, id uint64) (*TradeResult, error) {
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeatureTradeRevert, true) {
		return nil, ErrFeatureDisabled
	}
	if id == 0 {
		return nil, invalid("id", "must be positive")
	}
	now := s.now()
	var (
		trade models.Trade
		next  *models.Position
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		found, err := s.Repo.GetTradeByIDTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("load trade %d: %w", id, err)
		}
		if found == nil {
			return ErrTradeNotFound
		}
		trade = *found
		pos, err := s.Repo.GetPositionForUpdateTx(ctx, tx, trade.NameID)
		if err != nil {
			return fmt.Errorf("lock position %d: %w", trade.NameID, err)
		}
		next, err = accounting.Reverse(pos, trade, now)
		if err != nil {
			return err
		}
		if err := s.Repo.DeleteTradeTx(ctx, tx, id); err != nil {
			return fmt.Errorf("delete trade %d: %w", id, err)
		}
		return s.storePosition(ctx, tx, trade.NameID, next)
	})
	if err != nil {
		return nil, err
	}
	metrics.TradeRollbacks.Inc()
	s.refreshHeldGauge(ctx)
	if s.Logger != nil {
		s.Logger.Warn("trade rolled back",
			zap.Uint64("id", trade.ID),
			zap.Int64("name_id", trade.NameID),
			zap.String("type", trade.Type),
			zap.Int("quantity", trade.Quantity),
		)
	}
	return &TradeResult{Trade: trade, Position: next}, nil
}

func (s *TradeService) storePosition(ctx context.Context, tx *gorm.DB, nameID int64, next *models.Position) error {
	if next == nil {
		if err := s.Repo.DeletePositionTx(ctx, tx, nameID); err != nil {
			return fmt.Errorf("delete position %d: %w", nameID, err)
		}
		return nil
	}
	if err := s.Repo.SavePositionTx(ctx, tx, next); err != nil {
		return fmt.Errorf("save position %d: %w", nameID, err)
	}
	return nil
}

type TradeFilter struct {
	NameID *int64
	Type   *string
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

func (s *TradeService) ListTrades(ctx context.Context, f TradeFilter) ([]repository.TradeView, int64, error) {
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return nil, 0, invalid("end", "must not be before start")
	}
	params := repository.ListTradesParams{
		Limit:  f.Limit,
		Offset: f.Offset,
		NameID: f.NameID,
		Type:   f.Type,
		Start:  f.Start,
		End:    f.End,
	}
	items, err := s.Repo.ListTradeViews(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountTrades(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []repository.TradeView{}
	}
	return items, total, nil
}

// TradeHistory is the full ledger of one item, newest first.
func (s *TradeService) TradeHistory(ctx context.Context, nameID int64) ([]repository.TradeView, error) {
	if nameID <= 0 {
		return nil, invalid("name_id", "must be positive")
	}
	items, _, err := s.ListTrades(ctx, TradeFilter{NameID: &nameID, Limit: 500})
	return items, err
}

func (s *TradeService) TradesBetween(ctx context.Context, start, end time.Time) ([]repository.TradeView, error) {
	if start.IsZero() || end.IsZero() {
		return nil, invalid("range", "start and end are required")
	}
	items, _, err := s.ListTrades(ctx, TradeFilter{Start: &start, End: &end, Limit: 500})
	return items, err
}

// DailySummary aggregates buys and sells per calendar day, both bounds
// inclusive. Days without trades are omitted.
func (s *TradeService) DailySummary(ctx context.Context, start, end time.Time) ([]DailyFlow, error) {
	if start.IsZero() || end.IsZero() {
		return nil, invalid("range", "start and end are required")
	}
	from := startOfDay(start)
	to := startOfDay(end).AddDate(0, 0, 1)
	if !to.After(from) {
		return nil, invalid("end", "must not be before start")
	}
	if to.Sub(from) > maxDailyRangeDays*24*time.Hour {
		return nil, invalid("range", fmt.Sprintf("at most %d days", maxDailyRangeDays))
	}
	rows, err := s.Repo.DailyFlows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]DailyFlow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DailyFlow{
			Day:        r.Day.In(start.Location()).Format("2006-01-02"),
			TotalBuy:   r.TotalBuy,
			TotalSell:  r.TotalSell,
			Net:        r.Net,
			TradeCount: r.TradeCount,
		})
	}
	return out, nil
}

func (s *TradeService) refreshHeldGauge(ctx context.Context) {
	n, err := s.Repo.CountPositions(ctx)
	if err == nil {
		metrics.HeldPositions.Set(float64(n))
	}
}

func (s *TradeService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func validateTradeInput(in CreateTradeInput) error {
	if in.NameID <= 0 {
		return invalid("name_id", "required")
	}
	tradeType := models.NormalizeTradeType(in.Type)
	if tradeType == "" {
		return invalid("type", "required")
	}
	if tradeType != models.TradeTypeBuy && tradeType != models.TradeTypeSell {
		return invalid("type", "must be BUY or SELL")
	}
	if !in.UnitPrice.IsPositive() {
		return invalid("unit_price", "must be greater than 0")
	}
	if in.Quantity <= 0 {
		return invalid("quantity", "must be greater than 0")
	}
	return nil
}

func checkSellable(pos *models.Position, nameID int64, quantity int) error {
	held := 0
	if pos != nil {
		held = pos.CurrentQuantity
	}
	if held < quantity {
		return &accounting.InsufficientInventoryError{NameID: nameID, Held: held, Requested: quantity}
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, accounting.ErrInvalidTradeType):
		return "invalid_type"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, accounting.ErrInsufficientInventory):
		return "insufficient_inventory"
	case errors.Is(err, ErrInconsistentState):
		return "inconsistent_state"
	default:
		return "storage"
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
