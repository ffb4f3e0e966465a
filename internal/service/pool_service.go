package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"csinventory/internal/metrics"
	"csinventory/internal/models"
	"csinventory/internal/pool"
	"csinventory/internal/repository"
)

type PoolService struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	Flags    *SystemSettingsService
	Location *time.Location
	Now      func() time.Time

	// SnapshotEvery truncates snapshot timestamps so a re-run inside the same
	// window overwrites instead of adding a row.
	SnapshotEvery time.Duration
}

// Statistics analyses the whole ledger. manual, when set, is the operator's
// estimate of the current market value of everything held.
func (s *PoolService) Statistics(ctx context.Context, manual *decimal.Decimal) (pool.Stats, error) {
	if manual != nil && manual.IsNegative() {
		return pool.Stats{}, invalid("manual_market_value", "must not be negative")
	}
	trades, err := s.Repo.ListAllTrades(ctx)
	if err != nil {
		return pool.Stats{}, fmt.Errorf("load trades: %w", err)
	}
	positions, err := s.Repo.ListPositions(ctx)
	if err != nil {
		return pool.Stats{}, fmt.Errorf("load positions: %w", err)
	}
	return pool.Analyze(trades, positions, pool.Options{
		ManualMarketValue: manual,
		Now:               s.now(),
		Location:          s.Location,
	}), nil
}

// Snapshot stores the current statistics. It returns nil, nil when the
// snapshot switch is off.
func (s *PoolService) Snapshot(ctx context.Context) (*models.PoolSnapshot, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	if s.Flags != nil && !s.Flags.IsEnabled(ctx, FeaturePoolSnapshot, true) {
		metrics.PoolSnapshots.WithLabelValues("disabled").Inc()
		return nil, nil
	}
	stats, err := s.Statistics(ctx, nil)
	if err != nil {
		metrics.PoolSnapshots.WithLabelValues("error").Inc()
		return nil, err
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		metrics.PoolSnapshots.WithLabelValues("error").Inc()
		return nil, err
	}
	every := s.SnapshotEvery
	if every <= 0 {
		every = time.Hour
	}
	now := s.now()
	item := &models.PoolSnapshot{
		SnapshotAt:        now.Truncate(every),
		TotalInvestment:   stats.TotalInvestment,
		TotalWithdrawal:   stats.TotalWithdrawal,
		HoldingCost:       stats.StaticCost,
		PeakNetInvestment: stats.PeakNetInvestment,
		RealizedProfit:    stats.RealizedProfit,
		RealReturnRate:    stats.RealReturnRate,
		HoldingItems:      stats.CurrentHoldingItems,
		Stats:             datatypes.JSON(raw),
		CreatedAt:         now,
	}
	if err := s.Repo.UpsertPoolSnapshot(ctx, item); err != nil {
		metrics.PoolSnapshots.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PoolSnapshots.WithLabelValues("ok").Inc()
	if s.Logger != nil {
		s.Logger.Info("pool snapshot stored",
			zap.Time("snapshot_at", item.SnapshotAt),
			zap.String("holding_cost", item.HoldingCost.String()),
			zap.String("real_return_rate", item.RealReturnRate.String()),
		)
	}
	return item, nil
}

func (s *PoolService) History(ctx context.Context, limit int, since, until *time.Time) ([]models.PoolSnapshot, error) {
	if since != nil && until != nil && until.Before(*since) {
		return nil, invalid("until", "must not be before since")
	}
	items, err := s.Repo.ListPoolSnapshots(ctx, repository.ListPoolSnapshotsParams{Limit: limit, Since: since, Until: until})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.PoolSnapshot{}
	}
	return items, nil
}

func (s *PoolService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
