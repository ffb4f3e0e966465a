package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"csinventory/internal/models"
	"csinventory/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- items ------------------------------------------------------------------

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("market_hash_name = ? OR name_id = ?", item.MarketHashName, item.NameID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	// A concurrent import can still win the race; the unique indexes turn
	// that into a no-op instead of an error.
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) GetItemByNameID(ctx context.Context, nameID int64) (*models.Item, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Item
	err := s.db.WithContext(ctx).Where("name_id = ?", nameID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ItemExists(ctx context.Context, nameID int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Item{}).Where("name_id = ?", nameID).Count(&count).Error
	return count > 0, err
}

func (s *Store) ListItems(ctx context.Context, params repository.ListItemsParams) ([]models.Item, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Item{})
	query = applyOrder(query, itemOrderColumn(params.OrderBy), params.Asc, "id")
	var items []models.Item
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountItems(ctx context.Context, params repository.ListItemsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Item{}).Count(&count).Error
	return count, err
}

func (s *Store) SearchItems(ctx context.Context, keyword string, limit int) ([]models.Item, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(keyword) + "%"
	var items []models.Item
	err := s.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("market_hash_name ILIKE ? OR en_name ILIKE ? OR cn_name ILIKE ?", pattern, pattern, pattern).
		Order("market_hash_name asc").
		Limit(normalizeLimit(limit, 15)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertItemImport(ctx context.Context, item *models.ItemImport) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// --- ledger -----------------------------------------------------------------

func (s *Store) InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error {
	if s == nil || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Create(item).Error
}

func (s *Store) GetTradeByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error) {
	if s == nil || id == 0 {
		return nil, nil
	}
	var item models.Trade
	err := s.conn(ctx, tx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteTradeTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	if s == nil || id == 0 {
		return nil
	}
	return s.conn(ctx, tx).Where("id = ?", id).Delete(&models.Trade{}).Error
}

func (s *Store) ListAllTrades(ctx context.Context) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Trade
	if err := s.db.WithContext(ctx).Order("occurred_at asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTradeViews(ctx context.Context, params repository.ListTradesParams) ([]repository.TradeView, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.tradeFilter(s.db.WithContext(ctx).Table("trades AS t"), params).
		Select(`t.*,
			COALESCE(i.market_hash_name,'') AS market_hash_name,
			COALESCE(i.en_name,'') AS en_name,
			COALESCE(i.cn_name,'') AS cn_name`).
		Joins("LEFT JOIN items AS i ON i.name_id = t.name_id")
	direction := "desc"
	if params.Asc != nil && *params.Asc {
		direction = "asc"
	}
	query = query.Order("t.occurred_at " + direction).Order("t.id " + direction)
	var rows []repository.TradeView
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.tradeFilter(s.db.WithContext(ctx).Table("trades AS t"), params).Count(&count).Error
	return count, err
}

func (s *Store) tradeFilter(query *gorm.DB, params repository.ListTradesParams) *gorm.DB {
	if params.NameID != nil {
		query = query.Where("t.name_id = ?", *params.NameID)
	}
	if params.Type != nil && strings.TrimSpace(*params.Type) != "" {
		query = query.Where("t.type = ?", models.NormalizeTradeType(*params.Type))
	}
	if params.Start != nil && !params.Start.IsZero() {
		query = query.Where("t.occurred_at >= ?", params.Start.UTC())
	}
	if params.End != nil && !params.End.IsZero() {
		query = query.Where("t.occurred_at <= ?", params.End.UTC())
	}
	return query
}

// DailyFlows buckets trades in [start, end) by calendar day in the session
// time zone.
func (s *Store) DailyFlows(ctx context.Context, start, end time.Time) ([]repository.DailyFlowRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []struct {
		Day        time.Time
		TotalBuy   decimal.Decimal
		TotalSell  decimal.Decimal
		TradeCount int64
	}
	err := s.db.WithContext(ctx).
		Table("trades").
		Select(`
			DATE_TRUNC('day', occurred_at) AS day,
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN total_amount ELSE 0 END),0) AS total_buy,
			COALESCE(SUM(CASE WHEN type = 'SELL' THEN total_amount ELSE 0 END),0) AS total_sell,
			COUNT(*) AS trade_count
		`).
		Where("occurred_at >= ? AND occurred_at < ?", start.UTC(), end.UTC()).
		Group("DATE_TRUNC('day', occurred_at)").
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]repository.DailyFlowRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, repository.DailyFlowRow{
			Day:        r.Day,
			TotalBuy:   r.TotalBuy,
			TotalSell:  r.TotalSell,
			Net:        r.TotalSell.Sub(r.TotalBuy),
			TradeCount: r.TradeCount,
		})
	}
	return out, nil
}

// --- positions --------------------------------------------------------------

func (s *Store) GetPositionForUpdateTx(ctx context.Context, tx *gorm.DB, nameID int64) (*models.Position, error) {
	if s == nil {
		return nil, nil
	}
	var item models.Position
	err := s.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name_id = ?", nameID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SavePositionTx(ctx context.Context, tx *gorm.DB, item *models.Position) error {
	if s == nil || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_quantity",
			"weighted_average_cost",
			"total_investment_cost",
			"last_updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) DeletePositionTx(ctx context.Context, tx *gorm.DB, nameID int64) error {
	if s == nil {
		return nil
	}
	return s.conn(ctx, tx).Where("name_id = ?", nameID).Delete(&models.Position{}).Error
}

func (s *Store) GetPosition(ctx context.Context, nameID int64) (*models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).Where("name_id = ?", nameID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Position
	if err := s.db.WithContext(ctx).Order("last_updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPositionViews(ctx context.Context, params repository.ListPositionsParams) ([]repository.PositionView, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.PositionView
	err := s.positionViewQuery(ctx).
		Order("p.last_updated_at desc").
		Limit(normalizeLimit(params.Limit, 500)).
		Offset(normalizeOffset(params.Offset)).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountPositions(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Position{}).Count(&count).Error
	return count, err
}

func (s *Store) GetPositionView(ctx context.Context, nameID int64) (*repository.PositionView, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.PositionView
	if err := s.positionViewQuery(ctx).Where("p.name_id = ?", nameID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *Store) positionViewQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("inventory AS p").
		Select(`p.*,
			COALESCE(i.market_hash_name,'') AS market_hash_name,
			COALESCE(i.en_name,'') AS en_name,
			COALESCE(i.cn_name,'') AS cn_name`).
		Joins("LEFT JOIN items AS i ON i.name_id = p.name_id")
}

// --- pool snapshots ---------------------------------------------------------

func (s *Store) UpsertPoolSnapshot(ctx context.Context, item *models.PoolSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "snapshot_at"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_investment",
			"total_withdrawal",
			"holding_cost",
			"peak_net_investment",
			"realized_profit",
			"real_return_rate",
			"holding_items",
			"stats",
		}),
	}).Create(item).Error
}

func (s *Store) ListPoolSnapshots(ctx context.Context, params repository.ListPoolSnapshotsParams) ([]models.PoolSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.PoolSnapshot{})
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("snapshot_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("snapshot_at <= ?", params.Until.UTC())
	}
	var items []models.PoolSnapshot
	if err := query.Order("snapshot_at desc").Limit(normalizeLimit(params.Limit, 100)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- system settings ------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Model(&models.SystemSetting{}).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := settingsFilter(s.db.WithContext(ctx).Model(&models.SystemSetting{}), params)
	query = applyOrder(query, settingOrderColumn(params.OrderBy), params.Asc, "key")
	var items []models.SystemSetting
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := settingsFilter(s.db.WithContext(ctx).Model(&models.SystemSetting{}), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func settingsFilter(query *gorm.DB, params repository.ListSystemSettingsParams) *gorm.DB {
	if params.Prefix != nil && strings.TrimSpace(*params.Prefix) != "" {
		query = query.Where("key LIKE ?", escapeLike(strings.TrimSpace(*params.Prefix))+"%")
	}
	return query
}

// --- helpers ----------------------------------------------------------------

func (s *Store) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func itemOrderColumn(v string) string {
	switch strings.TrimSpace(v) {
	case "name_id", "market_hash_name", "created_at":
		return v
	default:
		return ""
	}
}

func settingOrderColumn(v string) string {
	switch strings.TrimSpace(v) {
	case "key", "updated_at":
		return v
	default:
		return ""
	}
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}
