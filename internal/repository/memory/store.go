// Package memory is an in-process Repository backing the service and handler
// tests. InTx restores the previous state when fn fails, which is the only
// transactional guarantee it gives.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"csinventory/internal/models"
	"csinventory/internal/repository"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	items     []models.Item
	trades    []models.Trade
	positions map[int64]models.Position
	imports   []models.ItemImport
	snapshots []models.PoolSnapshot
	settings  map[string]models.SystemSetting
	nextID    uint64

	// Location buckets DailyFlows; UTC when nil.
	Location *time.Location
}

func New() *Store {
	return &Store{
		positions: map[int64]models.Position{},
		settings:  map[string]models.SystemSetting{},
	}
}

var _ repository.Repository = (*Store)(nil)

type state struct {
	items     []models.Item
	trades    []models.Trade
	positions map[int64]models.Position
	imports   []models.ItemImport
	snapshots []models.PoolSnapshot
	settings  map[string]models.SystemSetting
	nextID    uint64
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	saved := s.snapshot()
	s.mu.RUnlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.restore(saved)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) snapshot() state {
	positions := make(map[int64]models.Position, len(s.positions))
	for k, v := range s.positions {
		positions[k] = v
	}
	settings := make(map[string]models.SystemSetting, len(s.settings))
	for k, v := range s.settings {
		settings[k] = v
	}
	return state{
		items:     append([]models.Item(nil), s.items...),
		trades:    append([]models.Trade(nil), s.trades...),
		positions: positions,
		imports:   append([]models.ItemImport(nil), s.imports...),
		snapshots: append([]models.PoolSnapshot(nil), s.snapshots...),
		settings:  settings,
		nextID:    s.nextID,
	}
}

func (s *Store) restore(st state) {
	s.items = st.items
	s.trades = st.trades
	s.positions = st.positions
	s.imports = st.imports
	s.snapshots = st.snapshots
	s.settings = st.settings
	s.nextID = st.nextID
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

// --- items ------------------------------------------------------------------

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemTaken(item.MarketHashName, item.NameID) {
		return gorm.ErrDuplicatedKey
	}
	item.ID = s.id()
	s.items = append(s.items, *item)
	return nil
}

func (s *Store) InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error) {
	if item == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemTaken(item.MarketHashName, item.NameID) {
		return false, nil
	}
	item.ID = s.id()
	s.items = append(s.items, *item)
	return true, nil
}

func (s *Store) itemTaken(hashName string, nameID int64) bool {
	for _, it := range s.items {
		if it.MarketHashName == hashName || it.NameID == nameID {
			return true
		}
	}
	return false
}

func (s *Store) GetItemByNameID(ctx context.Context, nameID int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.NameID == nameID {
			out := it
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) ItemExists(ctx context.Context, nameID int64) (bool, error) {
	item, err := s.GetItemByNameID(ctx, nameID)
	return item != nil, err
}

func (s *Store) ListItems(ctx context.Context, params repository.ListItemsParams) ([]models.Item, error) {
	s.mu.RLock()
	items := append([]models.Item(nil), s.items...)
	s.mu.RUnlock()
	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(items, func(i, j int) bool {
		if asc {
			return items[i].ID < items[j].ID
		}
		return items[i].ID > items[j].ID
	})
	return page(items, params.Limit, params.Offset, 100), nil
}

func (s *Store) CountItems(ctx context.Context, params repository.ListItemsParams) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}

func (s *Store) SearchItems(ctx context.Context, keyword string, limit int) ([]models.Item, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, nil
	}
	s.mu.RLock()
	var out []models.Item
	for _, it := range s.items {
		if strings.Contains(strings.ToLower(it.MarketHashName), keyword) ||
			strings.Contains(strings.ToLower(it.EnName), keyword) ||
			strings.Contains(strings.ToLower(it.CnName), keyword) {
			out = append(out, it)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].MarketHashName < out[j].MarketHashName })
	return page(out, limit, 0, 15), nil
}

func (s *Store) InsertItemImport(ctx context.Context, item *models.ItemImport) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.id()
	s.imports = append(s.imports, *item)
	return nil
}

// Imports returns the recorded import runs.
func (s *Store) Imports() []models.ItemImport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ItemImport(nil), s.imports...)
}

// --- ledger -----------------------------------------------------------------

func (s *Store) InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = s.id()
	s.trades = append(s.trades, *item)
	return nil
}

func (s *Store) GetTradeByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.trades {
		if t.ID == id {
			out := t
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteTradeTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.trades {
		if t.ID == id {
			s.trades = append(s.trades[:i:i], s.trades[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) ListAllTrades(ctx context.Context) ([]models.Trade, error) {
	s.mu.RLock()
	out := append([]models.Trade(nil), s.trades...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (s *Store) ListTradeViews(ctx context.Context, params repository.ListTradesParams) ([]repository.TradeView, error) {
	s.mu.RLock()
	matched := s.filterTrades(params)
	names := s.namesByID()
	s.mu.RUnlock()

	asc := params.Asc != nil && *params.Asc
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			if asc {
				return a.OccurredAt.Before(b.OccurredAt)
			}
			return a.OccurredAt.After(b.OccurredAt)
		}
		if asc {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})
	matched = page(matched, params.Limit, params.Offset, 100)
	out := make([]repository.TradeView, 0, len(matched))
	for _, t := range matched {
		it := names[t.NameID]
		out = append(out, repository.TradeView{
			Trade:          t,
			MarketHashName: it.MarketHashName,
			EnName:         it.EnName,
			CnName:         it.CnName,
		})
	}
	return out, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterTrades(params))), nil
}

func (s *Store) filterTrades(params repository.ListTradesParams) []models.Trade {
	var out []models.Trade
	for _, t := range s.trades {
		if params.NameID != nil && t.NameID != *params.NameID {
			continue
		}
		if params.Type != nil && strings.TrimSpace(*params.Type) != "" && t.Type != models.NormalizeTradeType(*params.Type) {
			continue
		}
		if params.Start != nil && !params.Start.IsZero() && t.OccurredAt.Before(*params.Start) {
			continue
		}
		if params.End != nil && !params.End.IsZero() && t.OccurredAt.After(*params.End) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *Store) namesByID() map[int64]models.Item {
	out := make(map[int64]models.Item, len(s.items))
	for _, it := range s.items {
		out[it.NameID] = it
	}
	return out
}

func (s *Store) DailyFlows(ctx context.Context, start, end time.Time) ([]repository.DailyFlowRow, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	s.mu.RLock()
	byDay := map[time.Time]*repository.DailyFlowRow{}
	for _, t := range s.trades {
		if t.OccurredAt.Before(start) || !t.OccurredAt.Before(end) {
			continue
		}
		local := t.OccurredAt.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		row, ok := byDay[day]
		if !ok {
			row = &repository.DailyFlowRow{Day: day, TotalBuy: decimal.Zero, TotalSell: decimal.Zero}
			byDay[day] = row
		}
		switch t.Type {
		case models.TradeTypeBuy:
			row.TotalBuy = row.TotalBuy.Add(t.TotalAmount)
		case models.TradeTypeSell:
			row.TotalSell = row.TotalSell.Add(t.TotalAmount)
		}
		row.TradeCount++
	}
	s.mu.RUnlock()

	out := make([]repository.DailyFlowRow, 0, len(byDay))
	for _, row := range byDay {
		row.Net = row.TotalSell.Sub(row.TotalBuy)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// --- positions --------------------------------------------------------------

func (s *Store) GetPositionForUpdateTx(ctx context.Context, tx *gorm.DB, nameID int64) (*models.Position, error) {
	return s.GetPosition(ctx, nameID)
}

func (s *Store) SavePositionTx(ctx context.Context, tx *gorm.DB, item *models.Position) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.positions[item.NameID]; ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else if item.ID == 0 {
		item.ID = s.id()
	}
	s.positions[item.NameID] = *item
	return nil
}

func (s *Store) DeletePositionTx(ctx context.Context, tx *gorm.DB, nameID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.positions, nameID)
	return nil
}

func (s *Store) GetPosition(ctx context.Context, nameID int64) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[nameID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPositions(ctx context.Context) ([]models.Position, error) {
	s.mu.RLock()
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sortPositions(out)
	return out, nil
}

func (s *Store) ListPositionViews(ctx context.Context, params repository.ListPositionsParams) ([]repository.PositionView, error) {
	positions, _ := s.ListPositions(ctx)
	positions = page(positions, params.Limit, params.Offset, 500)
	s.mu.RLock()
	names := s.namesByID()
	s.mu.RUnlock()
	out := make([]repository.PositionView, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionView(p, names[p.NameID]))
	}
	return out, nil
}

func (s *Store) CountPositions(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.positions)), nil
}

func (s *Store) GetPositionView(ctx context.Context, nameID int64) (*repository.PositionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[nameID]
	if !ok {
		return nil, nil
	}
	view := positionView(p, s.namesByID()[nameID])
	return &view, nil
}

func positionView(p models.Position, it models.Item) repository.PositionView {
	return repository.PositionView{
		Position:       p,
		MarketHashName: it.MarketHashName,
		EnName:         it.EnName,
		CnName:         it.CnName,
	}
}

func sortPositions(items []models.Position) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].LastUpdatedAt.Equal(items[j].LastUpdatedAt) {
			return items[i].LastUpdatedAt.After(items[j].LastUpdatedAt)
		}
		return items[i].NameID < items[j].NameID
	})
}

// --- pool snapshots ---------------------------------------------------------

func (s *Store) UpsertPoolSnapshot(ctx context.Context, item *models.PoolSnapshot) error {
	if item == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.snapshots {
		if existing.SnapshotAt.Equal(item.SnapshotAt) {
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			s.snapshots[i] = *item
			return nil
		}
	}
	item.ID = s.id()
	s.snapshots = append(s.snapshots, *item)
	return nil
}

func (s *Store) ListPoolSnapshots(ctx context.Context, params repository.ListPoolSnapshotsParams) ([]models.PoolSnapshot, error) {
	s.mu.RLock()
	var out []models.PoolSnapshot
	for _, snap := range s.snapshots {
		if params.Since != nil && snap.SnapshotAt.Before(*params.Since) {
			continue
		}
		if params.Until != nil && snap.SnapshotAt.After(*params.Until) {
			continue
		}
		out = append(out, snap)
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].SnapshotAt.After(out[j].SnapshotAt) })
	return page(out, params.Limit, 0, 100), nil
}

// --- system settings ------------------------------------------------------

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.settings[item.Key]; ok {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		item.ID = s.id()
	}
	s.settings[item.Key] = *item
	return nil
}

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.settings[strings.TrimSpace(key)]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	items := s.filterSettings(params)
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return page(items, params.Limit, params.Offset, 500), nil
}

func (s *Store) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	return int64(len(s.filterSettings(params))), nil
}

func (s *Store) filterSettings(params repository.ListSystemSettingsParams) []models.SystemSetting {
	prefix := ""
	if params.Prefix != nil {
		prefix = strings.TrimSpace(*params.Prefix)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SystemSetting, 0, len(s.settings))
	for k, v := range s.settings {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v)
		}
	}
	return out
}

func page[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
