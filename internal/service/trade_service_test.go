package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"csinventory/internal/accounting"
	"csinventory/internal/models"
	"csinventory/internal/repository"
	"csinventory/internal/repository/memory"
)

var testNow = time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	flags     *SystemSettingsService
	items     *ItemService
	trades    *TradeService
	inventory *InventoryService
	pool      *PoolService
}

func newFixture(t *testing.T, repo repository.Repository) *fixture {
	t.Helper()
	store := memory.New()
	if repo == nil {
		repo = store
	}
	now := func() time.Time { return testNow }
	flags := &SystemSettingsService{Repo: repo}
	items := &ItemService{Repo: repo, Flags: flags, Now: now}
	f := &fixture{
		store:     store,
		flags:     flags,
		items:     items,
		trades:    &TradeService{Repo: repo, Items: items, Flags: flags, Now: now},
		inventory: &InventoryService{Repo: repo},
		pool:      &PoolService{Repo: repo, Flags: flags, Now: now},
	}
	return f
}

func (f *fixture) seedItem(t *testing.T, nameID int64, hashName string) {
	t.Helper()
	_, err := f.items.Create(context.Background(), CreateItemInput{MarketHashName: hashName, NameID: nameID, EnName: hashName})
	require.NoError(t, err)
}

func (f *fixture) trade(t *testing.T, nameID int64, typ, price string, qty int, at time.Time) *TradeResult {
	t.Helper()
	res, err := f.trades.CreateTrade(context.Background(), CreateTradeInput{
		NameID:     nameID,
		Type:       typ,
		UnitPrice:  decimal.RequireFromString(price),
		Quantity:   qty,
		OccurredAt: at,
	})
	require.NoError(t, err)
	return res
}

func TestCreateTrade_WeightedAverageFlow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seedItem(t, 1001, "AK-47 | Redline (Field-Tested)")
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	res := f.trade(t, 1001, "buy", "2", 10, base)
	assert.Equal(t, models.TradeTypeBuy, res.Trade.Type)
	assert.True(t, decimal.NewFromInt(20).Equal(res.Trade.TotalAmount))
	require.NotNil(t, res.Position)
	assert.Equal(t, 10, res.Position.CurrentQuantity)

	res = f.trade(t, 1001, "BUY", "5", 5, base.Add(time.Hour))
	assert.Equal(t, 15, res.Position.CurrentQuantity)
	assert.True(t, decimal.NewFromInt(3).Equal(res.Position.WeightedAverageCost), "avg=%s", res.Position.WeightedAverageCost)
	assert.True(t, decimal.NewFromInt(45).Equal(res.Position.TotalInvestmentCost))

	res = f.trade(t, 1001, "SELL", "4", 6, base.Add(2*time.Hour))
	assert.True(t, decimal.NewFromInt(24).Equal(res.Trade.TotalAmount))
	require.NotNil(t, res.Position)
	assert.Equal(t, 9, res.Position.CurrentQuantity)
	assert.True(t, decimal.NewFromInt(3).Equal(res.Position.WeightedAverageCost))
	assert.True(t, decimal.NewFromInt(27).Equal(res.Position.TotalInvestmentCost), "total=%s", res.Position.TotalInvestmentCost)

	qty, err := f.inventory.Quantity(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, 9, qty)

	res = f.trade(t, 1001, "SELL", "4", 9, base.Add(3*time.Hour))
	assert.Nil(t, res.Position)
	view, err := f.inventory.Get(ctx, 1001)
	require.NoError(t, err)
	assert.Nil(t, view)

	history, err := f.trades.TradeHistory(ctx, 1001)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, models.TradeTypeSell, history[0].Type)
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", history[0].MarketHashName)
}

func TestCreateTrade_Validation(t *testing.T) {
	f := newFixture(t, nil)
	f.seedItem(t, 7, "Glove Case")
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTradeInput
		want error
	}{
		{"missing name id", CreateTradeInput{Type: "BUY", UnitPrice: decimal.NewFromInt(1), Quantity: 1}, ErrValidation},
		{"missing type", CreateTradeInput{NameID: 7, UnitPrice: decimal.NewFromInt(1), Quantity: 1}, ErrValidation},
		{"bad type", CreateTradeInput{NameID: 7, Type: "HOLD", UnitPrice: decimal.NewFromInt(1), Quantity: 1}, ErrValidation},
		{"zero price", CreateTradeInput{NameID: 7, Type: "BUY", Quantity: 1}, ErrValidation},
		{"negative price", CreateTradeInput{NameID: 7, Type: "BUY", UnitPrice: decimal.NewFromInt(-2), Quantity: 1}, ErrValidation},
		{"zero quantity", CreateTradeInput{NameID: 7, Type: "BUY", UnitPrice: decimal.NewFromInt(1)}, ErrValidation},
		{"unknown item", CreateTradeInput{NameID: 8, Type: "BUY", UnitPrice: decimal.NewFromInt(1), Quantity: 1}, ErrItemNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.trades.CreateTrade(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "err=%v", err)
		})
	}

	all, err := f.store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateTrade_InsufficientInventory(t *testing.T) {
	f := newFixture(t, nil)
	f.seedItem(t, 42, "AWP | Asiimov (Field-Tested)")
	ctx := context.Background()
	f.trade(t, 42, "BUY", "100", 2, testNow.Add(-time.Hour))

	_, err := f.trades.CreateSell(ctx, CreateTradeInput{NameID: 42, UnitPrice: decimal.NewFromInt(120), Quantity: 3})
	require.Error(t, err)
	var insufficient *accounting.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Held)
	assert.Equal(t, 3, insufficient.Requested)

	_, err = f.trades.CreateSell(ctx, CreateTradeInput{NameID: 42, UnitPrice: decimal.NewFromInt(120), Quantity: 1})
	require.NoError(t, err)

	_, err = f.trades.CreateTrade(ctx, CreateTradeInput{NameID: 42, Type: "SELL", UnitPrice: decimal.NewFromInt(1), Quantity: 5})
	assert.ErrorIs(t, err, accounting.ErrInsufficientInventory)

	all, err := f.store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateTrade_SellWithoutPosition(t *testing.T) {
	f := newFixture(t, nil)
	f.seedItem(t, 5, "Sticker | Crown (Foil)")

	_, err := f.trades.CreateSell(context.Background(), CreateTradeInput{NameID: 5, UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	var insufficient *accounting.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Held)
}

type failingPositions struct {
	*memory.Store
}

func (f failingPositions) SavePositionTx(ctx context.Context, tx *gorm.DB, item *models.Position) error {
	return errors.New("disk full")
}

func TestCreateTrade_RollsBackOnPositionFailure(t *testing.T) {
	store := memory.New()
	f := newFixture(t, failingPositions{Store: store})
	_, err := store.InsertItemIfAbsent(context.Background(), &models.Item{MarketHashName: "Case Key", NameID: 9})
	require.NoError(t, err)

	_, err = f.trades.CreateTrade(context.Background(), CreateTradeInput{
		NameID: 9, Type: "BUY", UnitPrice: decimal.NewFromInt(2), Quantity: 1,
	})
	require.ErrorIs(t, err, ErrInconsistentState)
	assert.Contains(t, err.Error(), "disk full")

	all, err := store.ListAllTrades(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	pos, err := store.GetPosition(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestRollbackTrade(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seedItem(t, 3, "M4A4 | Howl (Minimal Wear)")
	f.trade(t, 3, "BUY", "10", 4, testNow.Add(-3*time.Hour))
	second := f.trade(t, 3, "BUY", "20", 2, testNow.Add(-2*time.Hour))
	sell := f.trade(t, 3, "SELL", "30", 3, testNow.Add(-time.Hour))

	res, err := f.trades.RollbackTrade(ctx, sell.Trade.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Position)
	assert.Equal(t, 6, res.Position.CurrentQuantity)

	res, err = f.trades.RollbackTrade(ctx, second.Trade.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Position)
	assert.Equal(t, 4, res.Position.CurrentQuantity)

	_, err = f.trades.RollbackTrade(ctx, sell.Trade.ID)
	assert.ErrorIs(t, err, ErrTradeNotFound)

	all, err := f.store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRollbackTrade_SoldOutCannotBeRestored(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seedItem(t, 11, "Operation Pass")
	f.trade(t, 11, "BUY", "10", 1, testNow.Add(-2*time.Hour))
	sell := f.trade(t, 11, "SELL", "12", 1, testNow.Add(-time.Hour))

	_, err := f.trades.RollbackTrade(ctx, sell.Trade.ID)
	assert.ErrorIs(t, err, accounting.ErrReversal)

	all, err := f.store.ListAllTrades(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRollbackTrade_Disabled(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.flags.SetEnabled(ctx, FeatureTradeRevert, false))

	_, err := f.trades.RollbackTrade(ctx, 1)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
}

func TestListTrades_Filters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seedItem(t, 1, "A")
	f.seedItem(t, 2, "B")
	day := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	f.trade(t, 1, "BUY", "1", 5, day)
	f.trade(t, 2, "BUY", "2", 5, day.AddDate(0, 0, 1))
	f.trade(t, 1, "SELL", "3", 2, day.AddDate(0, 0, 2))

	sell := models.TradeTypeSell
	items, total, err := f.trades.ListTrades(ctx, TradeFilter{Type: &sell})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].NameID)

	between, err := f.trades.TradesBetween(ctx, day.Add(time.Hour), day.AddDate(0, 0, 2))
	require.NoError(t, err)
	require.Len(t, between, 2)

	start, end := day.AddDate(0, 0, 1), day
	_, _, err = f.trades.ListTrades(ctx, TradeFilter{Start: &start, End: &end})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDailySummary(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.seedItem(t, 1, "A")
	day := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	f.trade(t, 1, "BUY", "10", 3, day)
	f.trade(t, 1, "BUY", "5", 2, day.Add(3*time.Hour))
	f.trade(t, 1, "SELL", "12", 1, day.AddDate(0, 0, 1))
	f.trade(t, 1, "SELL", "12", 1, day.AddDate(0, 0, 3))

	rows, err := f.trades.DailySummary(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-01-10", rows[0].Day)
	assert.True(t, decimal.NewFromInt(40).Equal(rows[0].TotalBuy))
	assert.True(t, decimal.NewFromInt(-40).Equal(rows[0].Net))
	assert.EqualValues(t, 2, rows[0].TradeCount)
	assert.Equal(t, "2025-01-11", rows[1].Day)
	assert.True(t, decimal.NewFromInt(12).Equal(rows[1].Net))

	_, err = f.trades.DailySummary(ctx, day, day.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, ErrValidation)
}
