package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"csinventory/internal/models"
)

// Repository is the persistence surface of the ledger. Methods ending in Tx
// run on the transaction handed out by InTx.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Item catalog
	CreateItem(ctx context.Context, item *models.Item) error
	// InsertItemIfAbsent inserts the item unless its hash name or name id is
	// already taken. It reports whether a row was written.
	InsertItemIfAbsent(ctx context.Context, item *models.Item) (bool, error)
	GetItemByNameID(ctx context.Context, nameID int64) (*models.Item, error)
	ItemExists(ctx context.Context, nameID int64) (bool, error)
	ListItems(ctx context.Context, params ListItemsParams) ([]models.Item, error)
	CountItems(ctx context.Context, params ListItemsParams) (int64, error)
	SearchItems(ctx context.Context, keyword string, limit int) ([]models.Item, error)
	InsertItemImport(ctx context.Context, item *models.ItemImport) error

	// Ledger
	InsertTradeTx(ctx context.Context, tx *gorm.DB, item *models.Trade) error
	GetTradeByIDTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error)
	DeleteTradeTx(ctx context.Context, tx *gorm.DB, id uint64) error
	ListAllTrades(ctx context.Context) ([]models.Trade, error)
	ListTradeViews(ctx context.Context, params ListTradesParams) ([]TradeView, error)
	CountTrades(ctx context.Context, params ListTradesParams) (int64, error)
	DailyFlows(ctx context.Context, start, end time.Time) ([]DailyFlowRow, error)

	// Positions
	GetPositionForUpdateTx(ctx context.Context, tx *gorm.DB, nameID int64) (*models.Position, error)
	SavePositionTx(ctx context.Context, tx *gorm.DB, item *models.Position) error
	DeletePositionTx(ctx context.Context, tx *gorm.DB, nameID int64) error
	GetPosition(ctx context.Context, nameID int64) (*models.Position, error)
	ListPositions(ctx context.Context) ([]models.Position, error)
	ListPositionViews(ctx context.Context, params ListPositionsParams) ([]PositionView, error)
	CountPositions(ctx context.Context) (int64, error)
	GetPositionView(ctx context.Context, nameID int64) (*PositionView, error)

	// Pool snapshots
	UpsertPoolSnapshot(ctx context.Context, item *models.PoolSnapshot) error
	ListPoolSnapshots(ctx context.Context, params ListPoolSnapshotsParams) ([]models.PoolSnapshot, error)

	// System settings
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

type ListItemsParams struct {
	Limit   int
	Offset  int
	OrderBy string
	Asc     *bool
}

type ListTradesParams struct {
	Limit  int
	Offset int
	NameID *int64
	Type   *string
	Start  *time.Time
	End    *time.Time
	Asc    *bool
}

type ListPositionsParams struct {
	Limit  int
	Offset int
}

type ListPoolSnapshotsParams struct {
	Limit int
	Since *time.Time
	Until *time.Time
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}

// TradeView is a ledger row joined with its catalog names. Names are empty
// when the item was never imported.
type TradeView struct {
	models.Trade
	MarketHashName string
	EnName         string
	CnName         string
}

// PositionView is a position joined with its catalog names.
type PositionView struct {
	models.Position
	MarketHashName string
	EnName         string
	CnName         string
}

// DailyFlowRow aggregates one calendar day of the ledger. Net is sell − buy.
type DailyFlowRow struct {
	Day        time.Time
	TotalBuy   decimal.Decimal
	TotalSell  decimal.Decimal
	Net        decimal.Decimal
	TradeCount int64
}
