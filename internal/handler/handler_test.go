package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"csinventory/internal/models"
	"csinventory/internal/repository"
	"csinventory/internal/repository/memory"
	"csinventory/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
	flags  *service.SystemSettingsService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test put a failing Repository in front of the
// memory store; wrap may be nil.
func newTestServerWith(t *testing.T, wrap func(*memory.Store) repository.Repository) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.New()
	var repo repository.Repository = store
	if wrap != nil {
		repo = wrap(store)
	}
	log := zap.NewNop()
	now := func() time.Time { return time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC) }
	flags := &service.SystemSettingsService{Repo: repo}
	items := &service.ItemService{Repo: repo, Logger: log, Flags: flags, Now: now}
	trades := &service.TradeService{Repo: repo, Items: items, Logger: log, Flags: flags, Now: now}

	r := gin.New()
	(&ItemHandler{Items: items, Logger: log, MaxImportBytes: 1024}).Register(r)
	(&TradeHandler{Trades: trades, Logger: log}).Register(r)
	(&InventoryHandler{Inventory: &service.InventoryService{Repo: repo}, Logger: log}).Register(r)
	(&StatsHandler{Trades: trades, Logger: log}).Register(r)
	(&PoolHandler{Pool: &service.PoolService{Repo: repo, Flags: flags, Now: now}, Logger: log}).Register(r)
	(&SystemSettingsHandler{Repo: repo, Settings: flags, Logger: log}).Register(r)
	return &testServer{engine: r, store: store, flags: flags}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) seedItem(t *testing.T, nameID int64, name string) {
	t.Helper()
	w, _ := s.do(t, http.MethodPost, "/api/items", map[string]any{"market_hash_name": name, "name_id": nameID, "en_name": name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestItems_CreateGetSearch(t *testing.T) {
	s := newTestServer(t)
	s.seedItem(t, 1001, "AK-47 | Redline (Field-Tested)")

	w, env := s.do(t, http.MethodPost, "/api/items", map[string]any{"market_hash_name": "Other", "name_id": 1001})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, http.StatusConflict, env.Code)

	w, env = s.do(t, http.MethodGet, "/api/items/1001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var item map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", item["market_hash_name"])

	w, _ = s.do(t, http.MethodGet, "/api/items/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/items/search?keyword=redline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Len(t, found, 1)

	w, env = s.do(t, http.MethodGet, "/api/items?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Meta["total"])
	assert.Equal(t, false, env.Meta["has_next"])
}

func TestItems_ImportInline(t *testing.T) {
	s := newTestServer(t)
	doc := `{"A": {"en_name": "A", "cn_name": "甲", "name_id": 1}, "B": {"en_name": "B"}}`

	w, env := s.do(t, http.MethodPost, "/api/items/import", map[string]any{"jsonData": doc})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res service.ImportResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, []string{"B (missing name_id)"}, res.SkippedItems)

	w, _ = s.do(t, http.MethodPost, "/api/items/import", map[string]any{"json_data": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func uploadFile(t *testing.T, s *testServer, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/items/import-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestItems_ImportFile(t *testing.T) {
	s := newTestServer(t)

	w := uploadFile(t, s, "items.json", `{"A": {"name_id": 1}}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = uploadFile(t, s, "items.csv", `{"A": {"name_id": 1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = uploadFile(t, s, "big.json", `{"A": "`+strings.Repeat("x", 2048)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTrades_FlowAndErrors(t *testing.T) {
	s := newTestServer(t)
	s.seedItem(t, 1001, "AK-47 | Redline (Field-Tested)")

	w, env := s.do(t, http.MethodPost, "/api/trades", map[string]any{
		"name_id": 1001, "type": "BUY", "unit_price": "2", "quantity": 10, "occurred_at": "2025-01-10T09:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Trade struct {
			ID          uint64 `json:"id"`
			TotalAmount string `json:"total_amount"`
		} `json:"trade"`
		Position *struct {
			CurrentQuantity     int    `json:"current_quantity"`
			WeightedAverageCost string `json:"weighted_average_cost"`
		} `json:"position"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "20", res.Trade.TotalAmount)
	require.NotNil(t, res.Position)
	assert.Equal(t, 10, res.Position.CurrentQuantity)

	w, _ = s.do(t, http.MethodPost, "/api/trades", map[string]any{"name_id": 1001, "type": "BUY", "unit_price": 5, "quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/trades/sell", map[string]any{"name_id": 1001, "unit_price": "4", "quantity": 16})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.EqualValues(t, 15, env.Meta["held"])
	assert.EqualValues(t, 16, env.Meta["requested"])

	w, env = s.do(t, http.MethodPost, "/api/trades", map[string]any{"name_id": 1001, "type": "GIFT", "unit_price": "4", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "type", env.Meta["field"])
	w, env = s.do(t, http.MethodPost, "/api/trades", map[string]any{"name_id": 1001, "type": "BUY", "unit_price": "0", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unit_price", env.Meta["field"])
	w, _ = s.do(t, http.MethodPost, "/api/trades", map[string]any{"name_id": 77, "type": "BUY", "unit_price": "1", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/trades/sell", map[string]any{"name_id": 1001, "unit_price": "4", "quantity": 6})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	sellID := res.Trade.ID

	w, env = s.do(t, http.MethodGet, "/api/inventory/1001/quantity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var qty map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &qty))
	assert.EqualValues(t, 9, qty["quantity"])

	w, env = s.do(t, http.MethodGet, "/api/trades?type=SELL", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Meta["total"])

	w, env = s.do(t, http.MethodGet, "/api/trades/history/1001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 3)
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", history[0]["market_hash_name"])

	w, _ = s.do(t, http.MethodGet, "/api/trades/date-range?start=2025-01-10T00:00:00Z", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, env = s.do(t, http.MethodGet, "/api/trades/date-range?start=2025-01-10T00:00:00Z&end=2025-01-10T23:59:59Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)

	w, _ = s.do(t, http.MethodDelete, "/api/trades/"+jsonNumber(sellID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/trades/"+jsonNumber(sellID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var positions []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &positions))
	require.Len(t, positions, 1)
	assert.EqualValues(t, 15, positions[0]["current_quantity"])

	w, _ = s.do(t, http.MethodGet, "/api/inventory/55", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingPositions struct {
	*memory.Store
}

func (f failingPositions) SavePositionTx(ctx context.Context, tx *gorm.DB, item *models.Position) error {
	return errors.New("disk full")
}

func TestTrades_PositionFailureIsServerError(t *testing.T) {
	s := newTestServerWith(t, func(store *memory.Store) repository.Repository {
		return failingPositions{Store: store}
	})
	s.seedItem(t, 1001, "AK-47 | Redline (Field-Tested)")

	w, _ := s.do(t, http.MethodPost, "/api/trades", map[string]any{"name_id": 1001, "type": "BUY", "unit_price": "2", "quantity": 3})
	assert.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	all, err := s.store.ListAllTrades(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStatsAndPool(t *testing.T) {
	s := newTestServer(t)
	s.seedItem(t, 1001, "AK-47 | Redline (Field-Tested)")
	for _, body := range []map[string]any{
		{"name_id": 1001, "type": "BUY", "unit_price": "2", "quantity": 10, "occurred_at": "2025-01-10T09:00:00Z"},
		{"name_id": 1001, "type": "BUY", "unit_price": "5", "quantity": 5, "occurred_at": "2025-01-10T10:00:00Z"},
		{"name_id": 1001, "type": "SELL", "unit_price": "4", "quantity": 6, "occurred_at": "2025-01-11T10:00:00Z"},
	} {
		w, _ := s.do(t, http.MethodPost, "/api/trades", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, env := s.do(t, http.MethodGet, "/api/stats/daily?start=2025-01-10&end=2025-01-11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var days []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &days))
	require.Len(t, days, 2)
	assert.Equal(t, "45", days[0]["total_buy"])
	assert.Equal(t, "-45", days[0]["net"])
	assert.Equal(t, "24", days[1]["net"])

	w, _ = s.do(t, http.MethodGet, "/api/stats/daily?start=2025-01-10", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/stats/daily?start=yesterday&end=2025-01-11", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/stats/daily/export?start=2025-01-10&end=2025-01-11", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "daily-flows_2025-01-10_2025-01-11.xlsx")

	w, env = s.do(t, http.MethodGet, "/api/investment-pool", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, "45", stats["peak_net_investment"])
	assert.Equal(t, "6", stats["realized_profit"])
	assert.Equal(t, "0.1333", stats["real_return_rate"])

	w, env = s.do(t, http.MethodPost, "/api/investment-pool/manual-value", map[string]any{"market_value": "36"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, "9", stats["unrealized_profit"])
	assert.Equal(t, true, stats["manual_value_applied"])

	w, _ = s.do(t, http.MethodPost, "/api/investment-pool/manual-value", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/investment-pool?market_value=-5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/investment-pool/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(t, http.MethodGet, "/api/investment-pool/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snaps []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &snaps))
	assert.Len(t, snaps, 1)
}

func TestSystemSettings_Switches(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/system-settings/switches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var switches []switchDTO
	require.NoError(t, json.Unmarshal(env.Data, &switches))
	assert.Len(t, switches, 3)

	w, _ = s.do(t, http.MethodPut, "/api/system-settings/switches/nope", map[string]any{"enabled": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodPut, "/api/system-settings/switches/trade_rollback", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/system-settings/switches/trade_rollback", map[string]any{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodDelete, "/api/trades/1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPut, "/api/system-settings/feature.item_import", map[string]any{"value": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodPut, "/api/system-settings/report.title", map[string]any{"value": "Skins"})
	require.Equal(t, http.StatusOK, w.Code)
	w, env = s.do(t, http.MethodGet, "/api/system-settings/report.title", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var setting settingDTO
	require.NoError(t, json.Unmarshal(env.Data, &setting))
	assert.JSONEq(t, `"Skins"`, string(setting.Value))
}

func jsonNumber(v uint64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	(&HealthHandler{}).Register(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db_missing")
}
