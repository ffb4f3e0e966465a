package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"csinventory/internal/service"
)

type PoolHandler struct {
	Pool     *service.PoolService
	Logger   *zap.Logger
	Location *time.Location
}

func (h *PoolHandler) Register(r *gin.Engine) {
	g := r.Group("/api/investment-pool")
	g.GET("", h.stats)
	g.POST("/manual-value", h.manualValue)
	g.GET("/history", h.history)
	g.POST("/snapshot", h.snapshot)
}

// @Summary Investment pool statistics
// @Description Treats the whole ledger as one pool. market_value overrides the cost-basis holding value for unrealized profit.
// @Tags investment-pool
// @Param market_value query string false "current market value of all holdings"
// @Success 200 {object} apiResponse
// @Router /api/investment-pool [get]
func (h *PoolHandler) stats(c *gin.Context) {
	var manual *decimal.Decimal
	if raw := strings.TrimSpace(c.Query("market_value")); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid market_value", nil)
			return
		}
		manual = &v
	}
	h.respond(c, manual)
}

type manualValueRequest struct {
	MarketValue *decimal.Decimal `json:"market_value" swaggertype:"string"`
}

// @Summary Investment pool statistics with a manual market value
// @Tags investment-pool
// @Accept json
// @Param body body manualValueRequest true "market value"
// @Success 200 {object} apiResponse
// @Router /api/investment-pool/manual-value [post]
func (h *PoolHandler) manualValue(c *gin.Context) {
	var req manualValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.MarketValue == nil {
		Error(c, http.StatusBadRequest, "market_value is required", nil)
		return
	}
	h.respond(c, req.MarketValue)
}

func (h *PoolHandler) respond(c *gin.Context, manual *decimal.Decimal) {
	stats, err := h.Pool.Statistics(c.Request.Context(), manual)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, stats, nil)
}

// @Summary Stored pool snapshots, newest first
// @Tags investment-pool
// @Param limit query int false "max rows" default(168)
// @Param since query string false "RFC3339"
// @Param until query string false "RFC3339"
// @Success 200 {object} apiResponse
// @Router /api/investment-pool/history [get]
func (h *PoolHandler) history(c *gin.Context) {
	limit := intQuery(c, "limit", 168)
	since, err := timeQuery(c, "since", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	until, err := timeQuery(c, "until", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	items, err := h.Pool.History(c.Request.Context(), limit, since, until)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	out := make([]snapshotDTO, 0, len(items))
	for _, it := range items {
		out = append(out, toSnapshotDTO(it))
	}
	Ok(c, out, paginationMeta(limit, 0, int64(len(items))))
}

// @Summary Store a pool snapshot now
// @Tags investment-pool
// @Success 200 {object} apiResponse
// @Failure 403 {object} apiResponse "snapshots switched off"
// @Router /api/investment-pool/snapshot [post]
func (h *PoolHandler) snapshot(c *gin.Context) {
	snap, err := h.Pool.Snapshot(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	if snap == nil {
		writeServiceError(c, h.Logger, service.ErrFeatureDisabled)
		return
	}
	Ok(c, toSnapshotDTO(*snap), nil)
}
