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

type TradeHandler struct {
	Trades   *service.TradeService
	Logger   *zap.Logger
	Location *time.Location
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/trades")
	g.POST("", h.create)
	g.POST("/sell", h.sell)
	g.GET("", h.list)
	g.GET("/history/:nameId", h.history)
	g.GET("/date-range", h.dateRange)
	g.DELETE("/:id", h.rollback)
}

type createTradeRequest struct {
	NameID       int64           `json:"name_id"`
	Type         string          `json:"type"`
	UnitPrice    decimal.Decimal `json:"unit_price" swaggertype:"string"`
	Quantity     int             `json:"quantity"`
	Platform     string          `json:"platform"`
	Counterparty string          `json:"counterparty"`
	// RFC3339; defaults to the time of the request.
	OccurredAt string `json:"occurred_at"`
}

func (r createTradeRequest) input(loc *time.Location) (service.CreateTradeInput, error) {
	in := service.CreateTradeInput{
		NameID:       r.NameID,
		Type:         r.Type,
		UnitPrice:    r.UnitPrice,
		Quantity:     r.Quantity,
		Platform:     r.Platform,
		Counterparty: r.Counterparty,
	}
	if raw := strings.TrimSpace(r.OccurredAt); raw != "" {
		ts, err := parseTime(raw, loc)
		if err != nil {
			return in, err
		}
		in.OccurredAt = ts
	}
	return in, nil
}

// @Summary Record a trade
// @Description Validates, appends the trade and updates the weighted-average position in one transaction.
// @Tags trades
// @Accept json
// @Param body body createTradeRequest true "trade"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Failure 409 {object} apiResponse "insufficient inventory"
// @Router /api/trades [post]
func (h *TradeHandler) create(c *gin.Context) {
	h.record(c, "")
}

// @Summary Record a sell
// @Tags trades
// @Accept json
// @Param body body createTradeRequest true "trade; type is ignored"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse "insufficient inventory"
// @Router /api/trades/sell [post]
func (h *TradeHandler) sell(c *gin.Context) {
	h.record(c, "SELL")
}

func (h *TradeHandler) record(c *gin.Context, forceType string) {
	var req createTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	in, err := req.input(h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid occurred_at", nil)
		return
	}
	var res *service.TradeResult
	if forceType != "" {
		res, err = h.Trades.CreateSell(c.Request.Context(), in)
	} else {
		res, err = h.Trades.CreateTrade(c.Request.Context(), in)
	}
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, tradeResultDTO{Trade: toTradeDTO(res.Trade), Position: toPositionDTO(res.Position)}, nil)
}

// @Summary List trades, newest first
// @Tags trades
// @Param name_id query int false "item name id"
// @Param type query string false "BUY or SELL"
// @Param start query string false "RFC3339 or YYYY-MM-DD"
// @Param end query string false "RFC3339 or YYYY-MM-DD"
// @Param limit query int false "page size" default(100)
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/trades [get]
func (h *TradeHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	f := service.TradeFilter{Limit: limit, Offset: offset}
	if v := intQuery(c, "name_id", 0); v > 0 {
		nameID := int64(v)
		f.NameID = &nameID
	}
	if v := strings.TrimSpace(c.Query("type")); v != "" {
		f.Type = &v
	}
	var err error
	if f.Start, err = timeQuery(c, "start", h.Location); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if f.End, err = timeQuery(c, "end", h.Location); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	items, total, err := h.Trades.ListTrades(c.Request.Context(), f)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toTradeViewDTOs(items), paginationMeta(limit, offset, total))
}

// @Summary Trade history of one item
// @Tags trades
// @Param nameId path int true "item name id"
// @Success 200 {object} apiResponse
// @Router /api/trades/history/{nameId} [get]
func (h *TradeHandler) history(c *gin.Context) {
	nameID := int64Param(c, "nameId")
	if nameID == 0 {
		Error(c, http.StatusBadRequest, "invalid name id", nil)
		return
	}
	items, err := h.Trades.TradeHistory(c.Request.Context(), nameID)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toTradeViewDTOs(items), nil)
}

// @Summary Trades between two instants
// @Tags trades
// @Param start query string true "RFC3339"
// @Param end query string true "RFC3339"
// @Success 200 {object} apiResponse
// @Router /api/trades/date-range [get]
func (h *TradeHandler) dateRange(c *gin.Context) {
	start, err := timeQuery(c, "start", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	end, err := timeQuery(c, "end", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if start == nil || end == nil {
		Error(c, http.StatusBadRequest, "start and end are required", nil)
		return
	}
	items, err := h.Trades.TradesBetween(c.Request.Context(), *start, *end)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toTradeViewDTOs(items), nil)
}

// @Summary Roll back a trade
// @Description Deletes the trade and reverses its effect on the position. The reversal is approximate.
// @Tags trades
// @Param id path int true "trade id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/trades/{id} [delete]
func (h *TradeHandler) rollback(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	res, err := h.Trades.RollbackTrade(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, tradeResultDTO{Trade: toTradeDTO(res.Trade), Position: toPositionDTO(res.Position)}, nil)
}
