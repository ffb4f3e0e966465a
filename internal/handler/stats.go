package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csinventory/internal/report"
	"csinventory/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatsHandler struct {
	Trades   *service.TradeService
	Logger   *zap.Logger
	Location *time.Location
}

func (h *StatsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/stats")
	g.GET("/daily", h.daily)
	g.GET("/daily/export", h.export)
}

// @Summary Daily buy/sell totals
// @Description Both bounds are inclusive calendar days. Days without trades are omitted.
// @Tags stats
// @Param start query string true "RFC3339 or YYYY-MM-DD"
// @Param end query string true "RFC3339 or YYYY-MM-DD"
// @Success 200 {object} apiResponse
// @Router /api/stats/daily [get]
func (h *StatsHandler) daily(c *gin.Context) {
	rows, ok := h.load(c)
	if !ok {
		return
	}
	Ok(c, rows, nil)
}

// @Summary Daily buy/sell totals as xlsx
// @Tags stats
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start query string true "RFC3339 or YYYY-MM-DD"
// @Param end query string true "RFC3339 or YYYY-MM-DD"
// @Success 200 {file} file
// @Router /api/stats/daily/export [get]
func (h *StatsHandler) export(c *gin.Context) {
	rows, ok := h.load(c)
	if !ok {
		return
	}
	raw, err := report.DailyFlowsXLSX(rows)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	start, end := c.Query("start"), c.Query("end")
	name := fmt.Sprintf("daily-flows_%s_%s.xlsx", safeDay(start), safeDay(end))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, raw)
}

func (h *StatsHandler) load(c *gin.Context) ([]service.DailyFlow, bool) {
	start, err := timeQuery(c, "start", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	end, err := timeQuery(c, "end", h.Location)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}
	if start == nil || end == nil {
		Error(c, http.StatusBadRequest, "start and end are required", nil)
		return nil, false
	}
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}
	rows, err := h.Trades.DailySummary(c.Request.Context(), start.In(loc), end.In(loc))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return nil, false
	}
	return rows, true
}

// safeDay keeps the date part of a query value for use in a file name.
func safeDay(raw string) string {
	if len(raw) >= 10 {
		if _, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			return raw[:10]
		}
	}
	return "range"
}
