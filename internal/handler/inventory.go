package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csinventory/internal/service"
)

type InventoryHandler struct {
	Inventory *service.InventoryService
	Logger    *zap.Logger
}

func (h *InventoryHandler) Register(r *gin.Engine) {
	g := r.Group("/api/inventory")
	g.GET("", h.list)
	g.GET("/:nameId", h.get)
	g.GET("/:nameId/quantity", h.quantity)
}

// @Summary Held positions, most recently changed first
// @Tags inventory
// @Param limit query int false "page size" default(500)
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/inventory [get]
func (h *InventoryHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 500)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Inventory.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	out := make([]positionDTO, 0, len(items))
	for _, v := range items {
		out = append(out, toPositionViewDTO(v))
	}
	Ok(c, out, paginationMeta(limit, offset, total))
}

// @Summary Position of one item
// @Tags inventory
// @Param nameId path int true "item name id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/inventory/{nameId} [get]
func (h *InventoryHandler) get(c *gin.Context) {
	nameID := int64Param(c, "nameId")
	if nameID == 0 {
		Error(c, http.StatusBadRequest, "invalid name id", nil)
		return
	}
	view, err := h.Inventory.Get(c.Request.Context(), nameID)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	if view == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	Ok(c, toPositionViewDTO(*view), nil)
}

// @Summary Units held of one item
// @Tags inventory
// @Param nameId path int true "item name id"
// @Success 200 {object} apiResponse
// @Router /api/inventory/{nameId}/quantity [get]
func (h *InventoryHandler) quantity(c *gin.Context) {
	nameID := int64Param(c, "nameId")
	if nameID == 0 {
		Error(c, http.StatusBadRequest, "invalid name id", nil)
		return
	}
	qty, err := h.Inventory.Quantity(c.Request.Context(), nameID)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, map[string]any{"name_id": nameID, "quantity": qty}, nil)
}
