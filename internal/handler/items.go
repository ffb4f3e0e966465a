package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csinventory/internal/service"
)

const defaultMaxImportBytes = 50 << 20

type ItemHandler struct {
	Items  *service.ItemService
	Logger *zap.Logger
	// MaxImportBytes caps uploaded catalog files.
	MaxImportBytes int64
}

func (h *ItemHandler) Register(r *gin.Engine) {
	g := r.Group("/api/items")
	g.GET("", h.list)
	g.GET("/search", h.search)
	g.GET("/:nameId", h.get)
	g.POST("", h.create)
	g.POST("/import", h.importJSON)
	g.POST("/import-file", h.importFile)
}

// @Summary List items
// @Tags items
// @Param limit query int false "page size" default(100)
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/items [get]
func (h *ItemHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	items, total, err := h.Items.List(c.Request.Context(), limit, offset)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toItemDTOs(items), paginationMeta(limit, offset, total))
}

// @Summary Search items by market hash, English or Chinese name
// @Tags items
// @Param keyword query string false "substring, case-insensitive"
// @Param limit query int false "max results, capped at 50" default(15)
// @Success 200 {object} apiResponse
// @Router /api/items/search [get]
func (h *ItemHandler) search(c *gin.Context) {
	items, err := h.Items.Search(c.Request.Context(), c.Query("keyword"), intQuery(c, "limit", 0))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toItemDTOs(items), nil)
}

// @Summary Get item
// @Tags items
// @Param nameId path int true "item name id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/items/{nameId} [get]
func (h *ItemHandler) get(c *gin.Context) {
	nameID := int64Param(c, "nameId")
	if nameID == 0 {
		Error(c, http.StatusBadRequest, "invalid name id", nil)
		return
	}
	item, err := h.Items.Get(c.Request.Context(), nameID)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toItemDTO(*item), nil)
}

type createItemRequest struct {
	MarketHashName string `json:"market_hash_name"`
	NameID         int64  `json:"name_id"`
	EnName         string `json:"en_name"`
	CnName         string `json:"cn_name"`
}

// @Summary Create item
// @Tags items
// @Accept json
// @Param body body createItemRequest true "item"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/items [post]
func (h *ItemHandler) create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Items.Create(c.Request.Context(), service.CreateItemInput{
		MarketHashName: req.MarketHashName,
		NameID:         req.NameID,
		EnName:         req.EnName,
		CnName:         req.CnName,
	})
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, toItemDTO(*item), nil)
}

type importItemsRequest struct {
	JSONData string `json:"json_data"`
	// Accepted for clients that still send the camelCase key.
	LegacyJSONData string `json:"jsonData"`
}

// @Summary Import items from an inline JSON document
// @Tags items
// @Accept json
// @Param body body importItemsRequest true "document as a string"
// @Success 200 {object} apiResponse
// @Router /api/items/import [post]
func (h *ItemHandler) importJSON(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes())
	var req importItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	doc := req.JSONData
	if strings.TrimSpace(doc) == "" {
		doc = req.LegacyJSONData
	}
	if strings.TrimSpace(doc) == "" {
		Error(c, http.StatusBadRequest, "json_data is required", nil)
		return
	}
	res, err := h.Items.ImportJSON(c.Request.Context(), "inline", strings.NewReader(doc))
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Import items from an uploaded .json file
// @Tags items
// @Accept multipart/form-data
// @Param file formData file true "catalog document"
// @Success 200 {object} apiResponse
// @Failure 413 {object} apiResponse
// @Router /api/items/import-file [post]
func (h *ItemHandler) importFile(c *gin.Context) {
	limit := h.maxBytes()
	// Leave room for the multipart envelope around the file.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(c, http.StatusRequestEntityTooLarge, "file too large", nil)
			return
		}
		Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if header.Size == 0 {
		Error(c, http.StatusBadRequest, "file is empty", nil)
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		Error(c, http.StatusBadRequest, "only .json files are accepted", nil)
		return
	}
	if header.Size > limit {
		Error(c, http.StatusRequestEntityTooLarge, "file too large", map[string]any{"max_bytes": limit})
		return
	}
	f, err := header.Open()
	if err != nil {
		Error(c, http.StatusBadRequest, "unreadable file", nil)
		return
	}
	defer f.Close()

	res, err := h.Items.ImportJSON(c.Request.Context(), filepath.Base(header.Filename), f)
	if err != nil {
		writeServiceError(c, h.Logger, err)
		return
	}
	Ok(c, res, nil)
}

func (h *ItemHandler) maxBytes() int64 {
	if h.MaxImportBytes > 0 {
		return h.MaxImportBytes
	}
	return defaultMaxImportBytes
}
