package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csinventory/internal/accounting"
	"csinventory/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// writeServiceError maps service and accounting errors onto HTTP statuses.
// Unclassified errors come from storage and are reported as 502.
func writeServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	var meta map[string]any

	var verr *service.ValidationError
	var inv *accounting.InsufficientInventoryError
	switch {
	case errors.As(err, &verr):
		meta = map[string]any{"field": verr.Field}
	case errors.As(err, &inv):
		meta = map[string]any{"name_id": inv.NameID, "held": inv.Held, "requested": inv.Requested}
	}

	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	Error(c, status, err.Error(), meta)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, accounting.ErrInvalidTradeType):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrTradeNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounting.ErrInsufficientInventory),
		errors.Is(err, accounting.ErrReversal),
		errors.Is(err, service.ErrDuplicateItem):
		return http.StatusConflict
	case errors.Is(err, service.ErrFeatureDisabled):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInconsistentState):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
