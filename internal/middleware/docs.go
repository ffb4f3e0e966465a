package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, serviceDocs)
	})
}

const serviceDocs = `# CS Inventory Service

Trade ledger for CS2 skins with weighted-average-cost inventory and an
investment pool view over the whole history.

## Auth

All /api/* routes, /swagger and /docs require "Authorization: Bearer <token>"
when auth.tokens is configured. /healthz, /readyz and /metrics are public.

## Envelope

Every /api response is {"code", "message", "data", "meta"}. code is 0 on
success and the HTTP status otherwise. List endpoints put limit, offset,
total and has_next in meta.

## Routes

Items
- GET    /api/items
- GET    /api/items/search?keyword=&limit=
- GET    /api/items/{name_id}
- POST   /api/items
- POST   /api/items/import           {"json_data": "..."}
- POST   /api/items/import-file      multipart "file", .json only

Trades
- POST   /api/trades                 {"name_id", "type", "unit_price", "quantity"}
- POST   /api/trades/sell            {"name_id", "unit_price", "quantity"}
- GET    /api/trades?name_id=&type=&start=&end=
- GET    /api/trades/history/{name_id}
- GET    /api/trades/date-range?start=&end=
- DELETE /api/trades/{id}            best-effort rollback

Inventory
- GET    /api/inventory
- GET    /api/inventory/{name_id}
- GET    /api/inventory/{name_id}/quantity

Statistics
- GET    /api/stats/daily?start=&end=
- GET    /api/stats/daily/export?start=&end=   xlsx
- GET    /api/investment-pool?market_value=
- POST   /api/investment-pool/manual-value     {"market_value": "..."}
- GET    /api/investment-pool/history
- POST   /api/investment-pool/snapshot

Settings
- GET    /api/system-settings
- GET    /api/system-settings/switches
- GET    /api/system-settings/switches/{name}
- PUT    /api/system-settings/switches/{name}  {"enabled": true}
- GET    /api/system-settings/{key}
- PUT    /api/system-settings/{key}            {"value": ..., "description": "..."}
`
