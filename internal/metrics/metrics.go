// Package metrics holds the Prometheus collectors of the ledger service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts recorded trades by type.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_trades_total",
		Help: "Total number of trades recorded",
	}, []string{"type"})

	// TradeRejections counts intake rejections by reason.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_trade_rejections_total",
		Help: "Trades rejected at intake",
	}, []string{"reason"})

	TradeRollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "csinv_trade_rollbacks_total",
		Help: "Trades deleted with a best-effort position reversal",
	})

	// HeldPositions tracks the number of items with a non-zero quantity.
	HeldPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "csinv_held_positions",
		Help: "Number of items currently held",
	})

	ItemsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_items_imported_total",
		Help: "Catalog entries processed by imports",
	}, []string{"result"})

	ItemCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_item_cache_lookups_total",
		Help: "Item cache lookups by result",
	}, []string{"result"})

	PoolSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_pool_snapshots_total",
		Help: "Pool snapshot job runs by result",
	}, []string{"result"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csinv_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "csinv_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency. The path label is the
// matched route template so ids do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
