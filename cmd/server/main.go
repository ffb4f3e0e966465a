package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"csinventory/internal/cache"
	"csinventory/internal/config"
	cronrunner "csinventory/internal/cron"
	"csinventory/internal/db"
	"csinventory/internal/handler"
	"csinventory/internal/logger"
	"csinventory/internal/metrics"
	"csinventory/internal/middleware"
	gormrepository "csinventory/internal/repository/gorm"
	"csinventory/internal/service"

	_ "csinventory/docs"
)

func main() {
	cfgPath := os.Getenv("CSINV_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CSINV_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB, logger)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.App.Location()
	store := gormrepository.New(dbConn.Gorm)
	settingsSvc := &service.SystemSettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(ctx); err != nil {
		logger.Warn("init default system switches failed", zap.Error(err))
	}

	itemSvc := &service.ItemService{Repo: store, Logger: logger, Flags: settingsSvc}
	redisClient := openRedis(ctx, cfg.Redis, logger)
	if redisClient != nil {
		defer redisClient.Close()
		itemSvc.Cache = cache.NewItemCache(redisClient, cfg.Redis.ItemTTL, cfg.Redis.KeyPrefix)
	}
	tradeSvc := &service.TradeService{Repo: store, Items: itemSvc, Logger: logger, Flags: settingsSvc}
	inventorySvc := &service.InventoryService{Repo: store, Logger: logger}
	poolSvc := &service.PoolService{
		Repo:          store,
		Logger:        logger,
		Flags:         settingsSvc,
		Location:      loc,
		SnapshotEvery: cfg.Cron.SnapshotEvery,
	}

	if path := strings.TrimSpace(cfg.Import.Path); path != "" {
		importOnStart(ctx, itemSvc, path, logger)
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.AccessLog(logger))
	if cfg.Metrics.Enabled {
		engine.Use(metrics.Middleware())
	}
	engine.Use(middleware.RequireBearer(cfg.Auth))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Redis: redisClient}
	healthHandler.Register(engine)
	middleware.RegisterDocs(engine)

	itemHandler := &handler.ItemHandler{Items: itemSvc, Logger: logger, MaxImportBytes: cfg.Import.MaxFileBytes}
	itemHandler.Register(engine)
	tradeHandler := &handler.TradeHandler{Trades: tradeSvc, Logger: logger, Location: loc}
	tradeHandler.Register(engine)
	inventoryHandler := &handler.InventoryHandler{Inventory: inventorySvc, Logger: logger}
	inventoryHandler.Register(engine)
	statsHandler := &handler.StatsHandler{Trades: tradeSvc, Logger: logger, Location: loc}
	statsHandler.Register(engine)
	poolHandler := &handler.PoolHandler{Pool: poolSvc, Logger: logger, Location: loc}
	poolHandler.Register(engine)
	settingsHandler := &handler.SystemSettingsHandler{Repo: store, Settings: settingsSvc, Logger: logger}
	settingsHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Metrics.Enabled {
		engine.GET(cfg.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err = cronRunner.Add("pool_snapshot", cfg.Cron.PoolSnapshot, func(ctx context.Context) error {
			_, err := poolSvc.Snapshot(ctx)
			return err
		})
		if err != nil {
			logger.Warn("cron register pool snapshot failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.Server.HTTPAddr),
			zap.String("timezone", loc.String()),
			zap.Bool("auth", !cfg.Auth.Disabled && len(cfg.Auth.Tokens) > 0),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
