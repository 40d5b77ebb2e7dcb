package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	costingapp "github.com/mfgcost/backend/internal/application/costing"
	productionapp "github.com/mfgcost/backend/internal/application/production"
	"github.com/mfgcost/backend/internal/domain/costing"
	"github.com/mfgcost/backend/internal/infrastructure/config"
	"github.com/mfgcost/backend/internal/infrastructure/event"
	"github.com/mfgcost/backend/internal/infrastructure/logger"
	"github.com/mfgcost/backend/internal/infrastructure/persistence"
	"github.com/mfgcost/backend/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting manufacturing cost backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories and domain services
	orderRepo := persistence.NewGormProductionOrderRepository(db.DB)
	trackingItemRepo := persistence.NewGormTrackingItemRepository(db.DB)
	costLineRepo := persistence.NewGormCostLineRepository(db.DB)
	ledgerService := persistence.NewGormLedgerService(db.DB)
	masterDataService := persistence.NewGormMasterDataService(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Initialize application services
	postingEngine := costing.NewWIPPostingEngine(ledgerService, masterDataService, log)
	orderService := productionapp.NewOrderService(orderRepo, eventBus, log)
	trackingService := costingapp.NewTrackingService(
		orderRepo,
		trackingItemRepo,
		costLineRepo,
		masterDataService,
		postingEngine,
		eventBus,
		log,
	)

	// Register event handlers: production order lifecycle drives cost tracking
	orderConfirmedHandler := costingapp.NewOrderConfirmedHandler(trackingService, log)
	eventBus.Subscribe(orderConfirmedHandler)

	consumptionRecordedHandler := costingapp.NewConsumptionRecordedHandler(trackingService, log)
	eventBus.Subscribe(consumptionRecordedHandler)

	operationTimeLoggedHandler := costingapp.NewOperationTimeLoggedHandler(trackingService, log)
	eventBus.Subscribe(operationTimeLoggedHandler)

	resourceAddedHandler := costingapp.NewResourceAddedHandler(trackingService, log)
	eventBus.Subscribe(resourceAddedHandler)

	orderCompletedHandler := costingapp.NewOrderCompletedHandler(trackingService, log)
	eventBus.Subscribe(orderCompletedHandler)

	orderCancelledHandler := costingapp.NewOrderCancelledHandler(trackingService, log)
	eventBus.Subscribe(orderCancelledHandler)

	log.Info("Event handlers registered",
		zap.Strings("order_confirmed_events", orderConfirmedHandler.EventTypes()),
		zap.Strings("consumption_recorded_events", consumptionRecordedHandler.EventTypes()),
		zap.Strings("operation_time_logged_events", operationTimeLoggedHandler.EventTypes()),
		zap.Strings("resource_added_events", resourceAddedHandler.EventTypes()),
		zap.Strings("order_completed_events", orderCompletedHandler.EventTypes()),
		zap.Strings("order_cancelled_events", orderCancelledHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Start the periodic WIP posting sweep (if enabled)
	sweepDone := make(chan struct{})
	if cfg.Posting.SweepEnabled {
		go runSweep(trackingService, cfg.Posting.SweepInterval, sweepDone, log)
		log.Info("WIP posting sweep started",
			zap.Duration("interval", cfg.Posting.SweepInterval),
		)
	}

	// Initialize HTTP handlers
	orderHandler := handler.NewProductionOrderHandler(orderService)
	costingHandler := handler.NewCostTrackingHandler(trackingService, ledgerService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Report binding failures using JSON field names
	handler.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	api := engine.Group("/api/v1")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Production domain (order lifecycle)
	productionRoutes := api.Group("/production")
	productionRoutes.POST("/orders", orderHandler.Create)
	productionRoutes.GET("/orders", orderHandler.List)
	productionRoutes.GET("/orders/:id", orderHandler.GetByID)
	productionRoutes.POST("/orders/:id/confirm", orderHandler.Confirm)
	productionRoutes.POST("/orders/:id/consume", orderHandler.Consume)
	productionRoutes.POST("/orders/:id/log-time", orderHandler.LogTime)
	productionRoutes.POST("/orders/:id/finish-work-order", orderHandler.FinishWorkOrder)
	productionRoutes.POST("/orders/:id/produce", orderHandler.RecordProduction)
	productionRoutes.POST("/orders/:id/materials", orderHandler.AddMaterial)
	productionRoutes.POST("/orders/:id/work-orders", orderHandler.AddWorkOrder)
	productionRoutes.POST("/orders/:id/complete", orderHandler.Complete)
	productionRoutes.POST("/orders/:id/cancel", orderHandler.Cancel)

	// Costing domain (tracking items, cost lines, WIP postings)
	costingRoutes := api.Group("/costing")
	costingRoutes.GET("/orders/:id/tracking-items", costingHandler.ListTrackingItems)
	costingRoutes.GET("/orders/:id/cost-lines", costingHandler.ListCostLines)
	costingRoutes.GET("/orders/:id/ledger-entries", costingHandler.ListLedgerEntries)
	costingRoutes.POST("/orders/:id/post-wip", costingHandler.PostInterim)
	costingRoutes.POST("/orders/:id/correct", costingHandler.CorrectFinal)
	costingRoutes.POST("/sweep", costingHandler.Sweep)
	costingRoutes.GET("/tracking-items/pending", costingHandler.ListPendingVariance)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	close(sweepDone)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// runSweep periodically posts pending tracked cost across all open orders
func runSweep(tracking *costingapp.TrackingService, interval time.Duration, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			result, err := tracking.SweepPending(context.Background())
			if err != nil {
				log.Error("WIP posting sweep failed", zap.Error(err))
				continue
			}
			log.Info("WIP posting sweep completed",
				zap.Int("orders_processed", result.OrdersProcessed),
				zap.Int("orders_failed", result.OrdersFailed),
				zap.Int("entries_posted", result.EntriesPosted),
			)
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
