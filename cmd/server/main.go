package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/frogcom/api/internal/config"
	"github.com/frogcom/api/internal/database"
	"github.com/frogcom/api/internal/eventbus"
	"github.com/frogcom/api/internal/handlers"
	"github.com/frogcom/api/internal/llm"
	"github.com/frogcom/api/internal/middleware"
	"github.com/frogcom/api/internal/orchestrator"
	"github.com/frogcom/api/internal/provider"
	"github.com/frogcom/api/internal/telemetry"
	"github.com/frogcom/api/internal/trace"
)

func main() {
	ctx := context.Background()

	// Initialize logger with stdout sync
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("FrogCom API starting...",
		zap.String("version", "0.2.0"),
		zap.String("environment", os.Getenv("GO_ENV")),
	)

	cfg := config.Load()

	// Telemetry is optional; the collector may be down.
	if cfg.OTLPEndpoint != "" {
		shutdownTelemetry, err := telemetry.InitTracer(ctx, "frogcom-api", cfg.OTLPEndpoint)
		if err != nil {
			logger.Error("failed to initialize telemetry", zap.Error(err))
		} else {
			defer func() {
				if err := shutdownTelemetry(ctx); err != nil {
					logger.Error("failed to shutdown telemetry", zap.Error(err))
				}
			}()
		}
	}

	// Optional durable trace storage
	var db *database.Postgres
	if cfg.DatabaseURL != "" {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		db, err = database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		logger.Info("connected to postgres")
	}

	// Optional distributed rate limiting
	var rdb *database.Redis
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis, using local rate limiting", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
			logger.Info("connected to redis")
		}
	}

	// Optional trace event publishing
	var events *eventbus.Publisher
	if cfg.NATSURL != "" {
		events, err = eventbus.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS, trace events disabled", zap.Error(err))
			events = nil
		} else {
			defer events.Close()
			logger.Info("connected to NATS")
		}
	}

	// Configuration stores, seeded once from the environment
	primaryStore, err := llm.NewParamsStore(cfg.Primary)
	if err != nil {
		logger.Fatal("invalid primary model defaults", zap.Error(err))
	}
	secondaryStore, err := llm.NewParamsStore(cfg.Secondary)
	if err != nil {
		logger.Fatal("invalid secondary model defaults", zap.Error(err))
	}
	settingsStore, err := llm.NewSettingsStore(cfg.Orchestration)
	if err != nil {
		logger.Fatal("invalid orchestration defaults", zap.Error(err))
	}

	// Trace audit sink: dedicated JSON file plus optional durable writers
	auditLogger, err := newAuditLogger(cfg.LogDir)
	if err != nil {
		logger.Fatal("failed to open trace audit log", zap.Error(err))
	}
	defer auditLogger.Sync()

	var writers []trace.Writer
	if db != nil {
		writers = append(writers, db)
	}
	if events != nil {
		writers = append(writers, events)
	}
	sink := trace.NewSink(trace.SinkConfig{
		Audit:   auditLogger,
		Writers: writers,
		Logger:  logger,
	})
	recorder := trace.NewRecorder(sink)

	// Completion providers and the engine
	primaryClient := provider.NewOpenAIClient(cfg.PrimaryBaseURL, logger.Named("primary"))
	secondaryClient := provider.NewOpenAIClient(cfg.SecondaryBaseURL, logger.Named("secondary"))

	engine := orchestrator.NewEngine(
		primaryClient, secondaryClient,
		primaryStore, secondaryStore, settingsStore,
		recorder, logger,
	)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxRequestSize))

	healthHandler := handlers.NewHealthHandler(primaryClient, secondaryClient, db, rdb, events)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/deep", healthHandler.DeepHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	providerBreaker := middleware.NewCircuitBreaker()
	generateHandler := handlers.NewGenerateHandler(engine, primaryStore, providerBreaker, logger)
	configHandler := handlers.NewConfigHandler(primaryStore, secondaryStore, settingsStore, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimit, time.Minute)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTSecret, logger))
	v1.Use(middleware.RateLimit(rateLimiter, rdb, cfg.RateLimit, logger))
	{
		generate := v1.Group("")
		generate.Use(middleware.RequirePermission(middleware.PermGenerate))
		generate.Use(middleware.CircuitBreakerMiddleware(providerBreaker))
		generate.POST("/generate", generateHandler.Generate)

		cfgRead := v1.Group("/config")
		cfgRead.Use(middleware.RequirePermission(middleware.PermConfigRead))
		{
			cfgRead.GET("/llm", configHandler.GetLLM(handlers.RolePrimary))
			cfgRead.GET("/llm/secondary", configHandler.GetLLM(handlers.RoleSecondary))
			cfgRead.GET("/orchestration", configHandler.GetOrchestration)
		}

		cfgWrite := v1.Group("/config")
		cfgWrite.Use(middleware.RequirePermission(middleware.PermConfigWrite))
		{
			cfgWrite.PUT("/llm", configHandler.UpdateLLM(handlers.RolePrimary))
			cfgWrite.PUT("/llm/secondary", configHandler.UpdateLLM(handlers.RoleSecondary))
			cfgWrite.PUT("/orchestration", configHandler.UpdateOrchestration)
		}
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Generation responses can take minutes on slow models.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	// Drain queued trace records after the server stopped accepting work.
	sink.Close()

	logger.Info("server exited gracefully")
}

// newAuditLogger builds the JSON logger writing the trace audit file.
func newAuditLogger(logDir string) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	auditConfig := zap.NewProductionConfig()
	auditConfig.OutputPaths = []string{filepath.Join(logDir, "orchestration_trace.log")}
	auditConfig.ErrorOutputPaths = []string{"stderr"}
	auditConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return auditConfig.Build()
}
