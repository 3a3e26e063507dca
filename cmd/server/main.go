package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/loccalGMAIL/EtiquetasESL-sub000/config"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/database"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/esl"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/handlers"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/jobs"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/middleware"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/pipeline"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/storage"
	"github.com/loccalGMAIL/EtiquetasESL-sub000/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting catalog sync service")

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry disabled")
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to apply schema")
	}

	store := database.NewStore(database.Pool())
	settings := database.NewSettings(database.Pool(), cfg.Sync.SettingsTTL)

	// A restart kills any in-flight run; its upload must not stay stuck in
	// processing.
	if interrupted, err := store.MarkInterruptedUploads(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to handle interrupted uploads")
	} else if interrupted > 0 {
		logger.Info().Int64("count", interrupted).Msg("Marked interrupted uploads as failed")
	}

	eslClient := esl.NewClient(esl.Config{
		BaseURL:           cfg.ESL.BaseURL,
		Username:          cfg.ESL.Username,
		Password:          cfg.ESL.Password,
		ShopCode:          cfg.ESL.ShopCode,
		BatchSize:         cfg.ESL.BatchSize,
		Timeout:           cfg.ESL.Timeout,
		TokenTTL:          cfg.ESL.TokenTTL,
		RequestsPerSecond: cfg.ESL.RequestsPerSecond,
	})

	files, err := storage.NewLocal(cfg.Storage.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare upload storage")
	}

	pipe := pipeline.New(store, settings, eslClient)
	h := handlers.New(store, pipe, settings, eslClient, files, cfg.Sync.RunTimeout)

	retentionCtx, stopRetention := context.WithCancel(ctx)
	defer stopRetention()
	go jobs.NewRetention(store, files, jobs.DefaultRetentionConfig()).Start(retentionCtx, 24*time.Hour)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	setupMiddleware(router, logger)

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(cfg.Server.APIKey))
	api.Use(middleware.RateLimit())
	h.Routes(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "etiquetas-esl").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
