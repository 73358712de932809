package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/fraud-sms/detector/internal/api/handlers"
	"github.com/fraud-sms/detector/internal/cache/redis"
	"github.com/fraud-sms/detector/internal/history"
	"github.com/fraud-sms/detector/internal/metrics"
	"github.com/fraud-sms/detector/internal/middleware/ratelimit"
	"github.com/fraud-sms/detector/internal/middleware/security"
	"github.com/fraud-sms/detector/internal/middleware/validation"
	"github.com/fraud-sms/detector/internal/remote"
	"github.com/fraud-sms/detector/internal/session"
	"github.com/fraud-sms/detector/internal/storage/sqlite"
	"github.com/fraud-sms/detector/pkg/config"
	appLogger "github.com/fraud-sms/detector/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: search ., ./config, /etc/fraud-sms)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Fraud SMS Detector",
		zap.String("remote", cfg.Remote.BaseURL),
		zap.String("store", cfg.Store.Driver),
	)

	metrics.Init()

	durable, closeStore, err := openStore(cfg)
	if err != nil {
		appLogger.Fatal("Failed to open history store", zap.Error(err))
	}
	defer closeStore()

	historyStore := history.NewStore(durable, cfg.History.Key)
	entries := historyStore.Load(context.Background())
	appLogger.Info("History loaded", zap.Int("entries", len(entries)))

	remoteClient, err := remote.NewClient(cfg.Remote.BaseURL, remote.Options{
		Timeout:          time.Duration(cfg.Remote.TimeoutSec) * time.Second,
		FailureThreshold: cfg.Remote.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.Remote.OpenTimeoutSec) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Failed to create classification client", zap.Error(err))
	}

	detector := session.NewDetector(remoteClient, historyStore, time.Now)
	modelMetrics := session.NewMetrics(remoteClient)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	rateLimiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, X-Client-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Development,
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	detectorHandler := handlers.NewDetectorHandler(detector)
	historyHandler := handlers.NewHistoryHandler(detector, cfg.Report.OutputDir, time.Now)
	metricsHandler := handlers.NewModelMetricsHandler(modelMetrics)
	wsHandler := handlers.NewWebSocketHandler(detector)

	api := app.Group("/api/v1", rateLimiter.Middleware(), validation.Middleware(validation.Config{
		MaxMessageLength: cfg.Server.MaxMessageLength,
		Logger:           appLogger.GetLogger(),
	}))

	api.Post("/check", detectorHandler.Check)
	api.Get("/check", detectorHandler.GetCheck)
	api.Delete("/check", detectorHandler.ClearCheck)

	api.Get("/history", historyHandler.List)
	api.Delete("/history", historyHandler.Clear)
	api.Get("/history/report", historyHandler.DownloadReport)
	api.Post("/history/report", historyHandler.SaveReport)

	api.Get("/model/metrics", metricsHandler.Get)
	api.Post("/model/metrics/refresh", metricsHandler.Refresh)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"time":    time.Now().Unix(),
			"remote":  remoteClient.BaseURL(),
			"store":   cfg.Store.Driver,
			"history": historyStore.Len(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

// openStore returns the durable backing for the history log and its close func.
func openStore(cfg *config.Config) (history.DurableStore, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		client, err := sqlite.NewClient(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := client.InitSchema(); err != nil {
			client.Close()
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case "redis":
		client, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	case "memory":
		appLogger.Warn("Using in-memory history store; history will not survive a restart")
		return history.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
