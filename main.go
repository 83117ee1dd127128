package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightwatch/config"
	"lightwatch/database"
	"lightwatch/handlers"
	"lightwatch/logging"
	"lightwatch/mqtt"
	"lightwatch/redis"
	"lightwatch/services"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (status cache + transition sink for the notifier)
	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected successfully")

	// Initialize services
	livenessService := services.NewLivenessService(db, redisClient, logger)
	channelService := services.NewChannelService(db, livenessService, logger)
	statisticsService := services.NewStatisticsService(db.ChannelRepo, db.HistoryRepo)

	// Optional MQTT ping ingress
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(cfg, livenessService, logger)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT client: %v", err)
		}
		defer mqttClient.Disconnect()
	}

	// Device-facing ping server
	pingHandler := handlers.NewPingHandler(livenessService, logger)
	pingServer := &http.Server{
		Addr:         cfg.PingAddr,
		Handler:      handlers.NewPingRouter(pingHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Operator-facing API server
	handlers.SetErrorLogger(logger)
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handlers.CustomHTTPErrorHandler
	e.Use(middleware.Recover())
	apiHandler := handlers.NewAPIHandler(channelService, livenessService, statisticsService)
	handlers.RegisterRoutes(e, apiHandler)
	apiServer := &http.Server{
		Addr:         cfg.APIAddr,
		Handler:      e,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background timeout sweep
	sweeper := services.NewSweeper(livenessService, cfg.PingTimeout, cfg.SweepInterval, logger)
	sweeper.Start()

	go func() {
		logger.Info("Starting ping server", "addr", cfg.PingAddr)
		if err := pingServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ping server failed: %v", err)
		}
	}()
	go func() {
		logger.Info("Starting API server", "addr", cfg.APIAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pingServer.Shutdown(ctx); err != nil {
		logger.Error("Ping server shutdown error", slog.Any("error", err))
	}
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("API server shutdown error", slog.Any("error", err))
	}

	logger.Info("Server stopped")
}
