package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/blackoutassasin/NF-BOT/internal/adapter/handler"
	"github.com/blackoutassasin/NF-BOT/internal/adapter/ocr"
	"github.com/blackoutassasin/NF-BOT/internal/adapter/storage"
	"github.com/blackoutassasin/NF-BOT/internal/config"
	"github.com/blackoutassasin/NF-BOT/internal/core/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Inventory and ledger store
	store, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("store opened", slog.String("path", cfg.DatabasePath))

	// Session store
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	sessions := storage.NewRedisSessionAdapter(rdb, cfg.SessionTTL)
	logger.Info("connected to redis", slog.String("addr", cfg.RedisAddr))

	extractor := ocr.NewTesseractExtractor(cfg.OCRBinary)

	dispenser := service.NewDispenseService(store, sessions, extractor, service.DispenseConfig{
		ExpectedAmount: cfg.ProductPrice,
		BkashNumber:    cfg.BkashNumber,
		NagadNumber:    cfg.NagadNumber,
		OCRTimeout:     cfg.OCRTimeout,
		MaxAttempts:    cfg.MaxAttempts,
	}, logger)

	router := chi.NewRouter()
	router.Use(handler.NewStructuredLogger(logger))
	handler.NewHTTPHandler(dispenser, cfg.AdminID).Routes(router)

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", slog.String("port", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	rdb.Close()
	store.Close()
	logger.Info("connections closed")
}
