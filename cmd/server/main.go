package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/replyhq/reply-backend/internal/api"
	"github.com/replyhq/reply-backend/internal/config"
	"github.com/replyhq/reply-backend/internal/database"
	"github.com/replyhq/reply-backend/internal/logger"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"github.com/replyhq/reply-backend/internal/websocket"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	slog.Info("Starting Reply backend server...")
	cfg.LogConfig(log)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Object storage
	var store objectstore.ObjectStore
	if cfg.S3Bucket != "" {
		store, err = objectstore.NewS3Store(context.Background(),
			objectstore.WithBucket(cfg.S3Bucket),
			objectstore.WithRegion(cfg.S3Region),
			objectstore.WithEndpoint(cfg.S3Endpoint, cfg.S3PathStyle),
			objectstore.WithStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, ""),
			objectstore.WithTimeout(cfg.StorageTimeout),
			objectstore.WithLogger(log),
		)
		if err != nil {
			slog.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		slog.Warn("S3_BUCKET not set - using in-memory object store, attachments are NOT persistent")
		store = objectstore.NewMemoryStore()
	}

	// Notification hub
	hub := websocket.NewHub(log)
	go hub.Run()

	// HTTP server
	var origins []string
	if cfg.AllowedOrigins != "" {
		origins = strings.Split(cfg.AllowedOrigins, ",")
	}

	e := api.NewRouter(&api.RouterConfig{
		DB:                db,
		ObjectStore:       store,
		Hub:               hub,
		Logger:            log,
		PresignTTL:        cfg.PresignTTL,
		MaxAttachmentSize: cfg.MaxAttachmentSize,
		AllowedOrigins:    origins,
		RateLimit:         int(cfg.RateLimitRequests),
		RateBurst:         cfg.RateLimitBurst,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", slog.Any("error", err))
	}

	slog.Info("Server stopped")
}
