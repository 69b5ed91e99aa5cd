// Command server runs the converse-chronicle HTTP backend.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kmankan/converse-chronicle/internal/config"
	"github.com/kmankan/converse-chronicle/internal/health"
	"github.com/kmankan/converse-chronicle/internal/httpapi"
	"github.com/kmankan/converse-chronicle/internal/media"
	"github.com/kmankan/converse-chronicle/internal/objectstore"
	"github.com/kmankan/converse-chronicle/internal/observe"
	"github.com/kmankan/converse-chronicle/internal/repository"
	"github.com/kmankan/converse-chronicle/internal/server"
	"github.com/kmankan/converse-chronicle/internal/service"
	"github.com/kmankan/converse-chronicle/internal/storage"
	"github.com/kmankan/converse-chronicle/internal/transcribe"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := storage.RunMigrations(ctx, db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := objectstore.New(cfg.ObjectStore)
	if err != nil {
		logger.Error("failed to create object store client", slog.Any("error", err))
		os.Exit(1)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		logger.Error("failed to ensure bucket", slog.Any("error", err))
		os.Exit(1)
	}

	meterProvider, err := observe.InitProvider()
	if err != nil {
		logger.Error("failed to init metrics provider", slog.Any("error", err))
		os.Exit(1)
	}
	metrics, err := observe.NewMetrics(meterProvider)
	if err != nil {
		logger.Error("failed to create metrics", slog.Any("error", err))
		os.Exit(1)
	}

	recordingRepo := repository.NewRecordingRepository(db)
	recordingService := service.NewRecordingService(
		recordingRepo,
		store,
		transcribe.New(cfg.OpenAI),
		media.FFProbe{},
		cfg.ObjectStore.SignedURLTTL,
		logger,
		metrics,
	)

	healthHandler := health.New(
		health.Checker{Name: "database", Check: db.PingContext},
		health.Checker{Name: "objectstore", Check: store.Ping},
	)

	handler := httpapi.NewRouter(recordingService, healthHandler, metrics, cfg.APIToken, logger)
	srv := server.New(cfg, handler, logger)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(runCtx); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if strings.EqualFold(cfg.Driver, "postgres") {
		return storage.NewPostgres(ctx, cfg)
	}
	return storage.NewSQLite(cfg)
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
