// Command events-collector is the HTTP service the emitter hook posts
// to. It ingests AG-UI tool call envelopes, persists them to ClickHouse
// (or logs them when no DSN is configured), and exposes a query API and
// per-run SSE streams over the stored events.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Backland-Labs/alpine/internal/collector/api"
	"github.com/Backland-Labs/alpine/internal/collector/auth"
	"github.com/Backland-Labs/alpine/internal/collector/query"
	"github.com/Backland-Labs/alpine/internal/collector/storage"
	"github.com/Backland-Labs/alpine/internal/collector/stream"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("ALPINE_COLLECTOR_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("ALPINE_COLLECTOR_PORT", "8090")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	cacheTTL := envOrDefaultInt("ALPINE_COLLECTOR_AUTH_CACHE_TTL_S", 30)

	logger.Info("starting events collector",
		zap.String("http_port", httpPort),
	)

	// Storage — ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// ClickHouse reader (for the query API)
	var reader *query.Reader
	if clickhouseDSN != "" {
		var err error
		reader, err = query.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = reader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// Query API auth — Postgres-backed when a DSN is set, open otherwise
	var authenticator auth.Authenticator
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		authenticator = auth.NewPostgresAuthenticator(auth.PostgresAuthConfig{
			DB:       db,
			CacheTTL: time.Duration(cacheTTL) * time.Second,
			Logger:   logger,
		})
		logger.Info("postgres auth enabled")
	} else {
		logger.Info("no POSTGRES_DSN set, query API is unauthenticated")
	}

	deps := &api.Dependencies{
		Writer: writer,
		Reader: reader,
		Broker: stream.NewBroker(logger),
		Auth:   authenticator,
		Logger: logger,
	}

	httpServer := &http.Server{
		Addr:        ":" + httpPort,
		Handler:     api.NewRouter(deps),
		ReadTimeout: 10 * time.Second,
		// No WriteTimeout: SSE streams stay open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("events collector stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
