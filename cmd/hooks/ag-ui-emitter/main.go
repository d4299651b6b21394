// Command ag-ui-emitter is the tool-call telemetry hook. The workflow
// engine spawns it once per tool call with the tool call record on
// stdin; it emits an AG-UI envelope to the configured events collector,
// batching, sampling, and breaking the circuit on repeated failures.
//
// The process exits 0 unconditionally: telemetry failure must never
// block the invoking workflow. All diagnostics go to stderr.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Backland-Labs/alpine/internal/hook"
)

func main() {
	logger := mustBuildLogger(envOrDefault("ALPINE_HOOK_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	cfg := hook.ConfigFromEnv()
	hook.NewDriver(cfg, logger).Run(context.Background(), os.Stdin)
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
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zap.NewProductionEncoderConfig(),
		// stdout belongs to the invoking workflow; everything the hook
		// says goes to stderr.
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		// Even a broken logger must not fail the hook.
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
