// Command todo-monitor is the TodoWrite extractor hook. It reads a hook
// payload from stdin, surfaces the current in-progress task and a
// progress summary on stderr, and optionally mirrors the current task to
// the file named by ALPINE_TODO_FILE.
//
// Like every hook, it is stateless, makes no network calls, and exits 0
// on every path.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Backland-Labs/alpine/internal/todo"
)

func main() {
	logger := buildLogger()
	defer logger.Sync() //nolint:errcheck // best-effort flush

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		logger.Error("read hook input", zap.Error(err))
		return
	}

	var data todo.HookData
	if err := json.Unmarshal(input, &data); err != nil {
		logger.Error("parse hook payload", zap.Error(err))
		return
	}

	if data.HookEventName == "subagent:stop" {
		fmt.Fprintln(os.Stderr, "subagent completed")
		return
	}

	if data.EffectiveTool() != "todowrite" {
		logger.Debug("not a todowrite event, nothing to extract",
			zap.String("tool", data.EffectiveTool()),
		)
		return
	}

	items, err := todo.ExtractItems(data.Input())
	if err != nil {
		logger.Error("parse todowrite input", zap.Error(err))
		return
	}
	if len(items) == 0 {
		return
	}

	progress := todo.Summarize(items)
	logger.Info("task progress",
		zap.Int("total", progress.Total),
		zap.Int("completed", progress.Completed),
		zap.Int("in_progress", progress.InProgress),
		zap.Int("pending", progress.Pending),
		zap.Float64("completion_rate", progress.CompletionRate()),
	)

	if progress.Current != "" {
		fmt.Fprintf(os.Stderr, "current task: %s\n", progress.Current)
	}
	fmt.Fprintf(os.Stderr, "progress: [%s] %d/%d\n",
		todo.Bar(progress.Completed, progress.Total),
		progress.Completed, progress.Total,
	)

	if taskFile := os.Getenv("ALPINE_TODO_FILE"); taskFile != "" && progress.Current != "" {
		if err := os.WriteFile(taskFile, []byte(progress.Current), 0o644); err != nil {
			logger.Error("write current task file",
				zap.String("path", taskFile),
				zap.Error(err),
			)
		}
	}
}

func buildLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if os.Getenv("ALPINE_HOOK_VERBOSE") == "true" {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
