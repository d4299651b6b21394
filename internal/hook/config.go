package hook

import (
	"os"
	"path/filepath"
	"strconv"
)

// Environment variables read by the emitter hook.
const (
	EnvEndpoint   = "ALPINE_EVENTS_ENDPOINT"
	EnvRunID      = "ALPINE_RUN_ID"
	EnvBatchSize  = "ALPINE_TOOL_CALL_BATCH_SIZE"
	EnvSampleRate = "ALPINE_TOOL_CALL_SAMPLE_RATE"
	EnvStateDir   = "ALPINE_HOOK_STATE_DIR"
)

const (
	defaultRunID      = "unknown"
	defaultBatchSize  = 10
	defaultSampleRate = 100
	defaultStateDir   = "/tmp"

	breakerFileName = "alpine_circuit_breaker.json"
	batchFileName   = "alpine_event_batch.json"
)

// Config is the per-invocation hook configuration, resolved from the
// process environment before the pipeline runs.
type Config struct {
	// Endpoint is the collector URL. Empty means the whole invocation is
	// a no-op.
	Endpoint string
	// RunID tags every envelope with the parent workflow execution.
	RunID string
	// BatchSize is the flush threshold; values at or below 1 bypass the
	// accumulator and send immediately.
	BatchSize int
	// SampleRate is the emission percentage in [1,100].
	SampleRate int
	// BreakerPath and BatchPath locate the two cross-invocation state
	// files.
	BreakerPath string
	BatchPath   string
}

// ConfigFromEnv resolves the hook configuration from environment
// variables, applying defaults for anything unset or unparsable.
func ConfigFromEnv() Config {
	stateDir := envOrDefault(EnvStateDir, defaultStateDir)
	return Config{
		Endpoint:    os.Getenv(EnvEndpoint),
		RunID:       envOrDefault(EnvRunID, defaultRunID),
		BatchSize:   envOrDefaultInt(EnvBatchSize, defaultBatchSize),
		SampleRate:  envOrDefaultInt(EnvSampleRate, defaultSampleRate),
		BreakerPath: filepath.Join(stateDir, breakerFileName),
		BatchPath:   filepath.Join(stateDir, batchFileName),
	}
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
