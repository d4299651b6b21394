package hook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []map[string]any
	status int
}

func newRecordingServer(t *testing.T, status int) *recordingServer {
	t.Helper()
	rs := &recordingServer{status: status}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rs.mu.Lock()
		rs.bodies = append(rs.bodies, body)
		rs.mu.Unlock()
		w.WriteHeader(rs.status)
	}))
	t.Cleanup(rs.Server.Close)
	return rs
}

func (rs *recordingServer) requests() []map[string]any {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.bodies
}

type alwaysEmit struct{}

func (alwaysEmit) Emit() bool { return true }

type neverEmit struct{}

func (neverEmit) Emit() bool { return false }

func testConfig(t *testing.T, endpoint string) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Endpoint:    endpoint,
		RunID:       "unknown",
		BatchSize:   1,
		SampleRate:  100,
		BreakerPath: filepath.Join(dir, breakerFileName),
		BatchPath:   filepath.Join(dir, batchFileName),
	}
}

func runInvocation(t *testing.T, cfg Config, input string, gate emitGate) {
	t.Helper()
	d := NewDriver(cfg, zap.NewNop())
	if gate != nil {
		d.sampler = gate
	}
	d.Run(context.Background(), strings.NewReader(input))
}

func TestRun_EndEventImmediateSend(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)

	runInvocation(t, cfg,
		`{"tool_name":"grep","tool_output":{"matches":3},"event":"PostToolUse","timestamp":"t0"}`,
		alwaysEmit{})

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ToolCallEnd", reqs[0]["type"])

	data := reqs[0]["data"].(map[string]any)
	assert.Equal(t, "grep", data["toolCallName"])
	assert.Equal(t, "unknown", data["runId"])
	assert.Equal(t, map[string]any{"matches": float64(3)}, data["toolOutput"])
	assert.NotContains(t, data, "toolInput")

	_, err := uuid.Parse(data["toolCallId"].(string))
	assert.NoError(t, err, "a fresh correlation id must be a UUID")
}

func TestRun_NoEndpointIsNoOp(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, "")

	runInvocation(t, cfg, `{"tool_name":"bash","event":"PreToolUse","timestamp":"t0"}`, alwaysEmit{})

	assert.Empty(t, srv.requests())
	_, err := os.Stat(cfg.BatchPath)
	assert.True(t, os.IsNotExist(err), "no-op invocations must not touch durable state")
}

func TestRun_MalformedInputIsNoOp(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)

	runInvocation(t, cfg, `{not json`, alwaysEmit{})

	assert.Empty(t, srv.requests())
}

func TestRun_SampledOutTouchesNoState(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	cfg.BatchSize = 10

	runInvocation(t, cfg, `{"tool_name":"bash","event":"PreToolUse","timestamp":"t0"}`, neverEmit{})

	assert.Empty(t, srv.requests())
	_, err := os.Stat(cfg.BatchPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.BreakerPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_BatchAccumulatesThenFlushes(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	cfg.BatchSize = 3

	input := `{"tool_name":"bash","tool_input":{"command":"ls"},"event":"PreToolUse","timestamp":"t0"}`

	runInvocation(t, cfg, input, alwaysEmit{})
	runInvocation(t, cfg, input, alwaysEmit{})
	assert.Empty(t, srv.requests(), "below batch size nothing is sent")

	runInvocation(t, cfg, input, alwaysEmit{})

	reqs := srv.requests()
	require.Len(t, reqs, 1, "reaching the batch size triggers exactly one flush")
	events := reqs[0]["events"].([]any)
	assert.Len(t, events, 3)

	_, err := os.Stat(cfg.BatchPath)
	assert.True(t, os.IsNotExist(err), "batch file is removed after flush")
}

func TestRun_DeliveryFailuresOpenBreaker(t *testing.T) {
	srv := newRecordingServer(t, http.StatusInternalServerError)
	cfg := testConfig(t, srv.URL)

	input := `{"tool_name":"bash","event":"PreToolUse","timestamp":"t0"}`
	for i := 0; i < 5; i++ {
		runInvocation(t, cfg, input, alwaysEmit{})
	}
	require.Len(t, srv.requests(), 5)

	// Breaker is now open: the sixth invocation makes no attempt.
	runInvocation(t, cfg, input, alwaysEmit{})
	assert.Len(t, srv.requests(), 5)
}

func TestRun_StoreErrorFallsBackToDirectSend(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK)
	cfg := testConfig(t, srv.URL)
	cfg.BatchSize = 10
	// A directory at the batch path forces an accumulator store error.
	require.NoError(t, os.Mkdir(cfg.BatchPath, 0o755))

	runInvocation(t, cfg, `{"tool_name":"bash","event":"PreToolUse","timestamp":"t0"}`, alwaysEmit{})

	reqs := srv.requests()
	require.Len(t, reqs, 1, "store errors fall back to immediate delivery")
	assert.Equal(t, "ToolCallStart", reqs[0]["type"])
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{EnvEndpoint, EnvRunID, EnvBatchSize, EnvSampleRate, EnvStateDir} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := ConfigFromEnv()
	assert.Empty(t, cfg.Endpoint)
	assert.Equal(t, "unknown", cfg.RunID)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 100, cfg.SampleRate)
	assert.Equal(t, "/tmp/alpine_circuit_breaker.json", cfg.BreakerPath)
	assert.Equal(t, "/tmp/alpine_event_batch.json", cfg.BatchPath)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv(EnvEndpoint, "http://localhost:9999/v1/events")
	t.Setenv(EnvRunID, "run-7")
	t.Setenv(EnvBatchSize, "25")
	t.Setenv(EnvSampleRate, "40")
	t.Setenv(EnvStateDir, "/var/run/alpine")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://localhost:9999/v1/events", cfg.Endpoint)
	assert.Equal(t, "run-7", cfg.RunID)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 40, cfg.SampleRate)
	assert.Equal(t, "/var/run/alpine/alpine_event_batch.json", cfg.BatchPath)
}

func TestConfigFromEnv_UnparsableIntKeepsDefault(t *testing.T) {
	t.Setenv(EnvBatchSize, "lots")
	cfg := ConfigFromEnv()
	assert.Equal(t, 10, cfg.BatchSize)
}
