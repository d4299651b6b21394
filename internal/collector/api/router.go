// Package api is the HTTP surface of the events collector: the ingest
// endpoint the emitter hook posts to, and the query API over persisted
// events.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/collector/auth"
	"github.com/Backland-Labs/alpine/internal/collector/query"
	"github.com/Backland-Labs/alpine/internal/collector/storage"
	"github.com/Backland-Labs/alpine/internal/collector/stream"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Writer storage.EventWriter
	Reader *query.Reader      // nil if ClickHouse unavailable
	Broker *stream.Broker     // nil disables SSE fan-out
	Auth   auth.Authenticator // nil leaves the query API open
	Logger *zap.Logger
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Ingest endpoint: this is what ALPINE_EVENTS_ENDPOINT points at.
	// Unauthenticated so short-lived hooks need no credentials.
	mux.HandleFunc("POST /v1/events", deps.handleIngest)

	// Query API (Bearer alp_ token when auth is configured)
	mux.HandleFunc("GET /api/events", deps.authMiddleware(deps.handleListEvents))
	mux.HandleFunc("GET /api/runs/{run_id}/events/{tool_call_id}", deps.authMiddleware(deps.handleGetToolCall))
	mux.HandleFunc("GET /api/runs/{run_id}/stats", deps.authMiddleware(deps.handleRunStats))
	mux.HandleFunc("GET /api/runs/{run_id}/events/stream", deps.authMiddleware(deps.handleStream))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
