package api

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const streamHeartbeat = 15 * time.Second

// handleStream serves a run's events as server-sent events. Each
// ingested envelope is forwarded as one "message" event; heartbeats
// keep idle connections alive through proxies.
func (d *Dependencies) handleStream(w http.ResponseWriter, r *http.Request) {
	if d.Broker == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "Streaming not configured"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Streaming unsupported"})
		return
	}

	runID := r.PathValue("run_id")

	ch, cancel := d.Broker.Subscribe(runID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	d.Logger.Debug("sse subscriber connected", zap.String("run_id", runID))

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case envelope, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", envelope)
			flusher.Flush()
		}
	}
}
