package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/collector/schema"
	"github.com/Backland-Labs/alpine/internal/collector/storage"
	"github.com/Backland-Labs/alpine/internal/event"
)

const maxIngestBody = 10 << 20 // 10 MiB

// batchProbe detects the batch wire shape. The hook posts single
// envelopes and {"events": [...]} batches to the same endpoint.
type batchProbe struct {
	Events []json.RawMessage `json:"events"`
}

func (d *Dependencies) handleIngest(w http.ResponseWriter, r *http.Request) {
	defer func() { _ = r.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Failed to read request body"})
		return
	}

	var probe batchProbe
	if err := json.Unmarshal(body, &probe); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Request body is not valid JSON"})
		return
	}

	var envelopes []json.RawMessage
	source := "single"
	if probe.Events != nil {
		envelopes = probe.Events
		source = "batch"
	} else {
		envelopes = []json.RawMessage{body}
	}

	if len(envelopes) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Batch contains no events"})
		return
	}

	// Validate everything before persisting anything: a batch is
	// accepted or rejected as a whole.
	parsed := make([]*event.Envelope, 0, len(envelopes))
	for i, raw := range envelopes {
		if err := schema.ValidateEnvelope(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResp{
				Detail: fmt.Sprintf("event %d: %v", i, err),
			})
			return
		}
		var env event.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResp{
				Detail: fmt.Sprintf("event %d: %v", i, err),
			})
			return
		}
		parsed = append(parsed, &env)
	}

	remoteAddr := remoteHost(r)
	now := time.Now().UTC()

	for i, env := range parsed {
		d.Writer.Write(&storage.ToolCallEventRow{
			EventID:    uuid.New().String(),
			ToolCallID: env.Data.ToolCallID,
			EventType:  env.Type,
			RunID:      env.Data.RunID,
			ToolName:   env.Data.ToolCallName,
			ToolInput:  string(env.Data.ToolInput),
			ToolOutput: string(env.Data.ToolOutput),
			ReceivedAt: now,
			Source:     source,
			RemoteAddr: remoteAddr,
		})

		if d.Broker != nil {
			d.Broker.Publish(env.Data.RunID, envelopes[i])
		}
	}

	d.Logger.Debug("events ingested",
		zap.Int("count", len(parsed)),
		zap.String("source", source),
	)
	writeJSON(w, http.StatusAccepted, IngestResp{Accepted: len(parsed)})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
