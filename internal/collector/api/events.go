package api

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/collector/query"
)

func (d *Dependencies) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	q := r.URL.Query()
	runID := q.Get("run_id")
	if runID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "run_id query parameter is required"})
		return
	}

	params := query.ListEventsParams{
		RunID:    runID,
		Page:     queryInt(q, "page", 1),
		PageSize: queryInt(q, "page_size", 50),
	}
	if params.PageSize > 200 {
		params.PageSize = 200
	}
	if params.PageSize < 1 {
		params.PageSize = 50
	}
	if params.Page < 1 {
		params.Page = 1
	}

	if v := q.Get("event_type"); v != "" {
		params.EventType = &v
	}
	if v := q.Get("tool_name"); v != "" {
		params.ToolName = &v
	}
	if v := q.Get("start_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.StartTime = &t
		}
	}
	if v := q.Get("end_time"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			params.EndTime = &t
		}
	}

	events, total, err := d.Reader.ListEvents(r.Context(), params)
	if err != nil {
		d.Logger.Error("failed to list events", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to list events"})
		return
	}

	resp := EventListResp{
		Events:   make([]ToolCallEventResp, 0, len(events)),
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	for _, e := range events {
		resp.Events = append(resp.Events, eventRowToResp(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleGetToolCall(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	runID := r.PathValue("run_id")
	toolCallID := r.PathValue("tool_call_id")

	events, err := d.Reader.GetToolCall(r.Context(), runID, toolCallID)
	if err != nil {
		d.Logger.Error("failed to get tool call", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get tool call"})
		return
	}
	if len(events) == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "Tool call not found."})
		return
	}

	resp := ToolCallResp{
		RunID:      runID,
		ToolCallID: toolCallID,
		Events:     make([]ToolCallEventResp, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, eventRowToResp(e))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dependencies) handleRunStats(w http.ResponseWriter, r *http.Request) {
	if d.Reader == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResp{Detail: "ClickHouse not configured"})
		return
	}

	runID := r.PathValue("run_id")

	stats, err := d.Reader.GetRunStats(r.Context(), runID)
	if err != nil {
		d.Logger.Error("failed to get run stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to get run stats"})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func eventRowToResp(e query.EventRow) ToolCallEventResp {
	return ToolCallEventResp{
		EventID:    e.EventID,
		ToolCallID: e.ToolCallID,
		EventType:  e.EventType,
		RunID:      e.RunID,
		ToolName:   e.ToolName,
		ToolInput:  nilIfEmpty(e.ToolInput),
		ToolOutput: nilIfEmpty(e.ToolOutput),
		ReceivedAt: e.ReceivedAt,
		Source:     e.Source,
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func queryInt(q interface{ Get(string) string }, key string, defaultVal int) int {
	v := q.Get(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
