// Package event defines the tool call record received from the workflow
// engine and the AG-UI envelope emitted to the events collector.
package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ToolCallRecord is the raw hook payload delivered on stdin, one per
// invocation. A populated ToolOutput marks the completion of a call;
// an absent one marks the start.
type ToolCallRecord struct {
	ToolName   string          `json:"tool_name"`
	ToolInput  json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput json.RawMessage `json:"tool_output,omitempty"`
	Event      string          `json:"event"`
	Timestamp  string          `json:"timestamp"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// ErrMissingToolName is returned for records without a tool_name.
var ErrMissingToolName = errors.New("tool call record missing tool_name")

// ParseRecord decodes a tool call record from raw hook input.
func ParseRecord(data []byte) (*ToolCallRecord, error) {
	var rec ToolCallRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ParseRecord: %w", err)
	}
	if rec.ToolName == "" {
		return nil, ErrMissingToolName
	}
	return &rec, nil
}

// HasOutput reports whether the record carries a tool output payload,
// i.e. whether it describes the completion of a call.
func (r *ToolCallRecord) HasOutput() bool {
	return hasPayload(r.ToolOutput)
}

// Envelope kinds, matching the AG-UI protocol event types.
const (
	KindStart = "ToolCallStart"
	KindEnd   = "ToolCallEnd"
)

// Envelope is the standardized event sent to the collector. It is
// constructed once per invocation and immutable afterward.
type Envelope struct {
	Type string `json:"type"`
	Data Data   `json:"data"`
}

// Data is the envelope payload. Exactly one of ToolInput/ToolOutput is
// populated, determined by the envelope kind.
type Data struct {
	ToolCallID   string          `json:"toolCallId"`
	ToolCallName string          `json:"toolCallName"`
	RunID        string          `json:"runId"`
	ToolInput    json.RawMessage `json:"toolInput,omitempty"`
	ToolOutput   json.RawMessage `json:"toolOutput,omitempty"`
}

// Build maps a tool call record to exactly one envelope. The correlation
// id from the record is preserved when present so the Start/End pair of
// one logical call shares an id; otherwise a fresh UUID is generated.
func Build(rec *ToolCallRecord, runID string) Envelope {
	id := rec.ToolCallID
	if id == "" {
		id = uuid.New().String()
	}

	env := Envelope{
		Data: Data{
			ToolCallID:   id,
			ToolCallName: rec.ToolName,
			RunID:        runID,
		},
	}

	if rec.HasOutput() {
		env.Type = KindEnd
		env.Data.ToolOutput = rec.ToolOutput
	} else {
		env.Type = KindStart
		if hasPayload(rec.ToolInput) {
			env.Data.ToolInput = rec.ToolInput
		}
	}
	return env
}

// hasPayload reports whether raw JSON carries an actual value. The
// workflow engine serializes absent fields as JSON null.
func hasPayload(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
