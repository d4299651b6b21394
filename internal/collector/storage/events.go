package storage

import "time"

// EventWriter is the interface for persisting ingested tool call
// events. Write() must NEVER block the ingest handler.
type EventWriter interface {
	Write(event *ToolCallEventRow)
	Close()
}

// ToolCallEventRow is a single tool call event as persisted.
type ToolCallEventRow struct {
	EventID    string // ingest id, assigned by the collector
	ToolCallID string // correlation id shared by a Start/End pair
	EventType  string // "ToolCallStart" or "ToolCallEnd"
	RunID      string
	ToolName   string
	ToolInput  string // raw JSON, empty on end events
	ToolOutput string // raw JSON, empty on start events
	ReceivedAt time.Time
	Source     string // "single" or "batch"
	RemoteAddr string
}
