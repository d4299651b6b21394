package api

import "time"

// ErrorResp is a standard error response body.
type ErrorResp struct {
	Detail string `json:"detail"`
}

// IngestResp reports how many envelopes were accepted.
type IngestResp struct {
	Accepted int `json:"accepted"`
}

// ToolCallEventResp is a single persisted event in API responses.
type ToolCallEventResp struct {
	EventID    string    `json:"event_id"`
	ToolCallID string    `json:"tool_call_id"`
	EventType  string    `json:"event_type"`
	RunID      string    `json:"run_id"`
	ToolName   string    `json:"tool_name"`
	ToolInput  *string   `json:"tool_input,omitempty"`
	ToolOutput *string   `json:"tool_output,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Source     string    `json:"source"`
}

// EventListResp is the paginated event listing response.
type EventListResp struct {
	Events   []ToolCallEventResp `json:"events"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

// ToolCallResp groups the events of one tool call.
type ToolCallResp struct {
	RunID      string              `json:"run_id"`
	ToolCallID string              `json:"tool_call_id"`
	Events     []ToolCallEventResp `json:"events"`
}
