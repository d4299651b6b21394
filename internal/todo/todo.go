// Package todo extracts the in-progress task from TodoWrite hook
// payloads. It is pure glue: no network, no durable state.
package todo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HookData is the payload delivered to the todo-monitor hook on stdin.
// Tool and Args are legacy field names still sent by older engines.
type HookData struct {
	HookEventName string          `json:"hook_event_name"`
	ToolName      string          `json:"tool_name"`
	Tool          string          `json:"tool"`
	ToolInput     json.RawMessage `json:"tool_input"`
	Args          json.RawMessage `json:"args"`
	SessionID     string          `json:"session_id"`
}

// Tool returns the effective tool name, preferring the current field
// over the legacy one.
func (d *HookData) EffectiveTool() string {
	if d.ToolName != "" {
		return d.ToolName
	}
	return d.Tool
}

// Input returns the effective tool input payload.
func (d *HookData) Input() json.RawMessage {
	if len(d.ToolInput) > 0 {
		return d.ToolInput
	}
	return d.Args
}

// Item is a single todo list entry.
type Item struct {
	Content string `json:"content"`
	Status  string `json:"status"`
}

// Progress summarizes a todo list.
type Progress struct {
	Total      int
	Completed  int
	InProgress int
	Pending    int
	// Current is the content of the first in-progress item, empty if
	// none.
	Current string
}

// CompletionRate returns the completed percentage, 0 for an empty list.
func (p Progress) CompletionRate() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// ExtractItems parses the todo list out of a TodoWrite input payload.
func ExtractItems(input json.RawMessage) ([]Item, error) {
	var parsed struct {
		Todos []Item `json:"todos"`
	}
	if err := json.Unmarshal(input, &parsed); err != nil {
		return nil, fmt.Errorf("ExtractItems: %w", err)
	}
	return parsed.Todos, nil
}

// Summarize computes progress counts over a todo list.
func Summarize(items []Item) Progress {
	p := Progress{Total: len(items)}
	for _, item := range items {
		switch strings.ToLower(item.Status) {
		case "completed":
			p.Completed++
		case "in_progress":
			p.InProgress++
			if p.Current == "" {
				p.Current = item.Content
			}
		case "pending":
			p.Pending++
		}
	}
	return p
}

// Bar renders a fixed-width ASCII progress bar.
func Bar(completed, total int) string {
	const width = 10
	filled := 0
	if total > 0 {
		filled = completed * width / total
	}
	return strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
}
