// Package query provides read access to the ClickHouse
// tool_call_events table for the collector's query API.
package query

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Reader runs read queries against ClickHouse.
type Reader struct {
	conn   driver.Conn
	logger *zap.Logger
}

// NewReader opens a ClickHouse connection for read queries.
func NewReader(dsn string, logger *zap.Logger) (*Reader, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if opts.TLS == nil {
		opts.TLS = &tls.Config{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("NewReader: %w", err)
	}

	return &Reader{conn: conn, logger: logger}, nil
}

// Close closes the ClickHouse connection.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// EventRow is a single row from the tool_call_events table.
type EventRow struct {
	EventID    string
	ToolCallID string
	EventType  string
	RunID      string
	ToolName   string
	ToolInput  string
	ToolOutput string
	ReceivedAt time.Time
	Source     string
	RemoteAddr string
}

// ListEventsParams holds filters and pagination for event listing.
type ListEventsParams struct {
	RunID     string
	EventType *string
	ToolName  *string
	StartTime *time.Time
	EndTime   *time.Time
	Page      int
	PageSize  int
}

const eventColumns = "event_id, tool_call_id, event_type, run_id, tool_name, " +
	"tool_input, tool_output, received_at, source, remote_addr"

// ListEvents returns paginated, filtered tool call events for a run and
// the total count.
func (r *Reader) ListEvents(ctx context.Context, params ListEventsParams) ([]EventRow, int, error) {
	conditions := []string{"run_id = @run_id"}
	args := []any{
		clickhouse.Named("run_id", params.RunID),
	}

	if params.EventType != nil {
		conditions = append(conditions, "event_type = @event_type")
		args = append(args, clickhouse.Named("event_type", *params.EventType))
	}
	if params.ToolName != nil {
		conditions = append(conditions, "tool_name = @tool_name")
		args = append(args, clickhouse.Named("tool_name", *params.ToolName))
	}
	if params.StartTime != nil {
		conditions = append(conditions, "received_at >= @start_time")
		args = append(args, clickhouse.Named("start_time", *params.StartTime))
	}
	if params.EndTime != nil {
		conditions = append(conditions, "received_at <= @end_time")
		args = append(args, clickhouse.Named("end_time", *params.EndTime))
	}

	where := strings.Join(conditions, " AND ")
	offset := (params.Page - 1) * params.PageSize

	var total uint64
	countQuery := fmt.Sprintf("SELECT count() FROM tool_call_events WHERE %s", where)
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ListEvents count: %w", err)
	}

	dataQuery := fmt.Sprintf(
		"SELECT %s FROM tool_call_events WHERE %s "+
			"ORDER BY received_at DESC "+
			"LIMIT @limit OFFSET @offset",
		eventColumns, where,
	)
	args = append(args,
		clickhouse.Named("limit", uint32(params.PageSize)),
		clickhouse.Named("offset", uint32(offset)),
	)

	rows, err := r.conn.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ListEvents query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := scanEvent(rows, &e); err != nil {
			return nil, 0, fmt.Errorf("ListEvents scan: %w", err)
		}
		events = append(events, e)
	}

	return events, int(total), rows.Err()
}

// GetToolCall returns all events for one tool call id within a run, in
// received order: at most a Start and an End.
func (r *Reader) GetToolCall(ctx context.Context, runID, toolCallID string) ([]EventRow, error) {
	rows, err := r.conn.Query(ctx,
		fmt.Sprintf("SELECT %s FROM tool_call_events "+
			"WHERE run_id = @run_id AND tool_call_id = @tool_call_id "+
			"ORDER BY received_at ASC", eventColumns),
		clickhouse.Named("run_id", runID),
		clickhouse.Named("tool_call_id", toolCallID),
	)
	if err != nil {
		return nil, fmt.Errorf("GetToolCall: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("GetToolCall scan: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(rows driver.Rows, e *EventRow) error {
	return rows.Scan(
		&e.EventID, &e.ToolCallID, &e.EventType, &e.RunID, &e.ToolName,
		&e.ToolInput, &e.ToolOutput, &e.ReceivedAt, &e.Source, &e.RemoteAddr,
	)
}

// ToolCount holds a tool name and its call count.
type ToolCount struct {
	ToolName string `json:"tool_name"`
	Count    int    `json:"count"`
}

// RunStats holds aggregate counts for one run.
type RunStats struct {
	TotalEvents int         `json:"total_events"`
	Starts      int         `json:"starts"`
	Ends        int         `json:"ends"`
	TopTools    []ToolCount `json:"top_tools"`
}

// GetRunStats returns aggregate event counts for a run.
func (r *Reader) GetRunStats(ctx context.Context, runID string) (*RunStats, error) {
	stats := &RunStats{}

	var total, starts, ends uint64
	err := r.conn.QueryRow(ctx,
		"SELECT count() as total, "+
			"countIf(event_type = 'ToolCallStart') as starts, "+
			"countIf(event_type = 'ToolCallEnd') as ends "+
			"FROM tool_call_events WHERE run_id = @run_id",
		clickhouse.Named("run_id", runID),
	).Scan(&total, &starts, &ends)
	if err != nil {
		return nil, fmt.Errorf("GetRunStats summary: %w", err)
	}
	stats.TotalEvents = int(total)
	stats.Starts = int(starts)
	stats.Ends = int(ends)

	rows, err := r.conn.Query(ctx,
		"SELECT tool_name, count() as count "+
			"FROM tool_call_events "+
			"WHERE run_id = @run_id AND event_type = 'ToolCallStart' "+
			"GROUP BY tool_name ORDER BY count DESC LIMIT 10",
		clickhouse.Named("run_id", runID),
	)
	if err != nil {
		return nil, fmt.Errorf("GetRunStats tools: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tc ToolCount
		var count uint64
		if err := rows.Scan(&tc.ToolName, &count); err != nil {
			return nil, fmt.Errorf("GetRunStats tools scan: %w", err)
		}
		tc.Count = int(count)
		stats.TopTools = append(stats.TopTools, tc)
	}
	if stats.TopTools == nil {
		stats.TopTools = []ToolCount{}
	}

	return stats, rows.Err()
}
