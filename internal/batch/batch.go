// Package batch accumulates pending envelopes in a newline-delimited
// JSON file shared across hook invocations, amortizing one HTTP request
// over batchSize tool calls. There is no background flush: the batch is
// only flushed by the append that reaches the threshold, so the last
// partial batch waits for the next invocation.
package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/event"
	"github.com/Backland-Labs/alpine/internal/statefile"
)

// Outcome reports what Append did with the envelope.
type Outcome int

const (
	// OutcomeBuffered means the envelope was persisted but the batch is
	// below the flush threshold.
	OutcomeBuffered Outcome = iota
	// OutcomeFlushed means the append completed a batch and the whole
	// batch was delivered.
	OutcomeFlushed
)

// Sender delivers a complete batch downstream.
type Sender interface {
	SendBatch(ctx context.Context, envs []event.Envelope) error
}

// FlushError wraps a delivery failure during flush, distinguishing it
// from accumulator store errors: the pending envelopes are safely on
// disk and the caller must not re-send them out of band.
type FlushError struct {
	Err error
}

func (e *FlushError) Error() string { return "batch flush: " + e.Err.Error() }
func (e *FlushError) Unwrap() error { return e.Err }

// Accumulator is the durable batch queue at a fixed path.
type Accumulator struct {
	path   string
	logger *zap.Logger
}

// NewAccumulator creates an accumulator over the batch file at path.
func NewAccumulator(path string, logger *zap.Logger) *Accumulator {
	return &Accumulator{path: path, logger: logger}
}

// Append adds env to the pending batch. Once the batch reaches size, the
// full ordered sequence is handed to sender and the batch file is
// removed on success; on delivery failure the full sequence (including
// env) stays on disk for a later invocation and a *FlushError is
// returned. Any other error means the accumulator itself is unusable and
// env has NOT been persisted.
func (a *Accumulator) Append(ctx context.Context, env event.Envelope, size int, sender Sender) (Outcome, error) {
	lock, err := statefile.Acquire(a.path)
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	defer lock.Release()

	pending, err := a.load()
	if err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	pending = append(pending, env)

	if len(pending) >= size {
		if err := sender.SendBatch(ctx, pending); err != nil {
			if werr := a.write(pending); werr != nil {
				a.logger.Error("retain batch after failed flush", zap.Error(werr))
			}
			return 0, &FlushError{Err: err}
		}
		if err := os.Remove(a.path); err != nil && !os.IsNotExist(err) {
			a.logger.Warn("remove batch file after flush", zap.Error(err))
		}
		a.logger.Info("batch flushed", zap.Int("events", len(pending)))
		return OutcomeFlushed, nil
	}

	if err := a.write(pending); err != nil {
		return 0, fmt.Errorf("Append: %w", err)
	}
	return OutcomeBuffered, nil
}

// Pending returns the envelopes currently buffered, in append order.
func (a *Accumulator) Pending() ([]event.Envelope, error) {
	lock, err := statefile.Acquire(a.path)
	if err != nil {
		return nil, fmt.Errorf("Pending: %w", err)
	}
	defer lock.Release()
	return a.load()
}

// load reads the batch file as one JSON envelope per line. A missing
// file is an empty batch. Individually corrupt lines are dropped with a
// warning; the file self-heals on the next write.
func (a *Accumulator) load() ([]event.Envelope, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load: %w", err)
	}

	var envs []event.Envelope
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var env event.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			a.logger.Warn("dropping corrupt batch line", zap.Error(err))
			continue
		}
		envs = append(envs, env)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return envs, nil
}

// write replaces the batch file with the given sequence atomically.
func (a *Accumulator) write(envs []event.Envelope) error {
	var buf bytes.Buffer
	for _, env := range envs {
		line, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := statefile.Replace(a.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
