// Package hook orchestrates one emitter invocation: parse the tool call
// record from stdin, consult the circuit breaker, sample, build the
// envelope, deliver or buffer it, and record the delivery outcome.
//
// The hook is spawned per tool call by the workflow engine and must
// never block or abort it: every disqualifying condition and every
// failure is a logged no-op, and the process always exits 0.
package hook

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/batch"
	"github.com/Backland-Labs/alpine/internal/breaker"
	"github.com/Backland-Labs/alpine/internal/emit"
	"github.com/Backland-Labs/alpine/internal/event"
	"github.com/Backland-Labs/alpine/internal/sampling"
)

// emitGate is the sampling decision seam.
type emitGate interface {
	Emit() bool
}

// Driver wires the pipeline components for one invocation.
type Driver struct {
	cfg     Config
	logger  *zap.Logger
	breaker *breaker.Store
	batch   *batch.Accumulator
	sampler emitGate
	client  *emit.Client
}

// NewDriver builds a driver from resolved configuration.
func NewDriver(cfg Config, logger *zap.Logger) *Driver {
	return &Driver{
		cfg:     cfg,
		logger:  logger,
		breaker: breaker.NewStore(breaker.Config{Path: cfg.BreakerPath, Logger: logger}),
		batch:   batch.NewAccumulator(cfg.BatchPath, logger),
		sampler: sampling.New(cfg.SampleRate),
		client:  emit.NewClient(cfg.Endpoint, logger),
	}
}

// Run processes a single invocation reading the tool call record from
// input. It never returns an error: hook failures must be invisible to
// the invoking workflow except through the diagnostic stream.
func (d *Driver) Run(ctx context.Context, input io.Reader) {
	data, err := io.ReadAll(input)
	if err != nil {
		d.logger.Error("read hook input", zap.Error(err))
		return
	}

	rec, err := event.ParseRecord(data)
	if err != nil {
		d.logger.Error("parse tool call record", zap.Error(err))
		return
	}

	d.logger.Debug("hook called",
		zap.String("tool", rec.ToolName),
		zap.String("event", rec.Event),
	)

	if d.cfg.Endpoint == "" {
		d.logger.Info("events endpoint not set, skipping emission")
		return
	}

	if !d.breaker.ShouldAttempt() {
		d.logger.Warn("circuit breaker open, skipping delivery")
		return
	}

	// The sampling gate runs before any durable state is touched, so
	// sampled-out events never reach the batch file or the breaker.
	if !d.sampler.Emit() {
		d.logger.Debug("event sampled out", zap.Int("sample_rate", d.cfg.SampleRate))
		return
	}

	env := event.Build(rec, d.cfg.RunID)

	if err := d.deliver(ctx, env); err != nil {
		d.logger.Error("event delivery failed", zap.Error(err))
		d.breaker.RecordFailure()
		return
	}
	d.breaker.RecordSuccess()
}

// deliver routes the envelope through the accumulator or straight to the
// client. A buffered append counts as success: the envelope is durably
// queued and will ride a later flush.
func (d *Driver) deliver(ctx context.Context, env event.Envelope) error {
	if d.cfg.BatchSize <= 1 {
		return d.client.SendOne(ctx, env)
	}

	outcome, err := d.batch.Append(ctx, env, d.cfg.BatchSize, d.client)
	if err == nil {
		if outcome == batch.OutcomeBuffered {
			d.logger.Debug("event buffered",
				zap.String("tool_call_id", env.Data.ToolCallID),
			)
		}
		return nil
	}

	var fe *batch.FlushError
	if errors.As(err, &fe) {
		// Transport failure: the envelopes are retained on disk, so do
		// not re-send anything here.
		return err
	}

	// The accumulator itself is unusable; fall back to immediate
	// single-event delivery rather than dropping the event.
	d.logger.Warn("batch accumulator unavailable, sending directly", zap.Error(err))
	return d.client.SendOne(ctx, env)
}
