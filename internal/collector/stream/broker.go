// Package stream fans ingested events out to SSE subscribers, scoped
// per run.
package stream

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 64

// Broker fans out raw event envelopes to per-run subscribers.
// Publish never blocks: slow subscribers drop events.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan json.RawMessage]struct{} // run_id -> subscribers
	logger *zap.Logger
}

// NewBroker creates an empty Broker.
func NewBroker(logger *zap.Logger) *Broker {
	return &Broker{
		subs:   make(map[string]map[chan json.RawMessage]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for a run. The returned cancel
// function must be called to release the subscription; after cancel the
// channel is closed.
func (b *Broker) Subscribe(runID string) (<-chan json.RawMessage, func()) {
	ch := make(chan json.RawMessage, subscriberBuffer)

	b.mu.Lock()
	set, ok := b.subs[runID]
	if !ok {
		set = make(map[chan json.RawMessage]struct{})
		b.subs[runID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		set, ok := b.subs[runID]
		if !ok {
			return
		}
		if _, present := set[ch]; !present {
			return
		}
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, runID)
		}
		close(ch)
	}
	return ch, cancel
}

// Publish delivers an envelope to every subscriber of the run.
// Non-blocking: a full subscriber channel drops the event.
func (b *Broker) Publish(runID string, envelope json.RawMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[runID] {
		select {
		case ch <- envelope:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				zap.String("run_id", runID),
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers for a run.
func (b *Broker) SubscriberCount(runID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[runID])
}
