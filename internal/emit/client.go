// Package emit is the HTTP delivery client for event envelopes. It
// performs single bounded POSTs with no internal retries; retry policy
// lives with the caller, either as batch-file persistence or as the
// circuit breaker deferring to a later invocation.
package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Backland-Labs/alpine/internal/event"
)

const (
	// singleTimeout bounds a single-event POST.
	singleTimeout = 5 * time.Second
	// batchTimeout bounds a batch POST; batches get more budget in
	// proportion to payload size.
	batchTimeout = 10 * time.Second
)

// batchBody is the wire shape for batched delivery.
type batchBody struct {
	Events []event.Envelope `json:"events"`
}

// Client posts JSON-serialized envelopes to the collector endpoint.
type Client struct {
	endpoint string
	single   *http.Client
	batch    *http.Client
	logger   *zap.Logger
}

// NewClient creates a delivery client for the given endpoint URL.
func NewClient(endpoint string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		single:   &http.Client{Timeout: singleTimeout},
		batch:    &http.Client{Timeout: batchTimeout},
		logger:   logger,
	}
}

// SendOne delivers a single envelope. Success is a 2xx response; any
// transport error, timeout, or other status is a delivery failure.
func (c *Client) SendOne(ctx context.Context, env event.Envelope) error {
	if err := c.post(ctx, c.single, env); err != nil {
		return fmt.Errorf("SendOne: %w", err)
	}
	return nil
}

// SendBatch delivers a batch of envelopes in one request.
func (c *Client) SendBatch(ctx context.Context, envs []event.Envelope) error {
	if err := c.post(ctx, c.batch, batchBody{Events: envs}); err != nil {
		return fmt.Errorf("SendBatch: %w", err)
	}
	c.logger.Debug("batch delivered", zap.Int("events", len(envs)))
	return nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
