// ABOUTME: HTTPRemote posts outbox mutations as JSON to a sync server.
// ABOUTME: Retries transport errors and 5xx/429 responses with exponential backoff.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
)

const (
	mutationsPath      = "/v1/mutations"
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// ErrRejected marks a mutation the server refused; retrying will not help
// until the payload or credentials change.
var ErrRejected = errors.New("mutation rejected by server")

// HTTPRemote applies mutations through the sync server's REST endpoint.
type HTTPRemote struct {
	endpoint    string
	token       string
	deviceID    string
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
}

// HTTPOption configures an HTTPRemote.
type HTTPOption func(*HTTPRemote)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(r *HTTPRemote) { r.client = c }
}

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(attempts int, baseDelay time.Duration) HTTPOption {
	return func(r *HTTPRemote) {
		if attempts > 0 {
			r.maxAttempts = attempts
		}
		if baseDelay >= 0 {
			r.baseDelay = baseDelay
		}
	}
}

// NewHTTPRemote builds a remote from the sync config.
func NewHTTPRemote(cfg Config, opts ...HTTPOption) (*HTTPRemote, error) {
	if cfg.Server == "" || cfg.Token == "" {
		return nil, fmt.Errorf("http remote needs server and token: %w", ErrNotConfigured)
	}
	r := &HTTPRemote{
		endpoint:    strings.TrimRight(cfg.Server, "/") + mutationsPath,
		token:       cfg.Token,
		deviceID:    cfg.DeviceID,
		client:      &http.Client{Timeout: 30 * time.Second},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// mutationEnvelope is the request body.
type mutationEnvelope struct {
	models.PendingMutation
	DeviceID string `json:"device_id,omitempty"`
}

// Apply posts m, retrying transient failures.
func (r *HTTPRemote) Apply(ctx context.Context, m models.PendingMutation) error {
	body, err := json.Marshal(mutationEnvelope{PendingMutation: m, DeviceID: r.deviceID})
	if err != nil {
		return fmt.Errorf("marshal mutation: %w", err)
	}

	var lastErr error
	for attempt := range r.maxAttempts {
		if attempt > 0 {
			delay := r.baseDelay << uint(attempt-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		retry, err := r.post(ctx, body)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", r.maxAttempts, lastErr)
}

// post sends one request and reports whether a failure is worth retrying.
func (r *HTTPRemote) post(ctx context.Context, body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)
	if r.deviceID != "" {
		req.Header.Set("X-Device-ID", r.deviceID)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("post mutation: %w", err)
	}
	defer resp.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, fmt.Errorf("sync server status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	default:
		return false, fmt.Errorf("status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(msg), ErrRejected)
	}
}
