// ABOUTME: Sync configuration block for draining the outbox to a remote backend.
// ABOUTME: Selects charm, http or none, and carries server, token and device id.
package sync

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotConfigured is returned when a drain is requested without a usable backend.
var ErrNotConfigured = errors.New("sync not configured")

// Backend names a remote implementation.
type Backend string

const (
	BackendNone  Backend = "none"
	BackendCharm Backend = "charm"
	BackendHTTP  Backend = "http"
)

// DefaultInterval is how often Run drains when no interval is configured.
const DefaultInterval = 60 * time.Second

// Config stores sync settings.
type Config struct {
	Backend         Backend `json:"backend"`
	Server          string  `json:"server,omitempty"`
	Token           string  `json:"token,omitempty"`
	DeviceID        string  `json:"device_id"`
	IntervalSeconds int     `json:"interval_seconds,omitempty"`
	MetricsAddr     string  `json:"metrics_addr,omitempty"`
}

// Validate rejects unknown backends, negative intervals and an http
// backend without a server.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendNone, BackendCharm:
	case BackendHTTP:
		if c.Server == "" {
			return fmt.Errorf("sync backend http: server is required")
		}
	default:
		return fmt.Errorf("unknown sync backend %q", c.Backend)
	}
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("sync interval_seconds must not be negative, got %d", c.IntervalSeconds)
	}
	return nil
}

// IsConfigured returns true if a remote backend is selected and usable.
func (c *Config) IsConfigured() bool {
	switch c.Backend {
	case BackendCharm:
		return true
	case BackendHTTP:
		return c.Server != "" && c.Token != ""
	}
	return false
}

// Interval returns the drain period.
func (c *Config) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return DefaultInterval
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// EnsureDeviceID assigns a device id when none is set and reports whether it did.
func (c *Config) EnsureDeviceID() bool {
	if c.DeviceID != "" {
		return false
	}
	c.DeviceID = GenerateDeviceID()
	return true
}

// GenerateDeviceID creates a new unique device ID.
func GenerateDeviceID() string {
	return ulid.Make().String()
}
