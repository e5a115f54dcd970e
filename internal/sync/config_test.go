// ABOUTME: Tests for sync configuration validation.
// ABOUTME: Verifies backend selection, intervals and device ID generation.

package sync

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"none", Config{Backend: BackendNone}, false},
		{"charm", Config{Backend: BackendCharm}, false},
		{"http with server", Config{Backend: BackendHTTP, Server: "https://sync.example.com"}, false},
		{"http without server", Config{Backend: BackendHTTP}, true},
		{"unknown backend", Config{Backend: "ftp"}, true},
		{"negative interval", Config{IntervalSeconds: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, (&Config{}).IsConfigured())
	assert.False(t, (&Config{Backend: BackendNone}).IsConfigured())
	assert.True(t, (&Config{Backend: BackendCharm}).IsConfigured())
	assert.False(t, (&Config{Backend: BackendHTTP, Server: "https://x"}).IsConfigured())
	assert.True(t, (&Config{Backend: BackendHTTP, Server: "https://x", Token: "t"}).IsConfigured())
}

func TestInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, (&Config{}).Interval())
	assert.Equal(t, 15*time.Second, (&Config{IntervalSeconds: 15}).Interval())
}

func TestGenerateDeviceID(t *testing.T) {
	id1 := GenerateDeviceID()
	id2 := GenerateDeviceID()

	assert.NotEqual(t, id1, id2)
	_, err := ulid.Parse(id1)
	require.NoError(t, err)
}

func TestEnsureDeviceID(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.EnsureDeviceID())
	first := cfg.DeviceID
	assert.NotEmpty(t, first)

	assert.False(t, cfg.EnsureDeviceID())
	assert.Equal(t, first, cfg.DeviceID)
}
