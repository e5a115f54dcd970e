// ABOUTME: Tests for logger construction and level parsing.
// ABOUTME: Verifies rotated file output and quiet mode.
package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"INFO", logrus.InfoLevel},
		{"error", logrus.ErrorLevel},
		{"trace", logrus.TraceLevel},
		{"", logrus.WarnLevel},
		{"nonsense", logrus.WarnLevel},
	}
	for _, tt := range tests {
		if got := GetLevel(tt.in); got != tt.want {
			t.Errorf("GetLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lift")
	log := New(Params{Level: "info", File: path, Quiet: true})
	log.WithField("session_id", "abc").Info("session started")

	data, err := os.ReadFile(path + ".log")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"session started"`) {
		t.Errorf("log line missing message: %s", line)
	}
	if !strings.Contains(line, `"session_id":"abc"`) {
		t.Errorf("log line missing field: %s", line)
	}
	if !strings.Contains(line, `"app":"lift"`) {
		t.Errorf("log line missing app field: %s", line)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("OrDiscard(nil) returned nil")
	}
	entry := Discard()
	if OrDiscard(entry) != entry {
		t.Error("OrDiscard should return the given logger")
	}
}
