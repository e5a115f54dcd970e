// ABOUTME: Logger construction for the lift CLI and MCP server.
// ABOUTME: logrus text output to stderr, optionally JSON lines to a lumberjack-rotated file.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Params controls where and how much the logger writes.
type Params struct {
	// Level is a logrus level name; unknown names fall back to warn.
	Level string
	// File, when set, receives JSON log lines with size-based rotation.
	File string
	// Quiet suppresses stderr output, for stdio transports like MCP.
	Quiet bool
}

// New builds a logger entry tagged with the app name.
func New(p Params) *logrus.Entry {
	l := logrus.New()
	l.SetLevel(GetLevel(p.Level))

	var writers []io.Writer
	if !p.Quiet {
		writers = append(writers, os.Stderr)
	}
	if p.File != "" {
		name := p.File
		if !strings.HasSuffix(name, ".log") {
			name += ".log"
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   name,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			Compress:   true,
		})
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}
	return l.WithField("app", "lift")
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// OrDiscard returns log, or a discarding logger when log is nil.
func OrDiscard(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return Discard()
	}
	return log
}

// GetLevel maps a level name to a logrus level.
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	default:
		return logrus.WarnLevel
	}
}
