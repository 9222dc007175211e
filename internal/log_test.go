package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"ERROR", LogLevelError, true},
		{"warn", LogLevelWarn, true},
		{" Info ", LogLevelInfo, true},
		{"DEBUG", LogLevelDebug, true},
		{"TRACE", LogLevelTrace, true},
		{"", LogLevelInfo, false},
		{"verbose", LogLevelInfo, false},
	}

	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		assert.Equal(t, tt.want, got, "level for %q", tt.in)
		assert.Equal(t, tt.wantOK, ok, "ok for %q", tt.in)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(LogLevelWarn, &buf)

	l.Error("e %d", 1)
	l.Warn("w %d", 2)
	l.Info("i %d", 3)
	l.Debug("d %d", 4)
	l.Trace("t %d", 5)

	out := buf.String()
	assert.Contains(t, out, "[ERROR] e 1")
	assert.Contains(t, out, "[WARN] w 2")
	assert.NotContains(t, out, "[INFO]")
	assert.NotContains(t, out, "[DEBUG]")
	assert.NotContains(t, out, "[TRACE]")
}

func TestLogger_NilIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("nothing") })
}

func TestLogger_TraceAtTraceLevel(t *testing.T) {
	var buf bytes.Buffer
	NewLoggerTo(LogLevelTrace, &buf).Trace("chunk [%d, %d)", 0, 4)
	assert.Contains(t, buf.String(), "[TRACE] chunk [0, 4)")
}
