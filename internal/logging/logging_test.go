package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedLogger(buf *bytes.Buffer, level Level) *Logger {
	l := New(Config{Level: level, Output: buf, Prefix: "test"})
	l.now = func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	}
	return l
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"unknown", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelDebug)

	l.Info("hello %s", "world")
	assert.Equal(t, "2024-01-02T03:04:05.006 [INFO] test: hello world\n", buf.String())
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelWarn)

	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	out := buf.String()
	assert.NotContains(t, out, "debug")
	assert.NotContains(t, out, "info")
	assert.Contains(t, out, "[WARN] test: warn")
	assert.Contains(t, out, "[ERROR] test: error")
}

func TestLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	l := fixedLogger(&buf, LevelInfo).
		WithFields(map[string]any{"zeta": 1, "alpha": "a"}).
		WithComponent("engine")

	l.Info("msg")
	assert.True(t, strings.HasSuffix(buf.String(), "msg {alpha=a, component=engine, zeta=1}\n"), buf.String())
}

func TestDerivedLoggerSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := fixedLogger(&buf, LevelInfo)
	child := parent.WithComponent("x")

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	parent.SetLevel(LevelDebug)
	assert.True(t, child.Enabled(LevelDebug))
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	l := fixedLogger(&first, LevelInfo)
	l.SetOutput(&second)
	l.Info("x")
	assert.Empty(t, first.String())
	assert.Contains(t, second.String(), "x")
}

func TestDiscardAndNil(t *testing.T) {
	assert.False(t, Discard().Enabled(LevelError))
	Discard().Error("nothing")

	var l *Logger
	assert.False(t, l.Enabled(LevelError))
	l.Info("nothing")
	assert.Nil(t, l.WithComponent("x"))
}
