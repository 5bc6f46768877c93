package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelFatal, ParseLevel("fatal"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LevelWarn)
	l.SetOutput(&buf)

	l.Debug("debug message")
	l.Info("info message")
	assert.Empty(t, buf.String())

	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "error message")
	assert.NotContains(t, out, "info message")
}
