package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", "json", &buf)

	l.Debug("hidden")
	l.Info("rebuild finished", "entries", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "rebuild finished", line["msg"])
	assert.Equal(t, 3.0, line["entries"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", "text", &buf)

	l.Debug("validating", "bundle", "core")
	assert.Contains(t, buf.String(), "bundle=core")
}

func TestSetupAndWithComponent(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Setup("info", "text", &buf)
	WithComponent("bundle").Info("hello")

	assert.Contains(t, buf.String(), "component=bundle")
}
