package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuku/sessionpool"
	"github.com/yuku/sessionpool/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := logging.ParseLevel("verbose")
	require.ErrorContains(t, err, `unknown log level "verbose"`)
}

func TestNew(t *testing.T) {
	t.Run("json redacts connection passwords", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New("debug", "json", &buf)
		require.NoError(t, err)

		cfg := sessionpool.NewConnectionConfig("db", 5432, "app", "u", "hunter2")
		logger.Debug("connecting", "backend", cfg)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "connecting", entry["msg"])
		assert.NotContains(t, buf.String(), "hunter2")
		assert.Contains(t, entry, "backend")
	})

	t.Run("text filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New("warn", "text", &buf)
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := logging.New("info", "xml", &bytes.Buffer{})
		require.ErrorContains(t, err, `unknown log format "xml"`)
	})
}
