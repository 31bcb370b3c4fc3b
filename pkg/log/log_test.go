package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/dukex/pressdesk/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelDebug, log.ParseLevel("debug"))
	assert.Equal(t, slog.LevelError, log.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, log.ParseLevel("verbose"))
}

func TestNewFanout(t *testing.T) {
	t.Parallel()

	var console, file bytes.Buffer

	logger := log.NewFanout(&console, &file, slog.LevelInfo)
	logger.Info("Agent run completed", "agent", "seo")
	logger.Debug("hidden")

	assert.Contains(t, console.String(), "Agent run completed")
	assert.NotContains(t, console.String(), "hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &line))
	assert.Equal(t, "seo", line["agent"])
}
