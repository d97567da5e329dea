package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew_JSONWithDailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	day := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	var stderr bytes.Buffer

	logger, closer, err := New(Config{Level: "debug", Format: "json", Dir: dir}, &stderr, day)
	require.NoError(t, err)
	logger.Debug("ingest started", "files", 2)
	require.NoError(t, closer.Close())

	var record map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &record))
	assert.Equal(t, "ingest started", record["msg"])

	data, err := os.ReadFile(filepath.Join(dir, "2026-10-16.log"))
	require.NoError(t, err)
	assert.Equal(t, stderr.String(), string(data))
}

func TestNew_LevelFilter(t *testing.T) {
	var out bytes.Buffer
	logger, _, err := New(Config{Level: "warn"}, &out, time.Now())
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestNew_BadFormat(t *testing.T) {
	_, _, err := New(Config{Format: "xml"}, &bytes.Buffer{}, time.Now())
	assert.Error(t, err)
}
