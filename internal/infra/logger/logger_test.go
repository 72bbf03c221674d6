package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestUseConsole(t *testing.T) {
	assert.True(t, useConsole(Config{}))
	assert.True(t, useConsole(Config{Output: "stderr"}))
	assert.False(t, useConsole(Config{Output: "/var/log/playrelay.log"}))
	assert.False(t, useConsole(Config{Output: "stdout", Format: "json"}))
	assert.True(t, useConsole(Config{Output: "/tmp/x.log", Format: "console"}))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel, false)

	log.Debug().Msg("hidden")
	log.Info().Str("request_id", "abc").Msg("play request")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "play request", entry[zerolog.MessageFieldName])
	assert.Equal(t, "abc", entry["request_id"])
	assert.NotContains(t, entry, zerolog.CallerFieldName)
}

func TestNew_DebugAddsCaller(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.DebugLevel, false)
	log.Debug().Msg("with caller")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry, zerolog.CallerFieldName)
}

func TestInit_File(t *testing.T) {
	saved, savedLevel := zlog.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = saved
		zerolog.SetGlobalLevel(savedLevel)
	})

	path := filepath.Join(t.TempDir(), "server.log")
	closeLog, err := Init(Config{Level: "info", Output: path})
	require.NoError(t, err)

	zlog.Info().Msg("written to file")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
}

func TestInit_BadPath(t *testing.T) {
	_, err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
}
