package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
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
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)

	l.Debug().Msg("hidden")
	l.Info().Str("playlist_id", "p1").Msg("built partition")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "built partition", entry["message"])
	assert.Equal(t, "p1", entry["playlist_id"])
	assert.NotContains(t, entry, "caller")
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genresort.log")
	require.NoError(t, Init(Config{Output: path, Level: "debug"}))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	_, err := os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInit_BadPath(t *testing.T) {
	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
