package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_ConsoleAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	var console bytes.Buffer

	log, closer, err := New(Options{Level: "info", File: path, MaxSizeMB: 1, NoColor: true}, &console)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Int("account", 2).Str("ip", "local").Msg("check-in successful")
	require.NoError(t, closer.Close())

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "check-in successful")
	assert.Contains(t, out, "account=2")
	assert.Contains(t, out, "ip=local")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"check-in successful"`)
	assert.Contains(t, string(data), `"account":2`)
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "shout"}, &bytes.Buffer{})
	assert.Error(t, err)
}
