package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"trace", zerolog.TraceLevel, true},
		{" DEBUG ", zerolog.DebugLevel, true},
		{"info", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}

	for _, tc := range testCases {
		got, ok := ParseLevel(tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
		assert.Equal(t, tc.ok, ok, tc.raw)
	}
}

func TestNewVerbose(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogNoColor, "")

	var buf bytes.Buffer
	logger := New("test", Options{Verbose: true, Out: &buf})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	logger.Debug().Int("packets", 3).Msg("done")
	assert.Contains(t, buf.String(), "done")
	assert.Contains(t, buf.String(), "packets=3")
	assert.NotContains(t, buf.String(), "\x1b[", "non-terminal output should not be colored")
}

func TestNewEnvOverridesVerbose(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")

	var buf bytes.Buffer
	logger := New("test", Options{Verbose: true, Out: &buf})
	assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNewNeverSilencesErrors(t *testing.T) {
	for _, raw := range []string{"off", "disabled", "none"} {
		t.Setenv(EnvLogLevel, raw)
		t.Setenv(EnvLogNoColor, "true")

		var buf bytes.Buffer
		logger := New("test", Options{Out: &buf})
		assert.Equal(t, zerolog.ErrorLevel, logger.GetLevel(), raw)

		logger.Warn().Msg("hidden")
		logger.Error().Int("bytes_read", 3).Msg("failed")
		assert.NotContains(t, buf.String(), "hidden", raw)
		assert.Contains(t, buf.String(), "bytes_read=3", raw)
	}
}

func TestHexBytes(t *testing.T) {
	assert.Equal(t, "", HexBytes(nil))
	assert.Equal(t, "d5", HexBytes([]byte{0xD5}))
	assert.Equal(t, "d5-02-86-00", HexBytes([]byte{0xD5, 0x02, 0x86, 0x00}))
}
