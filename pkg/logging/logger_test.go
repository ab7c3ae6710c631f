package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := SetupLogger(Config{Level: "warn", Out: &buf})

	logger.Info().Msg("hidden")
	log.Warn().Str("rule", "sd.us_social.1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "rule=sd.us_social.1")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestSetupLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	SetupLogger(Config{Level: "loud", Out: &buf})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	SetupLogger(Config{Out: &buf})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error().Msg("discarded")
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}
