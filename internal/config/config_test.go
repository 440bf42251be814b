package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HOLIDAY_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://calendarific.com/api/v2", cfg.HolidayAPIBaseURL)
	assert.Equal(t, "IN", cfg.HolidayCountry)
	assert.Equal(t, "hr_assistant.db", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.RetrievalK)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "120")
	t.Setenv("RETRIEVAL_K", "5")
	t.Setenv("HOLIDAY_COUNTRY", "US")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.RetrievalK)
	assert.Equal(t, "US", cfg.HolidayCountry)
	assert.Equal(t, "9090", cfg.HTTPPort)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestMissingServices(t *testing.T) {
	cfg := &Config{}
	assert.ElementsMatch(t,
		[]string{"llm (GEMINI_API_KEY)", "holiday API (HOLIDAY_API_KEY)"},
		cfg.MissingServices())

	cfg.GeminiAPIKey = "k"
	cfg.HolidayAPIKey = "k"
	assert.Empty(t, cfg.MissingServices())
}
