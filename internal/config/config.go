package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings. It is constructed once at startup and
// passed to the components that need it; there is no ambient global.
type Config struct {
	GeminiAPIKey      string
	HolidayAPIKey     string
	HolidayAPIBaseURL string
	HolidayCountry    string
	DatabaseURL       string
	DataDir           string
	HTTPPort          string
	LogLevel          string
	JWTSecret         string
	SessionTTL        time.Duration
	RetrievalK        int
}

// Load reads .env (if present) and the environment and returns the resulting
// configuration. Missing API keys are not an error here: the affected
// components start in a degraded state and the HTTP layer reports them as
// unavailable.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		HolidayAPIKey:     getEnv("HOLIDAY_API_KEY", ""),
		HolidayAPIBaseURL: getEnv("HOLIDAY_API_BASE_URL", "https://calendarific.com/api/v2"),
		HolidayCountry:    getEnv("HOLIDAY_COUNTRY", "IN"),
		DatabaseURL:       getEnv("DATABASE_URL", "hr_assistant.db"),
		DataDir:           getEnv("DATA_DIR", "data"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		SessionTTL:        time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		RetrievalK:        getEnvAsInt("RETRIEVAL_K", 3),
	}
	return cfg, nil
}

// MissingServices names the external services that cannot be reached with
// the current configuration. Used for startup logging and /health.
func (c *Config) MissingServices() []string {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "llm (GEMINI_API_KEY)")
	}
	if c.HolidayAPIKey == "" {
		missing = append(missing, "holiday API (HOLIDAY_API_KEY)")
	}
	return missing
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
