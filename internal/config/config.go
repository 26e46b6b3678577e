package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration
	Greeting      string

	// LLM. The API key is not configured here: every user brings their own.
	LLMProvider    string
	LLMModel       string
	LLMBaseURL     string
	LLMTemperature float32
	LLMMaxTokens   int

	// Rate limiting
	ChatRequestsPerMin int

	// Telemetry
	OTelEndpoint string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		SessionSecret:      getEnvOrDefault("SESSION_SECRET", ""),
		SessionTTL:         getEnvAsDurationOrDefault("SESSION_TTL", 24*time.Hour),
		Greeting:           getEnvOrDefault("CHAT_GREETING", ""),
		LLMProvider:        getEnvOrDefault("LLM_PROVIDER", "openai"),
		LLMModel:           getEnvOrDefault("LLM_MODEL", ""),
		LLMBaseURL:         getEnvOrDefault("LLM_BASE_URL", ""),
		LLMTemperature:     getEnvAsFloatOrDefault("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:       getEnvAsIntOrDefault("LLM_MAX_TOKENS", 0),
		ChatRequestsPerMin: getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MIN", 30),
		OTelEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.SessionSecret == "" {
		// Cookies signed with a per-process secret stop validating after a
		// restart, which matches sessions not surviving one.
		cfg.SessionSecret = uuid.NewString()
		log.Println("SESSION_SECRET not set, using a random per-process secret")
	}

	return cfg
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	if c.ChatRequestsPerMin <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT_PER_MIN must be positive, got %d", c.ChatRequestsPerMin)
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %g", c.LLMTemperature)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float32) float32 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return defaultVal
	}
	return float32(f)
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
