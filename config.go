// Package researchagent - config.go
// Loads environment-backed configuration for the agent runtime.
package researchagent

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds API credentials and runtime settings. Values come from the
// process environment, with a .env file in the working directory loaded
// first when present.
type Config struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	BaseURL         string

	Model       string
	MaxTokens   int64
	Temperature float64

	MaxIterations int
	MemorySize    int
}

const (
	defaultModel         = "gpt-3.5-turbo"
	defaultMaxTokens     = 1000
	defaultTemperature   = 0.7
	defaultMaxIterations = 5
	defaultMemorySize    = 1000
)

// LoadConfig reads .env (if any) and the environment and validates the
// result. A missing .env file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables only")
	}

	cfg := &Config{
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		BaseURL:         getEnv("OPENAI_BASE_URL", ""),
		Model:           getEnv("RESEARCHAGENT_MODEL", defaultModel),
		MaxTokens:       getEnvInt64("RESEARCHAGENT_MAX_TOKENS", defaultMaxTokens),
		Temperature:     getEnvFloat("RESEARCHAGENT_TEMPERATURE", defaultTemperature),
		MaxIterations:   int(getEnvInt64("RESEARCHAGENT_MAX_ITERATIONS", defaultMaxIterations)),
		MemorySize:      int(getEnvInt64("RESEARCHAGENT_MEMORY_SIZE", defaultMemorySize)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and that numeric
// settings are usable.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MemorySize <= 0 {
		return fmt.Errorf("memory size must be positive, got %d", c.MemorySize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		slog.Warn("ignoring non-integer environment value", "key", key, "value", value)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		slog.Warn("ignoring non-numeric environment value", "key", key, "value", value)
	}
	return fallback
}
