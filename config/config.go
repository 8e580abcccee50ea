package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port        string
	Environment string

	// Frontend
	FrontendURL    string
	AllowedOrigins []string

	// OAuth - Google
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// LLM
	OpenAIAPIKey   string
	GroqAPIKey     string
	LLMModel       string
	LLMTimeoutSec  int
	SummaryWorkers int

	// Mailbox
	MailboxTimeoutSec int

	// Sessions
	SessionTTLHours int
	RedisURL        string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENV", "development"),

		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("REDIRECT_URI", "http://localhost:8000/api/v1/auth/callback"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		GroqAPIKey:     getEnv("GROQ_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", ""),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),
		SummaryWorkers: getEnvInt("SUMMARY_WORKERS", 5),

		MailboxTimeoutSec: getEnvInt("MAILBOX_TIMEOUT_SEC", 30),

		SessionTTLHours: getEnvInt("SESSION_TTL_HOUR", 24),
		RedisURL:        getEnv("REDIS_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.OpenAIAPIKey == "" && cfg.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY or OPENAI_API_KEY environment variable is required")
	}

	return cfg, nil
}

// LLMBaseURL returns the API endpoint for the language model. A Groq key
// routes through Groq's OpenAI-compatible endpoint.
func (c *Config) LLMBaseURL() string {
	if c.GroqAPIKey != "" {
		return "https://api.groq.com/openai/v1"
	}
	return ""
}

// LLMAPIKey returns the key for the selected LLM provider.
func (c *Config) LLMAPIKey() string {
	if c.GroqAPIKey != "" {
		return c.GroqAPIKey
	}
	return c.OpenAIAPIKey
}

// ResolvedLLMModel returns the configured model, defaulting per provider.
func (c *Config) ResolvedLLMModel() string {
	if c.LLMModel != "" {
		return c.LLMModel
	}
	if c.GroqAPIKey != "" {
		return "llama-3.1-8b-instant"
	}
	return "gpt-4o-mini"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
