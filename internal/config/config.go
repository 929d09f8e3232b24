package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Port         string
	Environment  string // "development" or "production"
	MongoURI     string
	DatabaseName string
	RedisURL     string

	// LLM provider configuration
	LLMProvider       string // "openai" or any OpenAI-compatible gateway
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	MaxContextTokens  int
	LLMTimeoutSeconds int

	// Rate limiting
	RateLimitPerMinute int

	// CORS
	CORSOrigins string

	// WhatsApp Cloud API configuration
	WAAccessToken   string
	WAPhoneNumberID string
	WAVerifyToken   string

	// Protocol catalog
	ProtocolSeedFile       string // optional JSON file overriding the builtin seeds
	ProtocolRefreshMinutes int    // periodic cache refresh interval
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8000"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DATABASE_NAME", "disha"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),

		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		MaxContextTokens:  getIntEnv("MAX_CONTEXT_TOKENS", 8000),
		LLMTimeoutSeconds: getIntEnv("LLM_TIMEOUT_SECONDS", 30),

		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 10),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		WAAccessToken:   getEnv("WA_ACCESS_TOKEN", ""),
		WAPhoneNumberID: getEnv("WA_PHONE_NUMBER_ID", ""),
		WAVerifyToken:   getEnv("WA_VERIFY_TOKEN", ""),

		ProtocolSeedFile:       getEnv("PROTOCOL_SEED_FILE", ""),
		ProtocolRefreshMinutes: getIntEnv("PROTOCOL_REFRESH_MINUTES", 15),
	}
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// WhatsAppEnabled reports whether the WhatsApp channel is configured
func (c *Config) WhatsAppEnabled() bool {
	return c.WAAccessToken != "" && c.WAPhoneNumberID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
