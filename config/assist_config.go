package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Redis (optional summary cache backend)
	RedisURL string

	// LLM (OpenAI-compatible endpoint)
	LLMBaseURL         string
	OpenAIAPIKey       string
	LLMModel           string
	LLMSummaryModel    string
	LLMCorrectionModel string
	LLMTimeoutSec      int

	// Circuit breaker around model calls
	BreakerMaxRequests      uint32
	BreakerIntervalSec      int
	BreakerTimeoutSec       int
	BreakerFailureThreshold uint32

	// Summary cache
	SummaryCacheTTLSec     int
	SummaryCacheMaxEntries int

	// Reply pipeline
	ReplyMinWords      int
	ReplyTemplatesFile string

	// Rate limiting (requests per minute per IP, 0 disables)
	RateLimitPerMin int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMSummaryModel:    getEnv("LLM_SUMMARY_MODEL", ""),
		LLMCorrectionModel: getEnv("LLM_CORRECTION_MODEL", ""),
		LLMTimeoutSec:      getEnvInt("LLM_TIMEOUT_SEC", 30),

		BreakerMaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 3)),
		BreakerIntervalSec:      getEnvInt("BREAKER_INTERVAL_SEC", 60),
		BreakerTimeoutSec:       getEnvInt("BREAKER_TIMEOUT_SEC", 30),
		BreakerFailureThreshold: uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)),

		SummaryCacheTTLSec:     getEnvInt("SUMMARY_CACHE_TTL_SEC", 300),
		SummaryCacheMaxEntries: getEnvInt("SUMMARY_CACHE_MAX_ENTRIES", 0),

		ReplyMinWords:      getEnvInt("REPLY_MIN_WORDS", 0),
		ReplyTemplatesFile: getEnv("REPLY_TEMPLATES_FILE", ""),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 120),

		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"*"}),
	}, nil
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
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// LLMTimeout is the per-call deadline for model requests.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

// SummaryCacheTTL is how long a summary stays memoized.
func (c *Config) SummaryCacheTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTLSec) * time.Second
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
