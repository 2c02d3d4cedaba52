package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting for the simulation
// engine, loaded once at startup via godotenv + os.Getenv, matching the
// teacher's load-then-freeze convention.
type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server
	Port      string
	GinMode   string
	JWTSecret string

	// Market Tool Gateway (§4.3)
	MarketGatewayBaseURL string

	// Research Connectors (§4.1: web_search, web_connector, code_interpreter).
	// Each is independently optional; a blank URL disables that connector
	// even when a cycle's tool policy asks for it.
	WebSearchBaseURL       string
	WebConnectorBaseURL    string
	CodeInterpreterBaseURL string

	// LLM Gateway (§4.6, agentcore.LLMProvider)
	LLMBaseURL string
	LLMAPIKey  string

	// Lifecycle Manager (§4.7)
	MaxConcurrentExecutions int64
	CycleTimeout            time.Duration

	// Redis (optional, eventbus fan-out across replicas)
	RedisAddr string

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "casualtrader"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "release"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		MarketGatewayBaseURL: getEnv("MARKET_GATEWAY_BASE_URL", "http://localhost:9001"),

		WebSearchBaseURL:       getEnv("WEB_SEARCH_BASE_URL", ""),
		WebConnectorBaseURL:    getEnv("WEB_CONNECTOR_BASE_URL", ""),
		CodeInterpreterBaseURL: getEnv("CODE_INTERPRETER_BASE_URL", ""),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),

		MaxConcurrentExecutions: getEnvInt64("MAX_CONCURRENT_EXECUTIONS", 4),
		CycleTimeout:            getEnvDuration("CYCLE_TIMEOUT", 5*time.Minute),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func (c *Config) DBDSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser + " dbname=" + c.DBName + " password=" + c.DBPassword + " sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
