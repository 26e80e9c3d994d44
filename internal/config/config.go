package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API and the index worker.
type Config struct {
	Port string

	AuthToken  string
	RoleGrants []string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	IndexerBaseURL    string
	IndexerAPIKey     string
	IndexerTimeoutMS  int
	IndexerMaxRetries int

	WorkerEnabled   bool
	WorkerBatchSize int
	WorkerPollMS    int

	TrendsCacheTTLSeconds int

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:  getEnv("API_AUTH_TOKEN", ""),
		RoleGrants: getEnvList("ROLE_GRANTS", nil),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisChannel:  getEnv("REDIS_WAKE_CHANNEL", "index_jobs_wake"),

		IndexerBaseURL:    getEnv("INDEXER_BASE_URL", ""),
		IndexerAPIKey:     getEnv("INDEXER_API_KEY", ""),
		IndexerTimeoutMS:  getEnvInt("INDEXER_TIMEOUT_MS", 15000),
		IndexerMaxRetries: getEnvInt("INDEXER_MAX_RETRIES", 2),

		WorkerEnabled:   getEnvBool("WORKER_ENABLED", true),
		WorkerBatchSize: getEnvInt("WORKER_BATCH_SIZE", 5),
		WorkerPollMS:    getEnvInt("WORKER_POLL_MS", 5000),

		TrendsCacheTTLSeconds: getEnvInt("TRENDS_CACHE_TTL_SECONDS", 900),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
