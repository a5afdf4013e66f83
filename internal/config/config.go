package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Persistence backends for job records.
const (
	PersistenceFile     = "file"
	PersistencePostgres = "postgres"
	PersistenceRedis    = "redis"
)

// Config centralizes runtime settings for the API, the worker and the CLI.
type Config struct {
	Port string

	AuthToken   string
	CORSOrigins []string

	ApolloAPIKey       string
	ApolloBaseURL      string
	ApolloTimeoutMS    int
	ApolloMaxAttempts  int
	ApolloRetryDelayMS int
	ApolloRateLimitRPS float64
	LeadgenPerPage     int

	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioBucket       string
	MinioRegion       string
	MinioUseSSL       bool
	MinioCreateBucket bool
	PresignTTLSeconds int

	JobPersistenceEnabled bool
	JobPersistenceBackend string
	JobStoreDir           string
	DatabaseURL           string
	JobRecordTTLHours     int

	OpenRouterAPIKey     string
	OpenRouterBaseURL    string
	OpenRouterTimeoutMS  int
	OpenRouterMaxRetries int
	GeminiAPIKey         string
	GeminiBaseURL        string
	DraftModelPrimary    string
	DraftModelFallback   string

	DraftCacheTTLSeconds int
	DraftCacheMaxEntries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisDLQ      string
	RedisGroup    string
	RedisConsumer string

	RateLimitRPS   float64
	RateLimitBurst int

	QueueBatchingEnabled     bool
	QueueBatchSize           int
	QueueBatchFlushMS        int
	QueueBatchFlushTimeoutMS int
	QueueBatchQueueCapacity  int
	QueueBatchMaxInFlight    int

	WorkerEnabled bool
}

func Load() Config {
	cfg := Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:   getEnv("API_AUTH_TOKEN", ""),
		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		ApolloAPIKey:       getEnv("APOLLO_API_KEY", ""),
		ApolloBaseURL:      getEnv("APOLLO_BASE_URL", "https://api.apollo.io/api/v1"),
		ApolloTimeoutMS:    getEnvInt("APOLLO_TIMEOUT_MS", 20000),
		ApolloMaxAttempts:  getEnvInt("APOLLO_MAX_ATTEMPTS", 3),
		ApolloRetryDelayMS: getEnvInt("APOLLO_RETRY_DELAY_MS", 1000),
		ApolloRateLimitRPS: getEnvFloat("APOLLO_RATE_LIMIT_RPS", 0),
		LeadgenPerPage:     getEnvInt("LEADGEN_PER_PAGE", 25),

		MinioEndpoint:     getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:    getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:    getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:       getEnv("MINIO_BUCKET", ""),
		MinioRegion:       getEnv("MINIO_REGION", ""),
		MinioUseSSL:       getEnvBool("MINIO_USE_SSL", true),
		MinioCreateBucket: getEnvBool("MINIO_CREATE_BUCKET", false),
		PresignTTLSeconds: getEnvInt("PRESIGN_TTL_SECONDS", 900),

		JobPersistenceEnabled: getEnvBool("JOB_PERSISTENCE_ENABLED", serverlessRuntime()),
		JobPersistenceBackend: strings.ToLower(getEnv("JOB_PERSISTENCE_BACKEND", PersistenceFile)),
		JobStoreDir:           getEnv("JOB_STORE_DIR", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JobRecordTTLHours:     getEnvInt("JOB_RECORD_TTL_HOURS", 24),

		OpenRouterAPIKey:     getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:    getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterTimeoutMS:  getEnvInt("OPENROUTER_TIMEOUT_MS", 15000),
		OpenRouterMaxRetries: getEnvInt("OPENROUTER_MAX_RETRIES", 2),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiBaseURL:        getEnv("GEMINI_BASE_URL", ""),
		DraftModelPrimary:    getEnv("DRAFT_MODEL_PRIMARY", ""),
		DraftModelFallback:   getEnv("DRAFT_MODEL_FALLBACK", ""),

		DraftCacheTTLSeconds: getEnvInt("DRAFT_CACHE_TTL_SECONDS", 1800),
		DraftCacheMaxEntries: getEnvInt("DRAFT_CACHE_MAX_ENTRIES", 1000),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisStream:   getEnv("REDIS_STREAM", "leadgen_jobs"),
		RedisDLQ:      getEnv("REDIS_DLQ_STREAM", "leadgen_jobs_dlq"),
		RedisGroup:    getEnv("REDIS_GROUP", "leadgen_workers"),
		RedisConsumer: getEnv("REDIS_CONSUMER", defaultConsumerName()),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		QueueBatchingEnabled:     getEnvBool("QUEUE_BATCHING_ENABLED", true),
		QueueBatchSize:           getEnvInt("QUEUE_BATCH_SIZE", 32),
		QueueBatchFlushMS:        getEnvInt("QUEUE_BATCH_FLUSH_MS", 25),
		QueueBatchFlushTimeoutMS: getEnvInt("QUEUE_BATCH_FLUSH_TIMEOUT_MS", 3000),
		QueueBatchQueueCapacity:  getEnvInt("QUEUE_BATCH_QUEUE_CAPACITY", 2048),
		QueueBatchMaxInFlight:    getEnvInt("QUEUE_BATCH_MAX_IN_FLIGHT", 4),

		WorkerEnabled: getEnvBool("WORKER_ENABLED", true),
	}
	return cfg
}

func (c Config) ApolloTimeout() time.Duration {
	return time.Duration(c.ApolloTimeoutMS) * time.Millisecond
}

func (c Config) ApolloRetryDelay() time.Duration {
	return time.Duration(c.ApolloRetryDelayMS) * time.Millisecond
}

func (c Config) PresignTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

func (c Config) JobRecordTTL() time.Duration {
	return time.Duration(c.JobRecordTTLHours) * time.Hour
}

// serverlessRuntime reports whether the process runs on a platform where
// separate invocations do not share memory.
func serverlessRuntime() bool {
	for _, key := range []string{"VERCEL", "AWS_LAMBDA_FUNCTION_NAME", "K_SERVICE"} {
		if strings.TrimSpace(os.Getenv(key)) != "" {
			return true
		}
	}
	return false
}

func defaultConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "leadgen-1"
	}
	return host
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
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
