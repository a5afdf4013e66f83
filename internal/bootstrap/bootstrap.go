// Package bootstrap builds the runtime components shared by the API server
// and the command-line runner from a loaded config.
package bootstrap

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iago/outreach-leadgen/internal/ai"
	"github.com/iago/outreach-leadgen/internal/apollo"
	"github.com/iago/outreach-leadgen/internal/cache"
	"github.com/iago/outreach-leadgen/internal/config"
	"github.com/iago/outreach-leadgen/internal/leadgen"
	"github.com/iago/outreach-leadgen/internal/queue"
	"github.com/iago/outreach-leadgen/internal/repository"
	"github.com/iago/outreach-leadgen/internal/retry"
	"github.com/iago/outreach-leadgen/internal/service"
	"github.com/iago/outreach-leadgen/internal/storage"
)

func NewLogger(w io.Writer, prefix string) *log.Logger {
	return log.New(w, prefix, log.LstdFlags|log.LUTC|log.Lmicroseconds)
}

// RedisClient returns nil when REDIS_ADDR is not configured.
func RedisClient(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func Searcher(cfg config.Config) *apollo.Client {
	return apollo.NewClient(apollo.ClientConfig{
		APIKey:  cfg.ApolloAPIKey,
		BaseURL: cfg.ApolloBaseURL,
		Timeout: cfg.ApolloTimeout(),
		Retry: retry.Policy{
			MaxAttempts: cfg.ApolloMaxAttempts,
			BaseDelay:   cfg.ApolloRetryDelay(),
		},
		RateLimitRPS: cfg.ApolloRateLimitRPS,
	})
}

// Artifacts returns nil when object storage is not configured or cannot be
// reached, so exports are skipped instead of failing jobs.
func Artifacts(ctx context.Context, cfg config.Config, logger *log.Logger) leadgen.ArtifactStore {
	minioCfg := storage.MinioConfig{
		Endpoint:     cfg.MinioEndpoint,
		AccessKey:    cfg.MinioAccessKey,
		SecretKey:    cfg.MinioSecretKey,
		Bucket:       cfg.MinioBucket,
		Region:       cfg.MinioRegion,
		UseSSL:       cfg.MinioUseSSL,
		CreateBucket: cfg.MinioCreateBucket,
	}
	if !minioCfg.Enabled() {
		logger.Printf("MINIO_* not configured, csv and import exports disabled")
		return nil
	}
	store, err := storage.NewMinioStore(ctx, minioCfg)
	if err != nil {
		logger.Printf("failed to initialize object storage, exports disabled: %v", err)
		return nil
	}
	logger.Printf("object storage initialized bucket=%s", store.Bucket())
	return store
}

// JobStore builds the in-memory store and, when persistence is enabled, the
// configured persister behind it.
func JobStore(
	ctx context.Context,
	cfg config.Config,
	redisClient *redis.Client,
	logger *log.Logger,
) (*repository.MemoryJobStore, func()) {
	persister, closer := setupPersister(ctx, cfg, redisClient, logger)
	store := repository.NewMemoryJobStore(repository.MemoryJobStoreConfig{
		Persister:          persister,
		PersistenceEnabled: cfg.JobPersistenceEnabled && persister != nil,
		Logger:             logger,
	})
	return store, closer
}

func setupPersister(
	ctx context.Context,
	cfg config.Config,
	redisClient *redis.Client,
	logger *log.Logger,
) (repository.Persister, func()) {
	noop := func() {}
	if !cfg.JobPersistenceEnabled {
		logger.Printf("job persistence disabled, jobs live in process memory only")
		return nil, noop
	}

	switch cfg.JobPersistenceBackend {
	case config.PersistencePostgres:
		if cfg.DatabaseURL == "" {
			logger.Printf("DATABASE_URL not configured, falling back to file persistence")
			break
		}
		pg, err := repository.NewPostgresPersister(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Printf("failed to initialize postgres persistence, falling back to file: %v", err)
			break
		}
		logger.Printf("postgres job persistence initialized")
		return pg, pg.Close
	case config.PersistenceRedis:
		if redisClient == nil {
			logger.Printf("REDIS_ADDR not configured, falling back to file persistence")
			break
		}
		logger.Printf("redis job persistence initialized ttl_hours=%d", cfg.JobRecordTTLHours)
		return repository.NewRedisPersister(redisClient, repository.RedisPersisterConfig{TTL: cfg.JobRecordTTL()}), noop
	}

	file, err := repository.NewFilePersister(cfg.JobStoreDir)
	if err != nil {
		logger.Printf("failed to initialize file persistence, jobs stay in memory: %v", err)
		return nil, noop
	}
	logger.Printf("file job persistence initialized dir=%s", file.Dir())
	return file, noop
}

func Worker(
	cfg config.Config,
	store repository.JobStore,
	artifacts leadgen.ArtifactStore,
	logger *log.Logger,
) *leadgen.Worker {
	searcher := Searcher(cfg)
	if !searcher.Available() {
		logger.Printf("APOLLO_API_KEY not configured, searches will fail")
	}
	return leadgen.NewWorker(leadgen.Config{
		Searcher:   searcher,
		Store:      store,
		Artifacts:  artifacts,
		PerPage:    cfg.LeadgenPerPage,
		PresignTTL: cfg.PresignTTL(),
		Logger:     logger,
	})
}

// Queue prefers Redis Streams and falls back to the in-process queue.
func Queue(
	ctx context.Context,
	cfg config.Config,
	redisClient *redis.Client,
	logger *log.Logger,
) (queue.Producer, queue.Consumer, func()) {
	var (
		baseProducer queue.Producer
		consumer     queue.Consumer
		baseCloser   = func() {}
	)

	if redisClient == nil {
		logger.Printf("REDIS_ADDR not configured, using local queue fallback")
		local := queue.NewLocalQueue(queue.LocalQueueConfig{}, logger)
		baseProducer = local
		consumer = local
	} else {
		streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
			Client:      redisClient,
			Stream:      cfg.RedisStream,
			DLQStream:   cfg.RedisDLQ,
			Group:       cfg.RedisGroup,
			Consumer:    cfg.RedisConsumer,
			MaxAttempts: 3,
		})
		if err != nil {
			logger.Printf("failed to initialize redis streams queue, fallback to local: %v", err)
			local := queue.NewLocalQueue(queue.LocalQueueConfig{}, logger)
			baseProducer = local
			consumer = local
		} else {
			logger.Printf("redis streams queue initialized stream=%s group=%s", cfg.RedisStream, cfg.RedisGroup)
			baseProducer = streams
			consumer = streams
			baseCloser = func() {
				_ = streams.Close()
			}
		}
	}

	producer := baseProducer
	batchingCloser := func() {}
	if cfg.QueueBatchingEnabled {
		batching := queue.NewBatchingProducer(ctx, baseProducer, queue.BatchingConfig{
			MaxBatchSize:       cfg.QueueBatchSize,
			FlushInterval:      time.Duration(cfg.QueueBatchFlushMS) * time.Millisecond,
			FlushTimeout:       time.Duration(cfg.QueueBatchFlushTimeoutMS) * time.Millisecond,
			QueueCapacity:      cfg.QueueBatchQueueCapacity,
			MaxInFlightBatches: cfg.QueueBatchMaxInFlight,
		})
		producer = batching
		batchingCloser = batching.Close
		logger.Printf(
			"queue batching enabled size=%d flush_ms=%d queue_capacity=%d max_in_flight=%d",
			cfg.QueueBatchSize,
			cfg.QueueBatchFlushMS,
			cfg.QueueBatchQueueCapacity,
			cfg.QueueBatchMaxInFlight,
		)
	}

	return producer, consumer, func() {
		batchingCloser()
		baseCloser()
	}
}

// DraftService wires the ICP drafting service to OpenRouter or Gemini,
// whichever has a key. Without either it only serves keyword fallbacks.
func DraftService(ctx context.Context, cfg config.Config, logger *log.Logger) *service.DraftService {
	routerCfg := ai.ModelRouterConfig{
		DraftPrimary:  cfg.DraftModelPrimary,
		DraftFallback: cfg.DraftModelFallback,
	}

	var generator ai.TextGenerator
	switch {
	case cfg.OpenRouterAPIKey != "":
		generator = ai.NewOpenRouterClient(ai.OpenRouterClientConfig{
			APIKey:     cfg.OpenRouterAPIKey,
			BaseURL:    cfg.OpenRouterBaseURL,
			Timeout:    time.Duration(cfg.OpenRouterTimeoutMS) * time.Millisecond,
			MaxRetries: cfg.OpenRouterMaxRetries,
			JSONMode:   true,
		})
		logger.Printf("icp drafting uses openrouter")
	case cfg.GeminiAPIKey != "":
		gemini, err := ai.NewGeminiClient(ctx, ai.GeminiClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			logger.Printf("failed to initialize gemini client, icp drafting degraded: %v", err)
			break
		}
		generator = gemini
		if routerCfg.DraftPrimary == "" {
			routerCfg.DraftPrimary = "gemini-2.5-flash"
		}
		if routerCfg.DraftFallback == "" {
			routerCfg.DraftFallback = "gemini-2.5-flash-lite"
		}
		logger.Printf("icp drafting uses gemini")
	default:
		logger.Printf("no LLM key configured, icp drafting returns keyword fallbacks")
	}

	return service.NewDraftService(service.DraftDependencies{
		Router: ai.NewModelRouter(routerCfg),
		Client: generator,
		Cache: cache.NewDraftCache(cache.Config{
			TTL:        time.Duration(cfg.DraftCacheTTLSeconds) * time.Second,
			MaxEntries: cfg.DraftCacheMaxEntries,
		}),
		Logger: logger,
	})
}
