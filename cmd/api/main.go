package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labforge/estudo-insights-back/internal/authz"
	"github.com/labforge/estudo-insights-back/internal/cache"
	"github.com/labforge/estudo-insights-back/internal/config"
	"github.com/labforge/estudo-insights-back/internal/grounding"
	httpserver "github.com/labforge/estudo-insights-back/internal/http"
	"github.com/labforge/estudo-insights-back/internal/http/handlers"
	"github.com/labforge/estudo-insights-back/internal/indexer"
	"github.com/labforge/estudo-insights-back/internal/metrics"
	"github.com/labforge/estudo-insights-back/internal/queue"
	"github.com/labforge/estudo-insights-back/internal/repository"
	"github.com/labforge/estudo-insights-back/internal/service"
	"github.com/labforge/estudo-insights-back/internal/worker"
)

func main() {
	logger := log.New(os.Stdout, "[insights-back] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	jobs, entities, repoCloser := setupRepositories(ctx, cfg, logger)
	defer repoCloser()

	notifier, notifierCloser := setupNotifier(ctx, cfg, logger)
	defer notifierCloser()

	contentIndexer, indexStorage := setupIndexer(cfg, logger)

	indexWorker := worker.New(jobs, contentIndexer, logger)
	trendsCache := cache.NewResultsCache[service.TrendsResult](cache.Config{
		TTL: time.Duration(cfg.TrendsCacheTTLSeconds) * time.Second,
	})

	reindexService := service.NewReindexService(jobs, entities, indexStorage, notifier, logger)
	trendsService := service.NewTrendsService(entities, trendsCache, logger)
	verificationService := service.NewVerificationService(entities, grounding.DefaultConfig(), logger)

	api := handlers.NewAPI(handlers.APIDependencies{
		Reindex:      reindexService,
		Trends:       trendsService,
		Verification: verificationService,
		Runner:       indexWorker,
		Jobs:         jobs,
		Roles:        authz.NewStaticRoleChecker(cfg.RoleGrants),
		Logger:       logger,
	})

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.WorkerEnabled {
		go indexWorker.Start(
			ctx,
			notifier,
			cfg.WorkerBatchSize,
			time.Duration(cfg.WorkerPollMS)*time.Millisecond,
		)
		logger.Printf("index worker enabled batch_size=%d poll_ms=%d", cfg.WorkerBatchSize, cfg.WorkerPollMS)
	} else {
		logger.Printf("index worker disabled by configuration")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupRepositories(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.JobsRepository, repository.EntitiesRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repositories")
		return repository.NewMemoryJobsRepository(), repository.NewMemoryEntitiesRepository(), func() {}
	}

	pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres, fallback to memory: %v", err)
		return repository.NewMemoryJobsRepository(), repository.NewMemoryEntitiesRepository(), func() {}
	}
	logger.Printf("postgres repositories initialized")
	return repository.NewPostgresJobsRepository(pool),
		repository.NewPostgresEntitiesRepository(pool),
		pool.Close
}

func setupNotifier(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (queue.Notifier, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using local wake notifier")
		return queue.NewLocalNotifier(), func() {}
	}

	redisNotifier, err := queue.NewRedisNotifier(ctx, queue.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	}, logger)
	if err != nil {
		logger.Printf("failed to initialize redis notifier, fallback to local: %v", err)
		return queue.NewLocalNotifier(), func() {}
	}
	logger.Printf("redis wake notifier initialized")
	return redisNotifier, func() {
		_ = redisNotifier.Close()
	}
}

func setupIndexer(
	cfg config.Config,
	logger *log.Logger,
) (indexer.ContentIndexer, indexer.IndexStorage) {
	if cfg.IndexerBaseURL == "" {
		logger.Printf("INDEXER_BASE_URL not configured, using noop indexer")
		noop := indexer.NewNoopIndexer(logger)
		return noop, noop
	}

	client := indexer.NewHTTPIndexer(indexer.HTTPIndexerConfig{
		BaseURL:    cfg.IndexerBaseURL,
		APIKey:     cfg.IndexerAPIKey,
		Timeout:    time.Duration(cfg.IndexerTimeoutMS) * time.Millisecond,
		MaxRetries: cfg.IndexerMaxRetries,
	})
	logger.Printf("http indexer initialized base_url=%s", cfg.IndexerBaseURL)
	return client, client
}
