package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iago/outreach-leadgen/internal/bootstrap"
	"github.com/iago/outreach-leadgen/internal/config"
	httpserver "github.com/iago/outreach-leadgen/internal/http"
	"github.com/iago/outreach-leadgen/internal/http/handlers"
	"github.com/iago/outreach-leadgen/internal/service"
	"github.com/iago/outreach-leadgen/internal/worker"
)

func main() {
	logger := bootstrap.NewLogger(os.Stdout, "[leadgen] ")
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := bootstrap.RedisClient(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, storeCloser := bootstrap.JobStore(ctx, cfg, redisClient, logger)
	defer storeCloser()

	producer, consumer, queueCloser := bootstrap.Queue(ctx, cfg, redisClient, logger)
	defer queueCloser()

	artifacts := bootstrap.Artifacts(ctx, cfg, logger)
	leadgenWorker := bootstrap.Worker(cfg, store, artifacts, logger)

	jobsService := service.NewJobsService(service.JobsDependencies{
		Store:    store,
		Producer: producer,
		Runner:   leadgenWorker,
		Logger:   logger,
	})
	draftService := bootstrap.DraftService(ctx, cfg, logger)
	api := handlers.NewAPI(jobsService, draftService, logger)

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            api,
		Logger:         logger,
		AuthToken:      cfg.AuthToken,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Synchronous runs may take the whole job budget.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.WorkerEnabled {
		processor := worker.NewProcessor(consumer, leadgenWorker, logger)
		group.Go(func() error {
			processor.Start(groupCtx)
			return nil
		})
		logger.Printf("worker enabled and started")
	} else {
		logger.Printf("worker disabled by configuration")
	}

	group.Go(func() error {
		logger.Printf("api listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Printf("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown failed: %v", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Printf("server failed: %v", err)
	}
}
