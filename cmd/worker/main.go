package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduardojeem/benchline/internal/shared/infrastructure/eventbus"
	"github.com/eduardojeem/benchline/internal/triage/application/services"
	"github.com/eduardojeem/benchline/internal/triage/infrastructure/persistence"
	"github.com/eduardojeem/benchline/internal/triage/infrastructure/publish"
	"github.com/eduardojeem/benchline/pkg/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting benchline triage worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required; the worker reads work items from the ticket store")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to ticket store", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping ticket store", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to ticket store")

	itemRepo := persistence.NewPostgresWorkItemRepository(pool)

	configRepo, err := persistence.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open config database", "error", err, "path", cfg.SQLitePath)
		os.Exit(1)
	}
	defer configRepo.Close()

	configStore := services.NewConfigStore(configRepo, logger)
	if err := configStore.LoadPersisted(ctx); err != nil {
		logger.Error("failed to load priority config", "error", err)
		os.Exit(1)
	}

	var snapshotPublisher services.SnapshotPublisher
	if cfg.RedisURL != "" {
		redisPublisher, err := publish.NewRedisSnapshotPublisher(ctx, cfg.RedisURL, logger)
		if err != nil {
			if cfg.IsDevelopment() {
				logger.Warn("Redis not available, orderings stay in-process", "error", err)
			} else {
				logger.Error("failed to connect to Redis", "error", err)
				os.Exit(1)
			}
		} else {
			snapshotPublisher = redisPublisher
			defer redisPublisher.Close()
		}
	}

	recomputer := services.NewRecomputer(
		itemRepo,
		configStore,
		services.NewScoringEngine(),
		snapshotPublisher,
		services.RecomputerConfig{
			FetchTimeout:   cfg.FetchTimeout,
			BreakerTimeout: cfg.BreakerTimeout,
		},
		logger,
	)

	registry := eventbus.NewConsumerRegistry(logger)
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, registry)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, recomputing on interval only", "error", err)
			consumer = nil
		} else {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
	}

	if consumer != nil {
		consumer.RegisterConsumer(recomputer)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("event consumer stopped", "error", err)
				cancel()
			}
		}()
	} else {
		// Without change notifications, poll so the ordering stays
		// fresh while developing.
		go func() {
			ticker := time.NewTicker(cfg.StatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					recomputer.Kick()
				}
			}
		}()
	}

	go func() {
		if err := recomputer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("recomputer stopped", "error", err)
			cancel()
		}
	}()

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			response := map[string]any{
				"status": "ok",
			}
			if snap, ok := recomputer.Current(); ok {
				response["items"] = len(snap.Items)
				response["config_version"] = snap.ConfigVersion
				response["computed_at"] = snap.ComputedAt
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response)
		})

		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"status": "not_ready",
					"error":  err.Error(),
				})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "ready"})
		})

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	statsTicker := time.NewTicker(cfg.StatsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				if snap, ok := recomputer.Current(); ok {
					logger.Info("queue stats",
						"items", len(snap.Items),
						"config_version", snap.ConfigVersion,
						"computed_at", snap.ComputedAt,
					)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("worker stopped")
}
