package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduardojeem/benchline/adapter/cli"
	"github.com/eduardojeem/benchline/adapter/cli/priorityconfig"
	"github.com/eduardojeem/benchline/adapter/cli/queue"
	"github.com/eduardojeem/benchline/internal/triage/application/commands"
	"github.com/eduardojeem/benchline/internal/triage/application/queries"
	"github.com/eduardojeem/benchline/internal/triage/application/services"
	"github.com/eduardojeem/benchline/internal/triage/infrastructure/persistence"
	"github.com/eduardojeem/benchline/pkg/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	app := &cli.App{}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err == nil {
		if configRepo, err := persistence.OpenSQLite(ctx, cfg.SQLitePath); err == nil {
			store := services.NewConfigStore(configRepo, logger)
			if err := store.LoadPersisted(ctx); err != nil {
				logger.Warn("failed to load stored priority config", "error", err)
			}
			app.ConfigStore = store
			app.ConfigReplace = commands.NewReplaceConfigHandler(store, nil)
		} else {
			logger.Warn("failed to open config database", "error", err)
		}
	}

	if app.ConfigStore == nil {
		// Fall back to the built-in default config, in memory only.
		app.ConfigStore = services.NewConfigStore(nil, logger)
		app.ConfigReplace = commands.NewReplaceConfigHandler(app.ConfigStore, nil)
	}

	if cfg.DatabaseURL != "" {
		if pool, err := pgxpool.New(ctx, cfg.DatabaseURL); err == nil {
			itemRepo := persistence.NewPostgresWorkItemRepository(pool)
			app.Queue = queries.NewGetQueueHandler(itemRepo, app.ConfigStore, services.NewScoringEngine())
		} else {
			logger.Warn("failed to connect to ticket store", "error", err)
		}
	}

	cli.SetApp(app)
	cli.AddCommand(queue.Cmd)
	cli.AddCommand(priorityconfig.Cmd)
	cli.Execute()
}
