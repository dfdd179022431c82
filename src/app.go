package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contre95/vinylshelf/src/features/catalog"
	"github.com/contre95/vinylshelf/src/features/config"
	"github.com/contre95/vinylshelf/src/features/importing"
	"github.com/contre95/vinylshelf/src/features/logging"
	"github.com/contre95/vinylshelf/src/features/metrics"
	"github.com/contre95/vinylshelf/src/infra/database"
	"github.com/contre95/vinylshelf/src/infra/firestore"
	"github.com/contre95/vinylshelf/src/infra/memory"
	"github.com/contre95/vinylshelf/src/infra/sessions"
	"github.com/contre95/vinylshelf/src/vinyl"
)

// app holds the services shared by every command.
type app struct {
	cfg        *config.Manager
	source     *metrics.InstrumentedSource
	collectors *metrics.Collectors
	sessions   *sessions.InMemoryStore
	catalog    *catalog.Service
	metrics    *metrics.Service
	importing  *importing.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfgManager, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logging.SetupLogger(cfgManager))

	raw, err := openSource(ctx, cfgManager.Get())
	if err != nil {
		return nil, err
	}

	collectors := metrics.NewCollectors()
	source := metrics.Instrument(raw, collectors)
	store := sessions.NewInMemoryStore()
	catalogService := catalog.NewService(source, cfgManager, store, collectors)
	collections := catalogService.Collections()

	a := &app{
		cfg:        cfgManager,
		source:     source,
		collectors: collectors,
		sessions:   store,
		catalog:    catalogService,
		metrics:    metrics.NewService(source, collections),
		importing:  importing.NewService(source, collections),
	}

	cfg := cfgManager.Get()
	if cfg.Demo || cfg.Source.Driver == "memory" {
		stats, err := a.importing.ImportDemo(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to load demo collection: %w", err)
		}
		slog.Info("Demo collection loaded", "records", stats.Records)
	}
	return a, nil
}

// openSource connects the configured document store.
func openSource(ctx context.Context, cfg *config.Config) (vinyl.RecordSource, error) {
	switch cfg.Source.Driver {
	case "sqlite":
		store, err := database.NewSqliteStore(cfg.Source.Sqlite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case "firestore":
		store, err := firestore.NewStore(ctx, cfg.Source.Firestore.ProjectID, cfg.Source.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Source.Driver)
	}
}

// Close tears down every session and the store.
func (a *app) Close() {
	a.sessions.Clear()
	if err := a.source.Close(); err != nil {
		slog.Error("Failed to close source", "error", err)
	}
}
