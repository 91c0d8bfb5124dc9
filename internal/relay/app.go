// Package relay wires the sync engine, its stores, and the remote client
// into the application container consumed by the CLI commands.
package relay

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/colonyops/relay/internal/core/auth"
	"github.com/colonyops/relay/internal/core/config"
	"github.com/colonyops/relay/internal/core/eventbus"
	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/data/db"
	"github.com/colonyops/relay/internal/data/stores"
	"github.com/colonyops/relay/internal/remote"
	"github.com/colonyops/relay/internal/sync"
)

// App is the central entry point for all relay operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Engine   *sync.Engine
	Bus      *eventbus.EventBus
	Outbox   outbox.Queue
	Config   *config.Config
	DB       *db.DB
	Registry *prometheus.Registry
}

// NewApp assembles an App from a loaded config and an open database.
func NewApp(cfg *config.Config, database *db.DB) (*App, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := eventbus.New(64)

	client := remote.NewClient(cfg.API.BaseURL, cfg.API.RequestTimeout)

	var tokens auth.TokenProvider
	if cfg.API.TokenFile != "" {
		tokens = auth.File(cfg.API.TokenFile)
	} else {
		tokens = auth.Env(cfg.API.TokenEnv)
	}

	queue := stores.NewOutboxStore(database, cfg.Sync.MaxQueueSize)
	kv := stores.NewKVStore(database)

	engine, err := sync.New(sync.Options{
		Queue:          queue,
		Transport:      client,
		Tokens:         tokens,
		Probe:          remote.NewPingProbe(client),
		Bus:            bus,
		Persistence:    stores.NewStateStore(database),
		Checkpoints:    stores.NewCheckpointStore(kv),
		Metrics:        sync.NewMetrics(registry),
		BatchWindow:    cfg.Sync.BatchWindow,
		BatchThreshold: cfg.Sync.BatchThreshold,
		SyncInterval:   cfg.Sync.Interval,
		MaxAttempts:    cfg.Sync.MaxAttempts,
		BaseDelay:      cfg.Sync.BaseDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("create sync engine: %w", err)
	}

	return &App{
		Engine:   engine,
		Bus:      bus,
		Outbox:   queue,
		Config:   cfg,
		DB:       database,
		Registry: registry,
	}, nil
}
