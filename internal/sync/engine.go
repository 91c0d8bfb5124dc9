package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/colonyops/relay/internal/core/auth"
	"github.com/colonyops/relay/internal/core/eventbus"
	"github.com/colonyops/relay/internal/core/logging"
	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/core/progress"
)

// Options configures a new Engine. Queue, Transport, Tokens, and Probe are
// required; everything else has a usable default so tests can construct a
// headless engine with a handful of fakes.
type Options struct {
	Queue     outbox.Queue
	Transport Transport
	Tokens    auth.TokenProvider
	Probe     ConnectivityProbe

	Store       *progress.StateStore // fresh store when nil
	Bus         *eventbus.EventBus   // inert bus when nil
	Persistence Persistence          // optional durable snapshot hook
	Checkpoints CheckpointStore      // optional reconciliation watermark
	Clock       Clock                // wall clock when nil
	Metrics     *Metrics             // private registry when nil

	BatchWindow    time.Duration // default 2s
	BatchThreshold int           // default 10
	SyncInterval   time.Duration // default 30s
	MaxAttempts    int           // default 3
	BaseDelay      time.Duration // default 1s
}

// Engine is one progress synchronization engine instance. It owns the local
// state store and the outbox exclusively; external collaborators observe it
// through the event bus or the persistence hook and never mutate its stores.
type Engine struct {
	store       *progress.StateStore
	queue       outbox.Queue
	exec        *Executor
	batcher     *Batcher
	bus         *eventbus.EventBus
	persist     Persistence
	checkpoints CheckpointStore
	probe       ConnectivityProbe
	clock       Clock
	metrics     *Metrics
	log         zerolog.Logger

	syncInterval time.Duration
	flights      singleflight.Group
	reconciler   *reconciler
}

// New creates an engine and, when a persistence hook is supplied, seeds the
// state store from the last durable snapshot.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Queue == nil:
		return nil, fmt.Errorf("sync: Queue is required")
	case opts.Transport == nil:
		return nil, fmt.Errorf("sync: Transport is required")
	case opts.Tokens == nil:
		return nil, fmt.Errorf("sync: Tokens is required")
	case opts.Probe == nil:
		return nil, fmt.Errorf("sync: Probe is required")
	}

	if opts.Store == nil {
		opts.Store = progress.NewStateStore()
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.New(64)
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if opts.BatchWindow <= 0 {
		opts.BatchWindow = 2 * time.Second
	}
	if opts.BatchThreshold <= 0 {
		opts.BatchThreshold = 10
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}

	e := &Engine{
		store:        opts.Store,
		queue:        opts.Queue,
		bus:          opts.Bus,
		persist:      opts.Persistence,
		checkpoints:  opts.Checkpoints,
		probe:        opts.Probe,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		log:          logging.Component("engine"),
		syncInterval: opts.SyncInterval,
	}

	e.exec = NewExecutor(ExecutorConfig{
		Transport: opts.Transport,
		Tokens:    opts.Tokens,
		Probe:     opts.Probe,
		Queue:     opts.Queue,
		Store:     opts.Store,
		Bus:       opts.Bus,
		Retrier:   NewRetrier(opts.MaxAttempts, opts.BaseDelay, opts.Metrics),
		Clock:     opts.Clock,
		Metrics:   opts.Metrics,
	})

	e.batcher = NewBatcher(opts.BatchWindow, opts.BatchThreshold, func() {
		if err := e.Flush(context.Background()); err != nil {
			e.log.Error().Err(err).Msg("scheduled flush failed")
		}
	})

	e.reconciler = newReconciler(e)

	if e.persist != nil {
		recs, err := e.persist.LoadAll(context.Background())
		if err != nil {
			return nil, fmt.Errorf("load persisted state: %w", err)
		}
		if len(recs) > 0 {
			e.store.Seed(recs)
		}
	}

	return e, nil
}

// Store exposes the local state store for read access (listing, inspection).
func (e *Engine) Store() *progress.StateStore {
	return e.store
}

// Record applies an edit optimistically and schedules it for sync. This is
// the only synchronous-guaranteed step; the caller is never exposed to
// network errors here.
func (e *Engine) Record(ctx context.Context, rec progress.Record) progress.Record {
	if rec.LocalTS == 0 {
		rec.LocalTS = e.clock.Now().UnixMilli()
	}
	if rec.Attempt <= 0 {
		rec.Attempt = 1
	}
	rec.State = progress.StatePending

	e.store.Apply(rec)
	e.persistState(ctx)

	// State moves to batched before the hand-off: a threshold flush may fire
	// from inside Record and must not be overwritten afterwards.
	e.store.SetState(rec.ItemKey, progress.StateBatched)
	e.batcher.Record(rec)
	return rec
}

// Flush forces immediate processing of the pending batch. It is idempotent:
// an empty batch is a no-op, and concurrent calls coalesce into a single
// flight so one batch is never flushed twice.
func (e *Engine) Flush(ctx context.Context) error {
	_, err, _ := e.flights.Do("flush", func() (any, error) {
		batch := e.batcher.Take()
		if len(batch) == 0 {
			return nil, nil
		}

		e.metrics.BatchesFlushed.Inc()
		e.bus.PublishBatchStarted(eventbus.BatchStartedPayload{Total: len(batch)})

		synced, err := e.exec.Save(ctx, batch)
		if err != nil {
			return nil, err
		}
		if synced {
			e.bus.PublishBatchCompleted(eventbus.BatchCompletedPayload{Total: len(batch)})
		}

		e.persistState(ctx)
		return nil, nil
	})
	return err
}

// Drain replays the outbox in order, removing each entry only after a
// confirmed acknowledgment. A failure mid-drain leaves the remaining entries
// queued for the next opportunity. Returns the number of drained entries.
func (e *Engine) Drain(ctx context.Context) (int, error) {
	ops, err := e.queue.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read outbox: %w", err)
	}

	drained := 0
	for _, op := range ops {
		if err := e.exec.SaveQueued(ctx, op); err != nil {
			e.exec.updateOutboxGauge(ctx)
			return drained, err
		}
		if err := e.queue.Remove(ctx, op.ID); err != nil {
			return drained, fmt.Errorf("remove drained entry %d: %w", op.ID, err)
		}
		drained++
	}

	if drained > 0 {
		e.persistState(ctx)
	}
	e.exec.updateOutboxGauge(ctx)
	return drained, nil
}

// ReconcileOnce runs a single reconciliation tick.
func (e *Engine) ReconcileOnce(ctx context.Context) error {
	return e.reconciler.tick(ctx)
}

// Run operates the engine until the context is cancelled: periodic
// reconciliation, outbox drain on reconnect, and a best-effort flush at
// shutdown.
func (e *Engine) Run(ctx context.Context) error {
	return e.reconciler.run(ctx)
}

// persistState saves a snapshot through the persistence hook. Persistence
// failures are logged, never surfaced: the in-memory state remains correct
// and the next mutation retries the snapshot.
func (e *Engine) persistState(ctx context.Context) {
	if e.persist == nil {
		return
	}
	if err := e.persist.SaveAll(ctx, e.store.Snapshot()); err != nil {
		e.log.Error().Err(err).Msg("failed to persist local state")
	}
}
