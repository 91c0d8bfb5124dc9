package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/relay/internal/core/auth"
	"github.com/colonyops/relay/internal/core/eventbus"
	"github.com/colonyops/relay/internal/core/logging"
	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/core/progress"
)

// Executor performs the save/load network operations. On precondition
// failure (offline, no token) or exhausted retries it delegates to the
// offline outbox; a save is never dropped.
type Executor struct {
	transport Transport
	tokens    auth.TokenProvider
	probe     ConnectivityProbe
	queue     outbox.Queue
	store     *progress.StateStore
	bus       *eventbus.EventBus
	retrier   *Retrier
	clock     Clock
	metrics   *Metrics
	log       zerolog.Logger
}

// ExecutorConfig holds the executor's collaborators. A struct because nine
// fields is too many for positional parameters.
type ExecutorConfig struct {
	Transport Transport
	Tokens    auth.TokenProvider
	Probe     ConnectivityProbe
	Queue     outbox.Queue
	Store     *progress.StateStore
	Bus       *eventbus.EventBus
	Retrier   *Retrier
	Clock     Clock
	Metrics   *Metrics
}

// NewExecutor creates an executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	return &Executor{
		transport: cfg.Transport,
		tokens:    cfg.Tokens,
		probe:     cfg.Probe,
		queue:     cfg.Queue,
		store:     cfg.Store,
		bus:       cfg.Bus,
		retrier:   cfg.Retrier,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
		log:       logging.Component("executor"),
	}
}

// Save transmits a batch. Returns whether the remote store acknowledged it;
// when false (and err is nil) every record was queued for later instead. The
// error reports only local failures, never network ones.
func (e *Executor) Save(ctx context.Context, batch []progress.Record) (synced bool, err error) {
	if len(batch) == 0 {
		return false, nil
	}

	if !e.probe.Online(ctx) {
		e.log.Info().Int("count", len(batch)).Msg("offline, queueing batch")
		return false, e.queueAll(ctx, batch)
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		// Auth absence is a precondition failure, handled like offline.
		e.log.Info().Int("count", len(batch)).Msg("no token, queueing batch")
		return false, e.queueAll(ctx, batch)
	}

	count := len(batch)
	e.bus.PublishSyncStarted(eventbus.SyncStartedPayload{Count: count})
	e.setStates(batch, progress.StateInFlight)

	err = e.retrier.Do(ctx, "save batch", func(ctx context.Context) error {
		return e.transport.SaveBatch(ctx, token, batch)
	})
	if err != nil {
		e.metrics.SyncErrors.Inc()
		e.bus.PublishSyncFailed(eventbus.SyncFailedPayload{Err: err, Count: count})
		e.log.Warn().Err(err).Int("count", count).Msg("save exhausted retries, queueing batch")
		return false, e.queueAll(ctx, batch)
	}

	e.setStates(batch, progress.StateSynced)
	e.metrics.RecordsSynced.Add(float64(count))
	e.bus.PublishSyncSucceeded(eventbus.SyncSucceededPayload{Count: count})
	return true, nil
}

// SaveQueued replays one outbox operation. Unlike Save it does not re-enqueue
// on failure: the operation is already durable, and the caller stops the
// drain so the remaining entries wait for the next opportunity.
func (e *Executor) SaveQueued(ctx context.Context, op outbox.Operation) error {
	if !e.probe.Online(ctx) {
		return ErrOffline
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		return ErrAuthMissing
	}

	err = e.retrier.Do(ctx, "replay queued save", func(ctx context.Context) error {
		return e.transport.SaveProgress(ctx, token, op.Payload)
	})
	if err != nil {
		return fmt.Errorf("replay %q: %w", op.Payload.ItemKey, err)
	}

	// Mark synced only if no newer local edit superseded the snapshot.
	if cur, ok := e.store.Get(op.Payload.ItemKey); ok && cur.LocalTS == op.Payload.LocalTS {
		e.store.SetState(op.Payload.ItemKey, progress.StateSynced)
	}
	e.metrics.RecordsSynced.Inc()
	return nil
}

// Load fetches remote records changed since the given time. Failure is
// non-fatal: the reconciler simply skips the cycle and retries the same
// window on its own schedule, so there is no retry here.
func (e *Executor) Load(ctx context.Context, since *time.Time) ([]progress.Remote, error) {
	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, ErrAuthMissing
	}
	return e.transport.Load(ctx, token, since)
}

func (e *Executor) queueAll(ctx context.Context, batch []progress.Record) error {
	now := e.clock.Now().UnixMilli()

	for _, rec := range batch {
		rec.State = progress.StateQueuedOffline
		_, err := e.queue.Enqueue(ctx, outbox.Operation{
			Kind:     outbox.KindSave,
			Payload:  rec,
			QueuedAt: now,
		})
		if err != nil {
			return fmt.Errorf("enqueue %q: %w", rec.ItemKey, err)
		}

		e.store.SetState(rec.ItemKey, progress.StateQueuedOffline)
		e.metrics.OfflineQueued.Inc()
		e.bus.PublishOfflineQueued(eventbus.OfflineQueuedPayload{ItemKey: rec.ItemKey})
	}

	e.updateOutboxGauge(ctx)
	return nil
}

func (e *Executor) setStates(batch []progress.Record, state progress.SyncState) {
	for _, rec := range batch {
		e.store.SetState(rec.ItemKey, state)
	}
}

func (e *Executor) updateOutboxGauge(ctx context.Context) {
	if size, err := e.queue.Size(ctx); err == nil {
		e.metrics.OutboxSize.Set(float64(size))
	}
}
