package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/colonyops/relay/internal/core/eventbus"
	"github.com/colonyops/relay/internal/core/logging"
	"github.com/rs/zerolog"
)

// reconciler owns the periodic pull-and-merge cycle and the engine's daemon
// loop. Remote records are merged last-write-wins against local timestamps;
// the local copy is authoritative while edits are in flight.
type reconciler struct {
	engine  *Engine
	running atomic.Bool
	log     zerolog.Logger
}

func newReconciler(e *Engine) *reconciler {
	return &reconciler{
		engine: e,
		log:    logging.Component("reconciler"),
	}
}

// tick performs one reconciliation cycle. Overlapping ticks are skipped, not
// queued: a slow cycle must never stack a second one behind it.
func (r *reconciler) tick(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Debug().Msg("reconcile already in progress, skipping")
		return nil
	}
	defer r.running.Store(false)

	e := r.engine

	var since *time.Time
	if e.checkpoints != nil {
		last, ok, err := e.checkpoints.LastSync(ctx)
		if err != nil {
			return fmt.Errorf("read sync checkpoint: %w", err)
		}
		if ok {
			since = &last
		}
	}

	// Captured before the load so records changing mid-fetch fall into the
	// next window instead of being skipped.
	now := e.clock.Now()

	remotes, err := e.exec.Load(ctx, since)
	if err != nil {
		if errors.Is(err, ErrAuthMissing) {
			r.log.Debug().Msg("no token, skipping reconcile")
			return nil
		}
		return fmt.Errorf("load remote records: %w", err)
	}

	applied := 0
	for _, rem := range remotes {
		if res := e.store.MergeRemote(rem); res.Applied {
			applied++
		}
	}

	if applied > 0 {
		e.metrics.MergesApplied.Add(float64(applied))
		e.persistState(ctx)
	}
	e.bus.PublishRemoteMerged(eventbus.RemoteMergedPayload{Applied: applied, Total: len(remotes)})
	r.log.Debug().Int("total", len(remotes)).Int("applied", applied).Msg("reconcile cycle complete")

	if e.checkpoints != nil {
		if err := e.checkpoints.SetLastSync(ctx, now); err != nil {
			return fmt.Errorf("advance sync checkpoint: %w", err)
		}
	}
	return nil
}

// run is the daemon loop: drain the outbox when connectivity allows, then
// reconcile, on every interval tick until the context is cancelled. On
// shutdown any pending batch gets one best-effort flush on a short deadline.
func (r *reconciler) run(ctx context.Context) error {
	e := r.engine
	r.log.Info().Dur("interval", e.syncInterval).Msg("sync loop started")

	r.cycle(ctx)

	ticker := time.NewTicker(e.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.shutdownFlush()
			r.log.Info().Msg("sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			r.cycle(ctx)
		}
	}
}

// cycle runs one drain-then-reconcile pass. Failures are logged and the loop
// carries on; the next tick retries from durable state.
func (r *reconciler) cycle(ctx context.Context) {
	e := r.engine

	if !e.probe.Online(ctx) {
		r.log.Debug().Msg("offline, skipping sync cycle")
		return
	}

	if size, err := e.queue.Size(ctx); err == nil && size > 0 {
		drained, err := e.Drain(ctx)
		if err != nil {
			r.log.Warn().Err(err).Int("drained", drained).Msg("outbox drain interrupted")
		} else if drained > 0 {
			r.log.Info().Int("drained", drained).Msg("outbox drained")
		}
	}

	if err := r.tick(ctx); err != nil {
		r.log.Warn().Err(err).Msg("reconcile cycle failed")
	}
}

// shutdownFlush gives a pending batch one chance to reach the remote store
// before the process exits. The parent context is already cancelled, so this
// runs on its own short deadline; anything unsent lands in the outbox.
func (r *reconciler) shutdownFlush() {
	if r.engine.batcher.Len() == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.engine.Flush(ctx); err != nil {
		r.log.Warn().Err(err).Msg("shutdown flush failed")
	}
}
