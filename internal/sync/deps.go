// Package sync implements the progress synchronization engine: the optimistic
// local write path, the save debouncer/batcher, the retrying executor, the
// durable offline outbox replay, and the periodic last-write-wins reconciler.
package sync

import (
	"context"
	"time"

	"github.com/colonyops/relay/internal/core/progress"
)

// Transport performs the network operations against the remote progress
// store. Satisfied by *remote.Client.
type Transport interface {
	SaveProgress(ctx context.Context, token string, rec progress.Record) error
	SaveBatch(ctx context.Context, token string, recs []progress.Record) error
	Load(ctx context.Context, token string, since *time.Time) ([]progress.Remote, error)
}

// ConnectivityProbe reports whether the device currently has a usable path to
// the remote store. Satisfied by *remote.PingProbe.
type ConnectivityProbe interface {
	Online(ctx context.Context) bool
}

// Persistence is the hook that saves the local state store to durable storage
// after every mutation, so progress survives a restart independent of network
// sync. Satisfied by *stores.StateStore.
type Persistence interface {
	SaveAll(ctx context.Context, recs []progress.Record) error
	LoadAll(ctx context.Context) ([]progress.Record, error)
}

// CheckpointStore persists the reconciliation watermark. Satisfied by
// *stores.CheckpointStore.
type CheckpointStore interface {
	LastSync(ctx context.Context) (time.Time, bool, error)
	SetLastSync(ctx context.Context, t time.Time) error
}

// Clock supplies the current time. Injected so tests control timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
