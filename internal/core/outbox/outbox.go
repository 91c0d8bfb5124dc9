// Package outbox defines the durable offline queue contract: a bounded FIFO
// of not-yet-acknowledged operations, independent of network state.
package outbox

import (
	"context"

	"github.com/colonyops/relay/internal/core/progress"
)

// Kind identifies the operation type carried by a queue entry.
type Kind string

// KindSave is currently the only operation kind. The enum exists so replay
// can dispatch on kind when more operations are added.
const KindSave Kind = "save"

// Operation is one durable outbox entry. IDs are assigned by the store and
// increase monotonically.
type Operation struct {
	ID       int64           `json:"id"`
	Kind     Kind            `json:"kind"`
	Payload  progress.Record `json:"payload"`
	QueuedAt int64           `json:"queuedAt"` // epoch milliseconds
}

// Queue is a bounded durable FIFO ordered by QueuedAt. When full, the entry
// with the smallest QueuedAt is evicted to admit a new one; losing the oldest
// entry under sustained failure is a deliberate backpressure choice.
//
// Implementations must be safe to call concurrently with their own replay.
type Queue interface {
	// Enqueue appends an operation, evicting the oldest entry first if the
	// queue is at capacity. Returns the assigned ID.
	Enqueue(ctx context.Context, op Operation) (int64, error)

	// GetAll returns every queued operation ordered by QueuedAt ascending.
	GetAll(ctx context.Context) ([]Operation, error)

	// Remove deletes an entry by ID. Removing a missing ID is a no-op.
	Remove(ctx context.Context, id int64) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Size returns the current number of entries.
	Size(ctx context.Context) (int, error)
}
