package stores

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/core/progress"
	"github.com/colonyops/relay/internal/data/db"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestOutbox(t *testing.T, maxSize int) *OutboxStore {
	t.Helper()
	return NewOutboxStore(newTestDB(t), maxSize)
}

func saveOp(key string, queuedAt int64) outbox.Operation {
	return outbox.Operation{
		Kind: outbox.KindSave,
		Payload: progress.Record{
			ItemKey: key,
			Value:   "A",
			Attempt: 1,
			LocalTS: queuedAt,
			State:   progress.StateQueuedOffline,
		},
		QueuedAt: queuedAt,
	}
}

func TestOutboxStore_EnqueueAndGetAll(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 10)

	id1, err := store.Enqueue(ctx, saveOp("Q1", 100))
	require.NoError(t, err)
	id2, err := store.Enqueue(ctx, saveOp("Q2", 200))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	ops, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "Q1", ops[0].Payload.ItemKey)
	assert.Equal(t, "Q2", ops[1].Payload.ItemKey)
	assert.Equal(t, outbox.KindSave, ops[0].Kind)
	assert.Equal(t, progress.StateQueuedOffline, ops[0].Payload.State)
}

func TestOutboxStore_OrderedByQueuedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 10)

	_, err := store.Enqueue(ctx, saveOp("later", 300))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, saveOp("earlier", 100))
	require.NoError(t, err)

	ops, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "earlier", ops[0].Payload.ItemKey)
	assert.Equal(t, "later", ops[1].Payload.ItemKey)
}

func TestOutboxStore_EvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 100)

	for i := 0; i < 100; i++ {
		_, err := store.Enqueue(ctx, saveOp(fmt.Sprintf("Q%03d", i), int64(1000+i)))
		require.NoError(t, err)
	}

	size, err := store.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, 100, size)

	// The 101st enqueue evicts exactly the entry with the smallest queued_at.
	_, err = store.Enqueue(ctx, saveOp("newest", 9999))
	require.NoError(t, err)

	size, err = store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, size)

	ops, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Q001", ops[0].Payload.ItemKey, "oldest entry Q000 should be gone")
	assert.Equal(t, "newest", ops[len(ops)-1].Payload.ItemKey)
}

func TestOutboxStore_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 10)

	id, err := store.Enqueue(ctx, saveOp("Q1", 100))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, id))
	// Removing again, and removing an id that never existed, are no-ops.
	require.NoError(t, store.Remove(ctx, id))
	require.NoError(t, store.Remove(ctx, 424242))

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestOutboxStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 10)

	for i := 0; i < 3; i++ {
		_, err := store.Enqueue(ctx, saveOp(fmt.Sprintf("Q%d", i), int64(i)))
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx))

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestOutboxStore_PayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestOutbox(t, 10)

	op := outbox.Operation{
		Kind: outbox.KindSave,
		Payload: progress.Record{
			ItemKey: "U1-L1-Q01",
			Value:   "C",
			Note:    "changed",
			Attempt: 2,
			LocalTS: 1500,
			State:   progress.StateQueuedOffline,
		},
		QueuedAt: 1500,
	}

	_, err := store.Enqueue(ctx, op)
	require.NoError(t, err)

	ops, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, op.Payload, ops[0].Payload)
}
