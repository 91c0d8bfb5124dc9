package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_ApplyAndGet(t *testing.T) {
	store := NewStateStore()

	store.Apply(Record{ItemKey: "U1-L1-Q01", Value: "B", Attempt: 1, LocalTS: 1000, State: StatePending})

	rec, ok := store.Get("U1-L1-Q01")
	require.True(t, ok)
	assert.Equal(t, "B", rec.Value)
	assert.Equal(t, StatePending, rec.State)
}

func TestStateStore_ApplyOverwritesUnconditionally(t *testing.T) {
	store := NewStateStore()

	store.Apply(Record{ItemKey: "Q1", Value: "new", LocalTS: 200})
	// Older timestamp still wins: Apply is the optimistic path, the caller
	// already decided this edit should take effect.
	store.Apply(Record{ItemKey: "Q1", Value: "older", LocalTS: 100})

	rec, _ := store.Get("Q1")
	assert.Equal(t, "older", rec.Value)
}

func TestStateStore_MergeRemoteNewerWins(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "Q1", Value: "local", LocalTS: 100, State: StatePending})

	res := store.MergeRemote(Remote{ItemKey: "Q1", Value: "remote", Timestamp: 200})
	assert.True(t, res.Applied)

	rec, _ := store.Get("Q1")
	assert.Equal(t, "remote", rec.Value)
	assert.Equal(t, int64(200), rec.LocalTS)
	assert.Equal(t, StateSynced, rec.State)
}

func TestStateStore_MergeRemoteOlderIsNoop(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "Q1", Value: "local", LocalTS: 100})

	res := store.MergeRemote(Remote{ItemKey: "Q1", Value: "remote", Timestamp: 50})
	assert.False(t, res.Applied)

	rec, _ := store.Get("Q1")
	assert.Equal(t, "local", rec.Value)
}

func TestStateStore_MergeRemoteEqualTimestampKeepsLocal(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "Q1", Value: "local", LocalTS: 100})

	res := store.MergeRemote(Remote{ItemKey: "Q1", Value: "remote", Timestamp: 100})
	assert.False(t, res.Applied)

	rec, _ := store.Get("Q1")
	assert.Equal(t, "local", rec.Value)
}

func TestStateStore_MergeRemoteUnseenKeyApplies(t *testing.T) {
	store := NewStateStore()

	res := store.MergeRemote(Remote{ItemKey: "Q9", Value: "remote", Attempt: 2, Timestamp: 42})
	assert.True(t, res.Applied)

	rec, ok := store.Get("Q9")
	require.True(t, ok)
	assert.Equal(t, "remote", rec.Value)
	assert.Equal(t, 2, rec.Attempt)
}

func TestStateStore_MergeIsIdempotent(t *testing.T) {
	store := NewStateStore()
	remote := Remote{ItemKey: "Q1", Value: "remote", Timestamp: 200}

	assert.True(t, store.MergeRemote(remote).Applied)
	// Replaying the same remote record is a no-op: the stored timestamp is
	// no longer strictly older.
	assert.False(t, store.MergeRemote(remote).Applied)
}

func TestStateStore_SetState(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "Q1", Value: "v", LocalTS: 1, State: StatePending})

	store.SetState("Q1", StateSynced)
	rec, _ := store.Get("Q1")
	assert.Equal(t, StateSynced, rec.State)

	// Unknown keys are ignored.
	store.SetState("missing", StateSynced)
	assert.Equal(t, 1, store.Len())
}

func TestStateStore_SnapshotSorted(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "b", LocalTS: 1})
	store.Apply(Record{ItemKey: "a", LocalTS: 2})
	store.Apply(Record{ItemKey: "c", LocalTS: 3})

	snap := store.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "a", snap[0].ItemKey)
	assert.Equal(t, "b", snap[1].ItemKey)
	assert.Equal(t, "c", snap[2].ItemKey)
}

func TestStateStore_Seed(t *testing.T) {
	store := NewStateStore()
	store.Apply(Record{ItemKey: "old", LocalTS: 1})

	store.Seed([]Record{
		{ItemKey: "x", Value: "1", LocalTS: 10},
		{ItemKey: "y", Value: "2", LocalTS: 20},
	})

	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("old")
	assert.False(t, ok)
}
