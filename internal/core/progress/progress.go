// Package progress defines the per-item progress domain model and the
// in-memory state store that holds the authoritative local view.
package progress

// SyncState tracks where a record sits in the save pipeline.
type SyncState string

const (
	// StatePending is set on every fresh local edit.
	StatePending SyncState = "pending"
	// StateBatched means the edit is held by the batcher awaiting a flush.
	StateBatched SyncState = "batched"
	// StateInFlight means a network save that includes the record is running.
	StateInFlight SyncState = "in_flight"
	// StateSynced means the remote store acknowledged the record.
	StateSynced SyncState = "synced"
	// StateQueuedOffline means the record sits in the durable outbox.
	StateQueuedOffline SyncState = "queued_offline"
)

// Record is the single source of truth for one item key. The state store
// holds exactly one Record per key: the most recently applied value, whether
// it arrived from a local edit or from reconciliation.
type Record struct {
	ItemKey string    `json:"itemKey"`
	Value   string    `json:"value"`
	Note    string    `json:"note,omitempty"`
	Attempt int       `json:"attempt"`
	LocalTS int64     `json:"localTimestamp"` // epoch milliseconds at the moment of edit
	State   SyncState `json:"syncState"`
}

// Remote is the shape returned by the load endpoint. It is merge input only
// and is always converted to a Record when applied.
type Remote struct {
	ItemKey   string `json:"itemKey"`
	Value     string `json:"value"`
	Note      string `json:"note,omitempty"`
	Attempt   int    `json:"attempt"`
	Timestamp int64  `json:"timestamp"`
}

// MergeResult reports whether a remote record actually replaced local state.
type MergeResult struct {
	Applied bool
}
