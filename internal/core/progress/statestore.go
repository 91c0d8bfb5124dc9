package progress

import (
	"sort"
	"sync"
)

// StateStore is the in-process local state store. All mutation paths (the
// optimistic write and the reconciliation merge) go through it, and it
// serializes them behind a single mutex so no two read-decide-write sequences
// for the same item can interleave.
type StateStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{records: make(map[string]Record)}
}

// Apply writes a record unconditionally. This is the optimistic-update path:
// the caller has already decided this edit wins locally.
func (s *StateStore) Apply(rec Record) {
	s.mu.Lock()
	s.records[rec.ItemKey] = rec
	s.mu.Unlock()
}

// Get returns the record for a key, if one exists.
func (s *StateStore) Get(itemKey string) (Record, bool) {
	s.mu.RLock()
	rec, ok := s.records[itemKey]
	s.mu.RUnlock()
	return rec, ok
}

// MergeRemote applies a remote record only if its timestamp is strictly newer
// than the local one. Equal timestamps keep the local value. This single rule
// is the entire conflict policy (last-write-wins by timestamp).
func (s *StateStore) MergeRemote(r Remote) MergeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if local, ok := s.records[r.ItemKey]; ok && r.Timestamp <= local.LocalTS {
		return MergeResult{Applied: false}
	}

	s.records[r.ItemKey] = Record{
		ItemKey: r.ItemKey,
		Value:   r.Value,
		Note:    r.Note,
		Attempt: r.Attempt,
		LocalTS: r.Timestamp,
		State:   StateSynced,
	}
	return MergeResult{Applied: true}
}

// SetState updates the sync state of an existing record. Unknown keys are
// ignored; the record may have been superseded since the caller snapshot it.
func (s *StateStore) SetState(itemKey string, state SyncState) {
	s.mu.Lock()
	if rec, ok := s.records[itemKey]; ok {
		rec.State = state
		s.records[itemKey] = rec
	}
	s.mu.Unlock()
}

// Seed replaces the store contents with previously persisted records.
// Used once at startup before the engine starts accepting edits.
func (s *StateStore) Seed(recs []Record) {
	s.mu.Lock()
	s.records = make(map[string]Record, len(recs))
	for _, rec := range recs {
		s.records[rec.ItemKey] = rec
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of all records sorted by item key.
func (s *StateStore) Snapshot() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ItemKey < out[j].ItemKey })
	return out
}

// Len returns the number of tracked items.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
