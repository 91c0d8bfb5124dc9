package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/colonyops/relay/internal/data/db"
)

// KVStore is a small JSON-valued key/value table for sync metadata.
type KVStore struct {
	db *db.DB
}

// NewKVStore creates a SQLite-backed KV store.
func NewKVStore(database *db.DB) *KVStore {
	return &KVStore{db: database}
}

// Get retrieves and deserializes a value by key.
// Returns an error wrapping sql.ErrNoRows if the key does not exist.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	var value string
	err := s.db.Conn().QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(value), dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value, replacing any existing one.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

const keyLastSync = "last_successful_sync"

// CheckpointStore persists the reconciliation checkpoint on top of the KV table.
type CheckpointStore struct {
	kv *KVStore
}

// NewCheckpointStore creates a checkpoint store.
func NewCheckpointStore(kv *KVStore) *CheckpointStore {
	return &CheckpointStore{kv: kv}
}

// LastSync returns the last successful reconciliation time. ok is false when
// no checkpoint has been recorded yet (first run requests the full remote set).
func (s *CheckpointStore) LastSync(ctx context.Context) (t time.Time, ok bool, err error) {
	var millis int64
	err = s.kv.Get(ctx, keyLastSync, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(millis), true, nil
}

// SetLastSync records the checkpoint.
func (s *CheckpointStore) SetLastSync(ctx context.Context, t time.Time) error {
	return s.kv.Set(ctx, keyLastSync, t.UnixMilli())
}
