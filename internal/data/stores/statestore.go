package stores

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/colonyops/relay/internal/core/progress"
	"github.com/colonyops/relay/internal/data/db"
)

// StateStore persists snapshots of the in-memory progress state so local
// edits survive a process restart independent of network sync.
type StateStore struct {
	db *db.DB
}

// NewStateStore creates a SQLite-backed progress snapshot store.
func NewStateStore(database *db.DB) *StateStore {
	return &StateStore{db: database}
}

// SaveAll upserts every record in one transaction.
func (s *StateStore) SaveAll(ctx context.Context, recs []progress.Record) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO progress (item_key, value, note, attempt, local_ts, sync_state)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (item_key) DO UPDATE SET
					value      = excluded.value,
					note       = excluded.note,
					attempt    = excluded.attempt,
					local_ts   = excluded.local_ts,
					sync_state = excluded.sync_state`,
				rec.ItemKey, rec.Value, rec.Note, rec.Attempt, rec.LocalTS, string(rec.State),
			)
			if err != nil {
				return fmt.Errorf("failed to save record %q: %w", rec.ItemKey, err)
			}
		}
		return nil
	})
}

// LoadAll returns every persisted record ordered by item key.
func (s *StateStore) LoadAll(ctx context.Context) ([]progress.Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT item_key, value, note, attempt, local_ts, sync_state FROM progress ORDER BY item_key ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []progress.Record
	for rows.Next() {
		var (
			rec   progress.Record
			state string
		)
		if err := rows.Scan(&rec.ItemKey, &rec.Value, &rec.Note, &rec.Attempt, &rec.LocalTS, &state); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.State = progress.SyncState(state)
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
