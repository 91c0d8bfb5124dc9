package stores

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/colonyops/relay/internal/core/outbox"
	"github.com/colonyops/relay/internal/core/progress"
	"github.com/colonyops/relay/internal/data/db"
)

// OutboxStore implements outbox.Queue using SQLite. Capacity is bounded:
// enqueueing into a full queue evicts the entry with the smallest queued_at
// inside the same transaction, so the bound holds under concurrent replay.
type OutboxStore struct {
	db      *db.DB
	maxSize int
}

var _ outbox.Queue = (*OutboxStore)(nil)

// NewOutboxStore creates a SQLite-backed outbox with the given capacity.
func NewOutboxStore(database *db.DB, maxSize int) *OutboxStore {
	return &OutboxStore{db: database, maxSize: maxSize}
}

// Enqueue appends an operation, evicting the oldest entry first when at capacity.
func (s *OutboxStore) Enqueue(ctx context.Context, op outbox.Operation) (int64, error) {
	payload, err := json.Marshal(op.Payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	var id int64
	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM outbox").Scan(&count); err != nil {
			return fmt.Errorf("failed to count outbox: %w", err)
		}

		if count >= s.maxSize {
			// Bounded, lossy under sustained failure: drop oldest by queued_at.
			_, err := tx.ExecContext(ctx, `
				DELETE FROM outbox WHERE id IN (
					SELECT id FROM outbox ORDER BY queued_at ASC, id ASC LIMIT 1
				)`)
			if err != nil {
				return fmt.Errorf("failed to evict oldest entry: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO outbox (kind, payload, queued_at) VALUES (?, ?, ?)",
			string(op.Kind), string(payload), op.QueuedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert operation: %w", err)
		}

		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetAll returns every queued operation ordered by queued_at ascending.
func (s *OutboxStore) GetAll(ctx context.Context) ([]outbox.Operation, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT id, kind, payload, queued_at FROM outbox ORDER BY queued_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []outbox.Operation
	for rows.Next() {
		var (
			op      outbox.Operation
			kind    string
			payload string
		)
		if err := rows.Scan(&op.ID, &kind, &payload, &op.QueuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}

		var rec progress.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payload for id %d: %w", op.ID, err)
		}

		op.Kind = outbox.Kind(kind)
		op.Payload = rec
		ops = append(ops, op)
	}

	return ops, rows.Err()
}

// Remove deletes an entry by ID. Removing a missing ID is a no-op.
func (s *OutboxStore) Remove(ctx context.Context, id int64) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM outbox WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to remove operation %d: %w", id, err)
	}
	return nil
}

// Clear removes all entries.
func (s *OutboxStore) Clear(ctx context.Context) error {
	if _, err := s.db.Conn().ExecContext(ctx, "DELETE FROM outbox"); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}

// Size returns the current number of entries.
func (s *OutboxStore) Size(ctx context.Context) (int, error) {
	var count int
	if err := s.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM outbox").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return count, nil
}
