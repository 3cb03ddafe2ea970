package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a history item id does not exist.
var ErrNotFound = errors.New("history item not found")

// HistoryRow is one saved history item as stored. Payload is the persisted
// snapshot JSON produced by the snapshot codec; the store does not interpret
// it beyond the indexed columns.
type HistoryRow struct {
	ID          string    // UUID assigned on save
	DisplayName string    // user-facing label
	Thumbnail   string    // hosted URL of the preview image
	Payload     []byte    // persisted snapshot JSON
	CreatedAt   time.Time // save timestamp
}

// Repository provides CRUD for the history_items table.
type Repository struct {
	db *Database
}

// NewRepository creates a Repository over an open Database.
func NewRepository(db *Database) *Repository {
	return &Repository{db: db}
}

// Insert stores one history item.
func (r *Repository) Insert(ctx context.Context, row HistoryRow) error {
	const query = `
		INSERT INTO history_items (id, display_name, thumbnail, payload, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.DB().ExecContext(ctx, query,
		row.ID, row.DisplayName, row.Thumbnail, row.Payload, row.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert history item: %w", err)
	}
	return nil
}

// List returns saved items, newest first, without payloads.
func (r *Repository) List(ctx context.Context, limit int) ([]HistoryRow, error) {
	const query = `
		SELECT id, display_name, thumbnail, created_at
		FROM history_items
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history items: %w", err)
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var row HistoryRow
		if err := rows.Scan(&row.ID, &row.DisplayName, &row.Thumbnail, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history item: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get returns one item with its payload.
func (r *Repository) Get(ctx context.Context, id string) (HistoryRow, error) {
	const query = `
		SELECT id, display_name, thumbnail, payload, created_at
		FROM history_items WHERE id = ?`
	var row HistoryRow
	err := r.db.DB().QueryRowContext(ctx, query, id).Scan(
		&row.ID, &row.DisplayName, &row.Thumbnail, &row.Payload, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryRow{}, ErrNotFound
	}
	if err != nil {
		return HistoryRow{}, fmt.Errorf("failed to load history item: %w", err)
	}
	return row, nil
}

// Delete removes one item.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB().ExecContext(ctx, `DELETE FROM history_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to confirm deletion: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of saved items.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM history_items`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history items: %w", err)
	}
	return count, nil
}

// EvictOldest deletes the n oldest items and returns how many went.
// Used to hold the store at its cap, oldest evicted first.
func (r *Repository) EvictOldest(ctx context.Context, n int) (int, error) {
	const query = `
		DELETE FROM history_items WHERE id IN (
			SELECT id FROM history_items
			ORDER BY created_at ASC, id ASC
			LIMIT ?
		)`
	result, err := r.db.DB().ExecContext(ctx, query, n)
	if err != nil {
		return 0, fmt.Errorf("failed to evict history items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to confirm eviction: %w", err)
	}
	return int(affected), nil
}
