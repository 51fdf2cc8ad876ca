package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kdimtricp/replaycut/internal/models"
)

// MaxHistoryEntries bounds the analysis history; inserting beyond it evicts
// the oldest entries by write order.
const MaxHistoryEntries = 10

type HistoryEntry struct {
	Identity  string
	FileName  string
	CreatedAt time.Time
	Result    models.AnalysisResult
}

// HistoryRepo is the result cache: one entry per file identity, bounded
// count, most-recently-written wins.
type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Get returns the cached result for identity, or nil on a miss.
func (r *HistoryRepo) Get(ctx context.Context, identity string) (*models.AnalysisResult, error) {
	var resultJSON string
	err := r.db.conn.QueryRowContext(ctx,
		r.db.rebind(`SELECT result FROM history WHERE identity = ?`), identity).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "history get", Err: err}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, &StorageError{Op: "history get", Err: fmt.Errorf("corrupt entry: %w", err)}
	}
	return &result, nil
}

// Put inserts or replaces the entry for its identity as a full-entry write,
// then evicts entries beyond MaxHistoryEntries, oldest first.
func (r *HistoryRepo) Put(ctx context.Context, entry HistoryEntry) error {
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return &StorageError{Op: "history put", Err: err}
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "history put", Err: err}
	}
	defer tx.Rollback()

	// Full-entry replace: the old row goes away entirely so a reanalyzed
	// video takes a fresh slot in write order.
	if _, err := tx.ExecContext(ctx,
		r.db.rebind(`DELETE FROM history WHERE identity = ?`), entry.Identity); err != nil {
		return &StorageError{Op: "history put", Err: err}
	}

	if _, err := tx.ExecContext(ctx,
		r.db.rebind(`INSERT INTO history (identity, file_name, result, created_at) VALUES (?, ?, ?, ?)`),
		entry.Identity, entry.FileName, string(resultJSON), entry.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return &StorageError{Op: "history put", Err: err}
	}

	if _, err := tx.ExecContext(ctx,
		r.db.rebind(`DELETE FROM history WHERE seq NOT IN (
			SELECT seq FROM history ORDER BY seq DESC LIMIT ?
		)`), MaxHistoryEntries); err != nil {
		return &StorageError{Op: "history put", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "history put", Err: err}
	}
	return nil
}

// List returns history entries newest first, without clip data (clips are
// regenerated per session).
func (r *HistoryRepo) List(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT identity, file_name, result, created_at FROM history ORDER BY seq DESC`)
	if err != nil {
		return nil, &StorageError{Op: "history list", Err: err}
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var resultJSON, createdAt string
		if err := rows.Scan(&entry.Identity, &entry.FileName, &resultJSON, &createdAt); err != nil {
			return nil, &StorageError{Op: "history list", Err: err}
		}
		if err := json.Unmarshal([]byte(resultJSON), &entry.Result); err != nil {
			return nil, &StorageError{Op: "history list", Err: fmt.Errorf("corrupt entry: %w", err)}
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Count returns the number of cached entries.
func (r *HistoryRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&count); err != nil {
		return 0, &StorageError{Op: "history count", Err: err}
	}
	return count, nil
}

// Delete removes an entry explicitly.
func (r *HistoryRepo) Delete(ctx context.Context, identity string) error {
	if _, err := r.db.conn.ExecContext(ctx,
		r.db.rebind(`DELETE FROM history WHERE identity = ?`), identity); err != nil {
		return &StorageError{Op: "history delete", Err: err}
	}
	return nil
}
