package store

import (
	"context"
	"database/sql"
	"time"
)

// GalleryEntry is a highlight promoted to durable storage. It carries the raw
// clip bytes since playback references do not survive a session.
type GalleryEntry struct {
	Identity         string
	TimestampSeconds float64
	FileName         string
	Description      string
	ClipName         string
	ClipData         []byte
	CreatedAt        time.Time
}

// GalleryRepo stores saved clips keyed by file identity plus timestamp.
// Unlike history it is unbounded; removal is explicit.
type GalleryRepo struct {
	db *DB
}

func NewGalleryRepo(db *DB) *GalleryRepo {
	return &GalleryRepo{db: db}
}

// Save inserts or replaces the entry for its composite key.
func (r *GalleryRepo) Save(ctx context.Context, entry GalleryEntry) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "gallery save", Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		r.db.rebind(`DELETE FROM gallery WHERE identity = ? AND timestamp_seconds = ?`),
		entry.Identity, entry.TimestampSeconds); err != nil {
		return &StorageError{Op: "gallery save", Err: err}
	}

	if _, err := tx.ExecContext(ctx,
		r.db.rebind(`INSERT INTO gallery (identity, timestamp_seconds, file_name, description, clip_name, clip_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		entry.Identity, entry.TimestampSeconds, entry.FileName, entry.Description,
		entry.ClipName, entry.ClipData, entry.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return &StorageError{Op: "gallery save", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "gallery save", Err: err}
	}
	return nil
}

// Get returns one entry with its clip bytes, or nil when absent.
func (r *GalleryRepo) Get(ctx context.Context, identity string, timestampSeconds float64) (*GalleryEntry, error) {
	row := r.db.conn.QueryRowContext(ctx,
		r.db.rebind(`SELECT identity, timestamp_seconds, file_name, description, clip_name, clip_data, created_at
		 FROM gallery WHERE identity = ? AND timestamp_seconds = ?`),
		identity, timestampSeconds)

	entry, err := scanGalleryEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "gallery get", Err: err}
	}
	return entry, nil
}

// List returns saved entries newest first, clip bytes omitted to keep
// listings cheap.
func (r *GalleryRepo) List(ctx context.Context) ([]GalleryEntry, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT identity, timestamp_seconds, file_name, description, clip_name, created_at
		 FROM gallery ORDER BY created_at DESC`)
	if err != nil {
		return nil, &StorageError{Op: "gallery list", Err: err}
	}
	defer rows.Close()

	var entries []GalleryEntry
	for rows.Next() {
		var entry GalleryEntry
		var createdAt string
		if err := rows.Scan(&entry.Identity, &entry.TimestampSeconds, &entry.FileName,
			&entry.Description, &entry.ClipName, &createdAt); err != nil {
			return nil, &StorageError{Op: "gallery list", Err: err}
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Delete removes an entry immediately.
func (r *GalleryRepo) Delete(ctx context.Context, identity string, timestampSeconds float64) error {
	if _, err := r.db.conn.ExecContext(ctx,
		r.db.rebind(`DELETE FROM gallery WHERE identity = ? AND timestamp_seconds = ?`),
		identity, timestampSeconds); err != nil {
		return &StorageError{Op: "gallery delete", Err: err}
	}
	return nil
}

func scanGalleryEntry(row *sql.Row) (*GalleryEntry, error) {
	var entry GalleryEntry
	var createdAt string
	err := row.Scan(&entry.Identity, &entry.TimestampSeconds, &entry.FileName,
		&entry.Description, &entry.ClipName, &entry.ClipData, &createdAt)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &entry, nil
}
