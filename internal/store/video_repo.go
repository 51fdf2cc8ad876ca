package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kdimtricp/replaycut/internal/models"
)

type VideoRepo struct {
	db *DB
}

func NewVideoRepo(db *DB) *VideoRepo {
	return &VideoRepo{db: db}
}

func (r *VideoRepo) Insert(ctx context.Context, video *models.Video) error {
	_, err := r.db.conn.ExecContext(ctx,
		r.db.rebind(`INSERT INTO videos (id, title, filename, original_name, content_type, size, last_modified, upload_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		video.ID, video.Title, video.Filename, video.OriginalName, video.ContentType,
		video.Size, video.LastModified, video.UploadTime.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert video: %w", err)
	}
	return nil
}

func (r *VideoRepo) GetByID(ctx context.Context, id string) (*models.Video, error) {
	row := r.db.conn.QueryRowContext(ctx,
		r.db.rebind(`SELECT id, title, filename, original_name, content_type, size, last_modified, upload_time
		 FROM videos WHERE id = ?`), id)

	video, err := scanVideo(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

func (r *VideoRepo) List(ctx context.Context) ([]models.Video, error) {
	return r.query(ctx,
		`SELECT id, title, filename, original_name, content_type, size, last_modified, upload_time
		 FROM videos ORDER BY upload_time DESC`)
}

func (r *VideoRepo) Search(ctx context.Context, query string) ([]models.Video, error) {
	if query == "" {
		return r.List(ctx)
	}

	pattern := "%" + query + "%"
	return r.query(ctx,
		`SELECT id, title, filename, original_name, content_type, size, last_modified, upload_time
		 FROM videos WHERE LOWER(title) LIKE LOWER(?) ORDER BY upload_time DESC LIMIT 20`, pattern)
}

func (r *VideoRepo) query(ctx context.Context, q string, args ...any) ([]models.Video, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		var uploadTime string
		if err := rows.Scan(&v.ID, &v.Title, &v.Filename, &v.OriginalName,
			&v.ContentType, &v.Size, &v.LastModified, &uploadTime); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		v.UploadTime, _ = time.Parse(time.RFC3339Nano, uploadTime)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func scanVideo(row *sql.Row) (*models.Video, error) {
	var v models.Video
	var uploadTime string
	err := row.Scan(&v.ID, &v.Title, &v.Filename, &v.OriginalName,
		&v.ContentType, &v.Size, &v.LastModified, &uploadTime)
	if err != nil {
		return nil, err
	}
	v.UploadTime, _ = time.Parse(time.RFC3339Nano, uploadTime)
	return &v, nil
}
