package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Video struct {
	ID           string
	Title        string
	Filename     string
	OriginalName string
	ContentType  string
	Size         int64
	LastModified int64
	UploadTime   time.Time
}

func NewVideo(title, filename, originalName, contentType string, size, lastModified int64) *Video {
	return &Video{
		ID:           uuid.New().String(),
		Title:        title,
		Filename:     filename,
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		LastModified: lastModified,
		UploadTime:   time.Now(),
	}
}

// Identity is the content-agnostic cache key for a selected file. It is
// stable across reselection of the same file and computable without reading
// file contents.
func (v *Video) Identity() string {
	return FileIdentity(v.OriginalName, v.Size, v.LastModified)
}

func FileIdentity(name string, size, lastModified int64) string {
	return fmt.Sprintf("%s|%d|%d", name, size, lastModified)
}
