// Package blobs stores binary media outside the entity store. Uploads return
// an opaque reference; deletes are idempotent and tolerate missing objects.
package blobs

import (
	"context"
	"errors"
	"mime"
	"path/filepath"
	"strings"
)

// Asset describes an uploaded blob. Duration is set for video files when a
// prober is configured and zero otherwise.
type Asset struct {
	Ref      string
	Duration float64
}

// Store uploads and deletes blobs.
type Store interface {
	// Upload moves the file at localPath into the store. The local file is
	// removed whether or not the upload succeeds.
	Upload(ctx context.Context, localPath string) (Asset, error)
	Remover
}

// Remover deletes blobs by reference. Deleting an unknown or empty reference
// is a no-op.
type Remover interface {
	Delete(ctx context.Context, ref string) error
}

var (
	// ErrEmptyPath is returned when Upload is called without a file.
	ErrEmptyPath = errors.New("blob upload: empty path")
	// ErrClosed is returned when work is submitted to a stopped reaper.
	ErrClosed = errors.New("blob reaper closed")
)

var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func isVideo(path string) bool {
	_, ok := videoTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}
