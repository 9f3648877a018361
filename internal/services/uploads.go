package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

const (
	maxImageBytes = 10 << 20
	maxPDFBytes   = 50 << 20

	// UploadsPath is the public URL prefix under which stored objects are served.
	UploadsPath = "/uploads/"
)

// imageExtensions lists the accepted image types and the extension their
// stored objects get. The client filename never picks the extension.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore persists uploaded files.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u Upload) reader() io.Reader {
	return bytes.NewReader(u.Data)
}

func (u Upload) size() int64 {
	return int64(len(u.Data))
}

func (u Upload) mediaType() string {
	mediaType, _, _ := strings.Cut(u.ContentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// imageExtension is only meaningful after requireImage succeeded.
func (u Upload) imageExtension() string {
	return imageExtensions[u.mediaType()]
}

func (u Upload) requireImage(field string, limit int) error {
	if len(u.Data) == 0 {
		return invalid("%s is required", field)
	}
	if _, ok := imageExtensions[u.mediaType()]; !ok {
		return invalid("%s must be a JPEG, PNG, GIF or WebP image", field)
	}
	if len(u.Data) > limit {
		return invalid("%s exceeds %d MB", field, limit>>20)
	}
	return nil
}

func (u Upload) requirePDF(field string, limit int) error {
	if len(u.Data) == 0 {
		return invalid("%s is required", field)
	}
	if u.mediaType() != "application/pdf" || !bytes.HasPrefix(u.Data, []byte("%PDF-")) {
		return invalid("%s must be a PDF document", field)
	}
	if len(u.Data) > limit {
		return invalid("%s exceeds %d MB", field, limit>>20)
	}
	return nil
}

func uploadKey(prefix, ext string) string {
	return prefix + "-" + uuid.NewString() + ext
}

// UploadURL returns the public URL of a stored object.
func UploadURL(key string) string {
	return UploadsPath + key
}

// UploadKeyFromURL extracts the object key from a public URL. It reports
// false for URLs that were not produced by UploadURL.
func UploadKeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, UploadsPath)
	if !ok || key == "" || strings.HasPrefix(key, ".") || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

// removeUpload deletes a stored object best effort.
func removeUpload(ctx context.Context, objects ObjectStore, url string) {
	key, ok := UploadKeyFromURL(url)
	if !ok {
		return
	}
	if err := objects.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "failed to remove upload", "key", key, "error", err)
	}
}
