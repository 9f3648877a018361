package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/internal/storage"
)

// ObjectReader opens stored uploads.
type ObjectReader interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// UploadsRouter serves stored covers, PDFs and profile photos.
func UploadsRouter(r chi.Router, objects ObjectReader) {
	r.Get("/{key}", serveUpload(objects))
}

func serveUpload(objects ObjectReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, ok := services.UploadKeyFromURL(services.UploadURL(chi.URLParam(r, "key")))
		if !ok {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}

		reader, err := objects.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, "file not found")
				return
			}
			writeServiceError(w, r, err)
			return
		}
		defer reader.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, reader)
	}
}
