package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/librarium/apiserver/config"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "uploads")
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("ensure bucket: %v", err)
	}

	if err := store.Put(ctx, "cover-1.png", strings.NewReader("png-bytes"), 9, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	reader, err := store.Get(ctx, "cover-1.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(reader)
	_ = reader.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("content = %q, want png-bytes", data)
	}

	if err := store.Delete(ctx, "cover-1.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "cover-1.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "cover-1.png"); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for _, key := range []string{"../secret", "a/b", "..", ".hidden"} {
		if _, err := store.Get(context.Background(), key); err == nil || errors.Is(err, ErrNotFound) {
			t.Fatalf("key %q should be rejected, got %v", key, err)
		}
	}
}

func TestOpenLocalBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "objects")
	s, err := Open(context.Background(), config.StorageConfig{Backend: "local", LocalPath: dir})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Bucket() != dir {
		t.Fatalf("bucket = %q, want %q", s.Bucket(), dir)
	}
}
