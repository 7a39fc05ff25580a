package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalog/internal/domain"
)

func newTestStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()

	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/images")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s, dir
}

func TestLocalStorage_PutGetRoundTrip(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	key, err := s.Put(ctx, "images/1/photo.jpg", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "images/1/photo.jpg" {
		t.Errorf("Put returned key %q", key)
	}

	f, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("got %q, want %q", data, "payload")
	}
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	s, dir := newTestStorage(t)
	ctx := context.Background()

	outside := filepath.Join(dir, "..", "victim.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	keys := []string{
		"../victim.txt",
		"images/../../victim.txt",
		"..",
	}

	for _, key := range keys {
		if _, err := s.Put(ctx, key, strings.NewReader("x")); domain.ErrorCode(err) != domain.ESECURITY {
			t.Errorf("Put(%q) error = %v, want ESECURITY", key, err)
		}
		if _, err := s.Get(ctx, key); domain.ErrorCode(err) != domain.ESECURITY {
			t.Errorf("Get(%q) error = %v, want ESECURITY", key, err)
		}
		if err := s.Delete(ctx, key); domain.ErrorCode(err) != domain.ESECURITY {
			t.Errorf("Delete(%q) error = %v, want ESECURITY", key, err)
		}
	}

	// The escaping Put attempts must not have touched the outside file.
	data, err := os.ReadFile(outside)
	if err != nil || string(data) != "secret" {
		t.Errorf("file outside the root was modified: %q, %v", data, err)
	}
}

func TestLocalStorage_GetMissingIsNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Get(context.Background(), "images/1/absent.jpg")
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("error = %v, want ENOTFOUND", err)
	}
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.Put(ctx, "images/1/photo.jpg", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, "images/1/photo.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "images/1/photo.jpg"); err != nil {
		t.Errorf("second Delete: %v", err)
	}

	exists, err := s.Exists(ctx, "images/1/photo.jpg")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("file still exists after delete")
	}
}

func TestLocalStorage_URL(t *testing.T) {
	// Keys carry the images/ prefix, so the serving URL is the key re-rooted
	// at the base URL.
	s, err := NewLocalStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	if got := s.URL("images/1/photo.jpg"); got != "/images/1/photo.jpg" {
		t.Errorf("URL = %q", got)
	}
}
