package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/storage"
)

func TestFileStoragePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Set(ctx, storage.KeyAccessToken, "a1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, storage.KeyRefreshToken, "r1"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600, got %o", perm)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v, ok, _ := reopened.Get(ctx, storage.KeyAccessToken); !ok || v != "a1" {
		t.Fatalf("expected a1 after reopen, got %q ok=%v", v, ok)
	}

	if err := reopened.Delete(ctx, storage.KeyAccessToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, storage.KeyAccessToken); ok {
		t.Fatal("expected access token to be deleted")
	}
	if v, _, _ := s.Get(ctx, storage.KeyRefreshToken); v != "r1" {
		t.Fatalf("expected refresh token to survive, got %q", v)
	}
}

func TestFileStorageCorruptedFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok, err := s.Get(context.Background(), storage.KeyAccessToken); ok || err != nil {
		t.Fatalf("expected empty read, ok=%v err=%v", ok, err)
	}
}

func TestFileStorageRejectsEmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
