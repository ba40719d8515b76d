package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	key := "reports/2026-10-11_2026-10-17.csv"
	n, err := store.PutObject(ctx, key, []byte("a,b\n1,2\n"), "text/csv")
	if err != nil || n != 8 {
		t.Fatalf("PutObject: n=%d err=%v", n, err)
	}

	data, err := store.GetObject(ctx, key)
	if err != nil || string(data) != "a,b\n1,2\n" {
		t.Fatalf("GetObject: %q err=%v", data, err)
	}

	u, err := store.PresignGet(ctx, key, 60)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.HasPrefix(u, "file://") || !strings.HasSuffix(u, "2026-10-11_2026-10-17.csv") {
		t.Fatalf("unexpected URL %s", u)
	}

	if err := store.DeleteObject(ctx, key); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if err := store.DeleteObject(ctx, key); err != nil {
		t.Fatalf("deleting a missing object should succeed, got %v", err)
	}
	if _, err := store.GetObject(ctx, key); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	for _, key := range []string{"", "/etc/passwd", "../outside.txt", "reports/../../x"} {
		if _, err := store.PutObject(context.Background(), key, []byte("x"), "text/plain"); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestLocalStoreMissingObjectIsNotFound(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if _, err := store.GetObject(context.Background(), "reports/none.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetObject: expected ErrNotFound, got %v", err)
	}
	if _, err := store.PresignGet(context.Background(), "reports/none.pdf", 60); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PresignGet: expected ErrNotFound, got %v", err)
	}
}

func TestCheckKey(t *testing.T) {
	for _, key := range []string{"", "  ", "/abs", "a/../b"} {
		if err := checkKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("checkKey(%q) = %v", key, err)
		}
	}
	if err := checkKey("reports/2026-10-11_2026-10-17.pdf"); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
}
