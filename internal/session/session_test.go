package session

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snapmeal/snapmeal-go/internal/config"
	"github.com/snapmeal/snapmeal-go/internal/storage"
	"github.com/snapmeal/snapmeal-go/internal/storage/memory"
)

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "user-1"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestBeginPersistsTokens(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store, nil)

	access := signToken(t, time.Now().Add(time.Hour))
	if err := s.Begin(ctx, access, "refresh-1", "USER"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	got, ok := s.AccessToken()
	if !ok || got != access {
		t.Fatalf("expected access token to be available")
	}
	if s.Role() != "USER" || s.RefreshToken() != "refresh-1" {
		t.Fatalf("unexpected role=%q refresh=%q", s.Role(), s.RefreshToken())
	}
	if s.ExpiresAt().IsZero() {
		t.Fatal("expected expiry from exp claim")
	}

	stored, ok, err := store.Get(ctx, storage.KeyAccessToken)
	if err != nil || !ok || stored != access {
		t.Fatalf("expected persisted access token, got ok=%v err=%v", ok, err)
	}
}

type failingSetStore struct {
	*memory.MemoryStorage
	failKey string
}

var errDiskFull = errors.New("disk full")

func (f *failingSetStore) Set(ctx context.Context, key, value string) error {
	if key == f.failKey {
		return errDiskFull
	}
	return f.MemoryStorage.Set(ctx, key, value)
}

func TestBeginPartialWriteLeavesNoSession(t *testing.T) {
	ctx := context.Background()
	store := &failingSetStore{MemoryStorage: memory.New(), failKey: storage.KeyRefreshToken}
	s := New(store, nil)

	access := signToken(t, time.Now().Add(time.Hour))
	err := s.Begin(ctx, access, "refresh-1", "USER")
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if s.Authenticated() {
		t.Fatal("expected no in-memory session after failed Begin")
	}

	if _, ok, err := store.Get(ctx, storage.KeyAccessToken); err != nil || ok {
		t.Fatalf("expected access token to be rolled back, ok=%v err=%v", ok, err)
	}

	restarted := New(store, nil)
	if err := restarted.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restarted.Authenticated() {
		t.Fatal("a failed sign-in must not restore as signed in")
	}
}

func TestBeginRejectsEmptyToken(t *testing.T) {
	s := New(memory.New(), nil)
	if err := s.Begin(context.Background(), "  ", "r", "USER"); err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if s.Authenticated() {
		t.Fatal("expected signed-out session")
	}
}

func TestExpiredTokenIsAbsent(t *testing.T) {
	s := New(memory.New(), nil)
	access := signToken(t, time.Now().Add(time.Minute))
	if err := s.Begin(context.Background(), access, "", "USER"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok := s.AccessToken(); ok {
		t.Fatal("expected expired token to be reported as absent")
	}
}

func TestOpaqueTokenHasNoExpiry(t *testing.T) {
	s := New(memory.New(), nil)
	if err := s.Begin(context.Background(), "opaque-token", "", ""); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !s.ExpiresAt().IsZero() {
		t.Fatalf("expected zero expiry, got %v", s.ExpiresAt())
	}
	if token, ok := s.AccessToken(); !ok || token != "opaque-token" {
		t.Fatalf("expected opaque token, got %q ok=%v", token, ok)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := New(store, nil)
	if err := s.Begin(ctx, signToken(t, time.Time{}), "r", "USER"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("expected signed-out session")
	}
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyRole} {
		if _, ok, _ := store.Get(ctx, key); ok {
			t.Fatalf("expected %s to be removed", key)
		}
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	access := signToken(t, time.Now().Add(time.Hour))
	_ = store.Set(ctx, storage.KeyAccessToken, access)
	_ = store.Set(ctx, storage.KeyRefreshToken, "refresh")
	_ = store.Set(ctx, storage.KeyRole, "GUEST")

	var buf bytes.Buffer
	s := New(store, log.New(&buf, "", 0))
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !s.Authenticated() || s.Role() != "GUEST" {
		t.Fatalf("expected restored guest session, role=%q", s.Role())
	}
	if !strings.Contains(buf.String(), "restore=ok") {
		t.Fatalf("expected restore log, got %s", buf.String())
	}
}

func TestRestoreExpiredClearsStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.Set(ctx, storage.KeyAccessToken, signToken(t, time.Now().Add(-time.Hour)))

	s := New(store, nil)
	if err := s.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if s.Authenticated() {
		t.Fatal("expected expired session to stay signed out")
	}
	if _, ok, _ := store.Get(ctx, storage.KeyAccessToken); ok {
		t.Fatal("expected expired token to be removed from store")
	}
}

func TestOpenTokenStore(t *testing.T) {
	ctx := context.Background()

	store, mode, err := OpenTokenStore(ctx, &config.Config{TokenStore: config.TokenStoreMemory}, nil)
	if err != nil || mode != config.TokenStoreMemory {
		t.Fatalf("expected memory store, got mode=%q err=%v", mode, err)
	}
	_ = store.Close()

	path := filepath.Join(t.TempDir(), "snapmeal", "tokens.json")
	store, mode, err = OpenTokenStore(ctx, &config.Config{TokenStore: config.TokenStoreFile, TokenFile: path}, nil)
	if err != nil || mode != config.TokenStoreFile {
		t.Fatalf("expected file store, got mode=%q err=%v", mode, err)
	}
	_ = store.Close()

	if _, _, err := OpenTokenStore(ctx, &config.Config{TokenStore: "redis"}, nil); err == nil {
		t.Fatal("expected error for unsupported token store")
	}
}

func TestOpenTokenStorePostgresFallsBackToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "tokens.json")
	cfg := &config.Config{
		TokenStore:  config.TokenStorePostgres,
		TokenFile:   path,
		DatabaseURL: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1",
		DeviceID:    "device-1",
	}

	store, mode, err := OpenTokenStore(context.Background(), cfg, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	defer store.Close()
	if mode != config.TokenStoreFile {
		t.Fatalf("expected file fallback, got %s", mode)
	}
	if !strings.Contains(buf.String(), "fallback=file") {
		t.Fatalf("expected fallback log, got %s", buf.String())
	}
}
