package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/snapmeal/snapmeal-go/internal/storage"
)

var ErrEmptyToken = errors.New("access token is empty")

type Logger interface {
	Printf(format string, v ...any)
}

// Session holds the authenticated state of the client: the token pair and the role
// returned by sign-in. It is the single writer of the token store; readers only go
// through AccessToken.
type Session struct {
	store  storage.TokenStore
	logger Logger
	now    func() time.Time

	mu        sync.RWMutex
	access    string
	refresh   string
	role      string
	expiresAt time.Time
}

func New(store storage.TokenStore, logger Logger) *Session {
	return &Session{store: store, logger: logger, now: time.Now}
}

// Restore loads a previously persisted token pair. A missing or expired access token
// leaves the session signed out.
func (s *Session) Restore(ctx context.Context) error {
	access, ok, err := s.store.Get(ctx, storage.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if !ok || strings.TrimSpace(access) == "" {
		logf(s.logger, "INFO session: restore=none")
		return nil
	}

	refresh, _, err := s.store.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	role, _, err := s.store.Get(ctx, storage.KeyRole)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	exp := tokenExpiry(access)
	if !exp.IsZero() && !s.now().Before(exp) {
		logf(s.logger, "INFO session: restore=expired expires_at=%s", exp.Format(time.RFC3339))
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.access, s.refresh, s.role, s.expiresAt = access, refresh, role, exp
	s.mu.Unlock()

	logf(s.logger, "INFO session: restore=ok role=%s", nonEmpty(role))
	return nil
}

// Begin stores the token pair issued at sign-in and persists it.
func (s *Session) Begin(ctx context.Context, access, refresh, role string) error {
	access = strings.TrimSpace(access)
	if access == "" {
		return ErrEmptyToken
	}

	if err := s.persist(ctx, access, refresh, role); err != nil {
		logf(s.logger, "WARN session: begin=failed err=%v", err)
		// A partial write must not leave a restorable access token behind.
		if clearErr := s.Clear(ctx); clearErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", clearErr))
		}
		return err
	}

	s.mu.Lock()
	s.access, s.refresh, s.role = access, refresh, role
	s.expiresAt = tokenExpiry(access)
	s.mu.Unlock()

	logf(s.logger, "INFO session: begin role=%s", nonEmpty(role))
	return nil
}

func (s *Session) persist(ctx context.Context, access, refresh, role string) error {
	if err := s.store.Set(ctx, storage.KeyAccessToken, access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	if err := s.store.Set(ctx, storage.KeyRole, role); err != nil {
		return fmt.Errorf("persist role: %w", err)
	}
	return nil
}

// Clear drops the in-memory state first so no request goes out with a stale token,
// then removes the persisted keys.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.access, s.refresh, s.role = "", "", ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyRole} {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	logf(s.logger, "INFO session: cleared")
	return errors.Join(errs...)
}

// AccessToken implements apiclient.TokenSource. An expired token is reported as absent.
func (s *Session) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.access == "" {
		return "", false
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return "", false
	}
	return s.access, true
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

// ExpiresAt is zero when the token carries no exp claim.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *Session) Authenticated() bool {
	_, ok := s.AccessToken()
	return ok
}

// tokenExpiry reads the exp claim without verifying the signature; the client never
// holds the signing key.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func nonEmpty(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
