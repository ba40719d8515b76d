package storage

import (
	"context"
	"errors"
)

// Fixed keys under which the session tokens are persisted.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyRole         = "role"
)

var ErrClosed = errors.New("token store closed")

// TokenStore persists the session tokens on the device (or a shared database for kiosk setups).
type TokenStore interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources (for Postgres)
	Close() error
}
