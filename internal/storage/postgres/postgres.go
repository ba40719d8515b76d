package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is a TokenStore backed by the client_tokens table, for shared
// devices where the session must survive a device swap. Rows are scoped by device id.
type PostgresStorage struct {
	pool     *pgxpool.Pool
	deviceID string
}

// New connects to databaseURL. The client_tokens table is created by the migrations.
func New(ctx context.Context, databaseURL, deviceID string) (*PostgresStorage, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, errors.New("device id is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool, deviceID: deviceID}, nil
}

func (p *PostgresStorage) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
		SELECT value
		FROM client_tokens
		WHERE device_id = $1 AND key = $2
	`

	var value string
	err := p.pool.QueryRow(ctx, query, p.deviceID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (p *PostgresStorage) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO client_tokens (device_id, key, value, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (device_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`
	_, err := p.pool.Exec(ctx, query, p.deviceID, key, value)
	return err
}

func (p *PostgresStorage) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM client_tokens WHERE device_id = $1 AND key = $2`
	_, err := p.pool.Exec(ctx, query, p.deviceID, key)
	return err
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
