package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/snapmeal/snapmeal-go/internal/config"
	"github.com/snapmeal/snapmeal-go/internal/storage"
	"github.com/snapmeal/snapmeal-go/internal/storage/file"
	"github.com/snapmeal/snapmeal-go/internal/storage/memory"
	"github.com/snapmeal/snapmeal-go/internal/storage/postgres"
)

// OpenTokenStore builds the token store selected by TOKEN_STORE (file|memory|postgres).
// A postgres store that cannot be reached falls back to the token file.
func OpenTokenStore(ctx context.Context, cfg *config.Config, logger Logger) (storage.TokenStore, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	if mode == "" {
		mode = config.TokenStoreFile
	}

	switch mode {
	case config.TokenStoreMemory:
		logf(logger, "INFO session.store: mode=memory")
		return memory.New(), config.TokenStoreMemory, nil

	case config.TokenStorePostgres:
		dbURL := cfg.DatabaseURL
		if dbURL == "" {
			dbURL = cfg.DatabaseURLDirect
		}
		pg, err := postgres.New(ctx, dbURL, cfg.DeviceID)
		if err == nil {
			logf(logger, "INFO session.store: mode=postgres device_id=%s", cfg.DeviceID)
			return pg, config.TokenStorePostgres, nil
		}
		logf(logger, "WARN session.store: postgres_failed=%q, fallback=file", err.Error())
		fallthrough

	case config.TokenStoreFile:
		fs, err := file.New(cfg.TokenFile)
		if err != nil {
			logf(logger, "FATAL session.store: file_init_failed=%v", err)
			return nil, "", fmt.Errorf("open token file: %w", err)
		}
		logf(logger, "INFO session.store: mode=file path=%s", cfg.TokenFile)
		return fs, config.TokenStoreFile, nil

	default:
		return nil, "", fmt.Errorf("unsupported token store: %s", mode)
	}
}
