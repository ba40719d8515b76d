package dbmigrate

import (
	"fmt"

	"github.com/snapmeal/snapmeal-go/internal/config"
)

const DefaultMigrationsDir = "migrations"

// SelectDatabaseURL selects DB URL for migrations.
// Priority: DATABASE_URL_DIRECT > DATABASE_URL.
// If requireDirect is true, only DATABASE_URL_DIRECT is accepted.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (dbURL string, source string, err error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return "", "", fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", nil
	}

	if cfg.DatabaseURLDirect != "" {
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", nil
	}
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, "DATABASE_URL", nil
	}

	return "", "", fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
