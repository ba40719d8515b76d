package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/snapmeal/snapmeal-go/internal/config"
)

type Logger interface {
	Printf(format string, v ...any)
}

// NewBlobStore opens the export store for BLOB_MODE and reports the effective mode.
// auto uses S3 when it is configured and reachable, and the local dir otherwise.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger Logger) (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = appcfg.BlobModeLocal
	}

	switch mode {
	case appcfg.BlobModeLocal:
		return openLocal(cfg, logger, "forced")

	case appcfg.BlobModeAuto:
		if !cfg.S3.IsConfigured() {
			level, code, msg := cfg.S3.Diagnostics()
			logf(logger, "%s blob.s3: code=%s %s", level, code, msg)
			return openLocal(cfg, logger, "auto, S3 not configured")
		}
		store, err := openS3(ctx, cfg.S3, logger)
		if err != nil {
			logf(logger, "WARN blob.s3: init_failed=%q, fallback=local", err.Error())
			return openLocal(cfg, logger, "auto, S3 init failed")
		}
		logf(logger, "INFO blob: mode=s3 (auto)")
		return store, appcfg.BlobModeS3, nil

	case appcfg.BlobModeS3:
		if missing := cfg.S3.MissingRequired(); len(missing) > 0 {
			logf(logger, "FATAL blob.s3: code=s3_config_incomplete missing=%v", missing)
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}
		store, err := openS3(ctx, cfg.S3, logger)
		if err != nil {
			logf(logger, "FATAL blob.s3: init_failed=%v", err)
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		logf(logger, "INFO blob: mode=s3 (forced)")
		return store, appcfg.BlobModeS3, nil

	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}
}

func openS3(ctx context.Context, c appcfg.S3Config, logger Logger) (*S3Store, error) {
	logf(logger, "INFO blob.s3: code=s3_ready %s", c.DiagnosticsSummary())
	return NewS3Store(ctx, c)
}

func openLocal(cfg appcfg.BlobConfig, logger Logger, reason string) (Store, string, error) {
	dir := cfg.LocalDir
	if strings.TrimSpace(dir) == "" {
		dir = "exports"
	}
	store, err := NewLocalStore(dir)
	if err != nil {
		logf(logger, "FATAL blob.local: init_failed=%v", err)
		return nil, "", err
	}
	logf(logger, "INFO blob: mode=local (%s) dir=%s", reason, store.Dir())
	return store, appcfg.BlobModeLocal, nil
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
