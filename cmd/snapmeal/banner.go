package main

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/snapmeal/snapmeal-go/internal/config"
)

func printStartupBanner(logger *log.Logger, cfg *config.Config) {
	logger.Printf("========== SnapMeal ==========")
	logger.Printf("  env              = %s", cfg.Env)
	logger.Printf("  log_level        = %s", cfg.LogLevel)
	logger.Printf("  time_zone        = %s", cfg.TimeZone)

	logger.Printf("---- api ----")
	logger.Printf("  base_url         = %s", cfg.APIBaseURL)
	logger.Printf("  timeout          = %s", cfg.APITimeout())
	if cfg.RateLimitRPS > 0 {
		logger.Printf("  rate_limit       = %d rps (burst=%d)", cfg.RateLimitRPS, cfg.RateLimitBurst)
	} else {
		logger.Printf("  rate_limit       = off")
	}
	logger.Printf("  upload_max_mb    = %d", cfg.UploadMaxMB)

	logger.Printf("---- session ----")
	logger.Printf("  token_store      = %s", cfg.TokenStore)
	switch cfg.TokenStore {
	case config.TokenStoreFile:
		logger.Printf("  token_file       = %s", cfg.TokenFile)
	case config.TokenStorePostgres:
		logger.Printf("  device_id        = %s", cfg.DeviceID)
		logger.Printf("  database_url     = %s", config.SetOrNot(cfg.DatabaseURL))
		logger.Printf("  direct           = %s", config.SetOrNot(cfg.DatabaseURLDirect))
		logger.Printf("  migrations_on_startup = %t", cfg.RunMigrationsOnStartup)
	}

	logger.Printf("---- exports ----")
	logger.Printf("  blob_mode        = %s", cfg.Blob.Mode)
	logger.Printf("  export_dir       = %s", cfg.ExportDir)
	logger.Printf("  export_font      = %s", nonEmptyOrDash(cfg.ExportFontPath))
	if cfg.Blob.Mode != config.BlobModeLocal {
		logger.Printf("  s3: %s", cfg.Blob.S3.DiagnosticsSummary())
	}

	logger.Printf("---- scheduler ----")
	logger.Printf("  weekly_generate  = %s", cfg.SchedulerWeeklyGenerateSpec)
	logger.Printf("  stamp_reminder   = %s", cfg.SchedulerStampReminderSpec)
	logger.Printf("  email_sender     = %s", cfg.EmailSenderMode)
	switch cfg.EmailSenderMode {
	case config.EmailSenderSMTP:
		logger.Printf("  smtp             = %s:%d tls=%t password=%s", nonEmptyOrDash(cfg.SMTPHost), cfg.SMTPPort, cfg.SMTPUseTLS, config.SetOrNot(cfg.SMTPPassword))
	case config.EmailSenderResend:
		logger.Printf("  resend_api_key   = %s", config.SetOrNot(cfg.ResendAPIKey))
	}
	logger.Printf("==============================")
}

// validateProductionConfig refuses settings that would leak tokens in prod.
func validateProductionConfig(cfg *config.Config) error {
	if cfg.Env != "prod" {
		return nil
	}

	var errs []error
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must use https in prod (got %q)", cfg.APIBaseURL))
	}
	if cfg.TokenStore == config.TokenStoreMemory {
		errs = append(errs, errors.New("TOKEN_STORE=memory loses the session between runs; use file or postgres in prod"))
	}
	if cfg.Blob.Mode == config.BlobModeS3 && !cfg.Blob.S3.IsConfigured() {
		errs = append(errs, fmt.Errorf("BLOB_MODE=s3 missing: %s", strings.Join(cfg.Blob.S3.MissingRequired(), ", ")))
	}
	return errors.Join(errs...)
}

func nonEmptyOrDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "-"
	}
	return v
}
