package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

const (
	EmailSenderOff    = "off"
	EmailSenderLocal  = "local"
	EmailSenderSMTP   = "smtp"
	EmailSenderResend = "resend"
)

const (
	TokenStoreFile     = "file"
	TokenStoreMemory   = "memory"
	TokenStorePostgres = "postgres"
)

type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PresignTTLSeconds int
}

func (c S3Config) MissingRequired() []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(c.Endpoint) == "" {
		missing = append(missing, "S3_ENDPOINT")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "S3_REGION")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "S3_ACCESS_KEY_ID")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "S3_SECRET_ACCESS_KEY")
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) Diagnostics() (level string, code string, msg string) {
	allEmpty := strings.TrimSpace(c.Endpoint) == "" &&
		strings.TrimSpace(c.Region) == "" &&
		strings.TrimSpace(c.Bucket) == "" &&
		strings.TrimSpace(c.AccessKeyID) == "" &&
		strings.TrimSpace(c.SecretAccessKey) == ""

	if allEmpty {
		return "INFO", "s3_not_configured", "not configured (all empty)"
	}

	missing := c.MissingRequired()
	if len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}

	return "INFO", "s3_ready", "ready"
}

// DiagnosticsSummary returns a summary for logging (no secrets)
func (c S3Config) DiagnosticsSummary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s presign_ttl=%ds access_key_id=%s secret_access_key=%s",
		nonEmptyOrDash(c.Endpoint),
		nonEmptyOrDash(c.Region),
		nonEmptyOrDash(c.Bucket),
		c.PresignTTLSeconds,
		SetOrNot(c.AccessKeyID),
		SetOrNot(c.SecretAccessKey),
	)
}

type BlobConfig struct {
	Mode     string // local|s3|auto
	LocalDir string // root for the local store
	S3       S3Config
}

// Config holds the client configuration.
type Config struct {
	Env      string // local | staging | prod
	LogLevel string

	// Backend API
	APIBaseURL        string
	APITimeoutSeconds int
	RateLimitRPS      int
	RateLimitBurst    int
	UploadMaxMB       int

	// Time zone used for "today", calendars and week partitions.
	TimeZone string

	// Session persistence
	TokenStore string // file | memory | postgres
	TokenFile  string
	DeviceID   string // row scope for the postgres token store

	// Database (postgres token store)
	DatabaseURL       string
	DatabaseURLDirect string

	// Report export
	Blob           BlobConfig
	ExportDir      string
	ExportFontPath string // UTF-8 TTF with Hangul glyphs; PDFs fall back to English labels without it

	// Scheduler (cron specs, evaluated in TimeZone)
	SchedulerWeeklyGenerateSpec string
	SchedulerStampReminderSpec  string

	// Reminder email (off | local | smtp | resend)
	EmailSenderMode string
	ReminderEmailTo string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	SMTPUseTLS      bool
	ResendAPIKey    string
	ResendFrom      string

	// Migrations
	RunMigrationsOnStartup bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	// ---------- API ----------
	apiBase := strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/")
	if apiBase == "" {
		apiBase = "http://localhost:8080"
	}

	apiTimeout := envInt("API_TIMEOUT_SECONDS", 30)
	if apiTimeout <= 0 {
		apiTimeout = 30
	}

	rateLimitRPS := envInt("API_RATE_LIMIT_RPS", 0)
	rateLimitBurst := envInt("API_RATE_LIMIT_BURST", 0)

	uploadMaxMB := envInt("UPLOAD_MAX_MB", 10)
	if uploadMaxMB <= 0 {
		uploadMaxMB = 10
	}

	timeZone := strings.TrimSpace(os.Getenv("TIME_ZONE"))
	if timeZone == "" {
		timeZone = "Asia/Seoul"
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		log.Printf("WARNING: unknown TIME_ZONE=%q, fallback to UTC", timeZone)
		timeZone = "UTC"
	}

	// ---------- Session ----------
	tokenStore := strings.ToLower(strings.TrimSpace(os.Getenv("TOKEN_STORE")))
	if tokenStore == "" {
		tokenStore = TokenStoreFile
	}
	if tokenStore != TokenStoreFile && tokenStore != TokenStoreMemory && tokenStore != TokenStorePostgres {
		log.Printf("WARNING: unknown TOKEN_STORE=%q, fallback to %s", tokenStore, TokenStoreFile)
		tokenStore = TokenStoreFile
	}

	tokenFile := strings.TrimSpace(os.Getenv("TOKEN_FILE"))
	if tokenFile == "" {
		tokenFile = defaultTokenFile()
	}

	deviceID := strings.TrimSpace(os.Getenv("DEVICE_ID"))
	if deviceID == "" {
		if host, err := os.Hostname(); err == nil && host != "" {
			deviceID = host
		} else {
			deviceID = "default"
		}
	}

	// ---------- Database ----------
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	dbDirect := strings.TrimSpace(os.Getenv("DATABASE_URL_DIRECT"))
	if tokenStore == TokenStorePostgres && dbURL == "" && dbDirect == "" {
		log.Printf("WARNING: TOKEN_STORE=postgres without DATABASE_URL, fallback to %s", TokenStoreFile)
		tokenStore = TokenStoreFile
	}

	// ---------- Blob / S3 ----------
	blobMode := parseBlobMode("BLOB_MODE", BlobModeLocal)

	s3PresignTTL := envInt("S3_PRESIGN_TTL_SECONDS", 900)
	if s3PresignTTL <= 0 {
		s3PresignTTL = 900
	}

	s3Cfg := S3Config{
		Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		Region:            strings.TrimSpace(os.Getenv("S3_REGION")),
		Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKeyID:       strings.TrimSpace(os.Getenv("S3_ACCESS_KEY_ID")),
		SecretAccessKey:   strings.TrimSpace(os.Getenv("S3_SECRET_ACCESS_KEY")),
		PresignTTLSeconds: s3PresignTTL,
	}

	exportDir := strings.TrimSpace(os.Getenv("EXPORT_DIR"))
	if exportDir == "" {
		exportDir = "exports"
	}
	exportFont := strings.TrimSpace(os.Getenv("EXPORT_FONT_PATH"))
	if exportFont != "" {
		if _, err := os.Stat(exportFont); err != nil {
			log.Printf("WARNING: EXPORT_FONT_PATH=%q not readable, PDF exports use the built-in font", exportFont)
			exportFont = ""
		}
	}

	// ---------- Scheduler ----------
	weeklySpec := strings.TrimSpace(os.Getenv("SCHEDULER_WEEKLY_GENERATE_SPEC"))
	if weeklySpec == "" {
		weeklySpec = "10 0 * * MON"
	}
	reminderSpec := strings.TrimSpace(os.Getenv("SCHEDULER_STAMP_REMINDER_SPEC"))
	if reminderSpec == "" {
		reminderSpec = "0 21 * * *"
	}

	// ---------- Reminder email ----------
	emailMode := strings.ToLower(strings.TrimSpace(os.Getenv("EMAIL_SENDER_MODE")))
	switch emailMode {
	case "":
		emailMode = EmailSenderOff
	case EmailSenderOff, EmailSenderLocal, EmailSenderSMTP, EmailSenderResend:
	default:
		log.Printf("WARNING: unknown EMAIL_SENDER_MODE=%q, fallback to %s", emailMode, EmailSenderOff)
		emailMode = EmailSenderOff
	}

	smtpPort := envInt("SMTP_PORT", 587)
	smtpUseTLS := true
	if v := strings.TrimSpace(os.Getenv("SMTP_USE_TLS")); v != "" {
		smtpUseTLS = parseBoolEnv("SMTP_USE_TLS")
	}

	resendFrom := strings.TrimSpace(os.Getenv("RESEND_FROM"))
	if resendFrom == "" {
		resendFrom = "SnapMeal <noreply@snapmeal.app>"
	}

	return &Config{
		Env:      env,
		LogLevel: logLevel,

		APIBaseURL:        apiBase,
		APITimeoutSeconds: apiTimeout,
		RateLimitRPS:      rateLimitRPS,
		RateLimitBurst:    rateLimitBurst,
		UploadMaxMB:       uploadMaxMB,

		TimeZone: timeZone,

		TokenStore: tokenStore,
		TokenFile:  tokenFile,
		DeviceID:   deviceID,

		DatabaseURL:       dbURL,
		DatabaseURLDirect: dbDirect,

		Blob:           BlobConfig{Mode: blobMode, LocalDir: exportDir, S3: s3Cfg},
		ExportDir:      exportDir,
		ExportFontPath: exportFont,

		SchedulerWeeklyGenerateSpec: weeklySpec,
		SchedulerStampReminderSpec:  reminderSpec,

		EmailSenderMode: emailMode,
		ReminderEmailTo: strings.TrimSpace(os.Getenv("REMINDER_EMAIL_TO")),
		SMTPHost:        strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:        smtpPort,
		SMTPUsername:    strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:        strings.TrimSpace(os.Getenv("SMTP_FROM")),
		SMTPUseTLS:      smtpUseTLS,
		ResendAPIKey:    strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		ResendFrom:      resendFrom,

		RunMigrationsOnStartup: parseBoolEnv("RUN_MIGRATIONS_ON_STARTUP"),
	}
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// APITimeout returns the per-request timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".snapmeal/tokens.json"
	}
	return dir + "/snapmeal/tokens.json"
}

func parseBlobMode(key string, defaultVal string) string {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if mode == "" {
		return defaultVal
	}
	switch mode {
	case BlobModeLocal, BlobModeS3, BlobModeAuto:
		return mode
	default:
		log.Printf("WARNING: unknown %s=%q, fallback to %s", key, mode, defaultVal)
		return defaultVal
	}
}

// SetOrNot masks a secret for logging.
func SetOrNot(v string) string {
	if strings.TrimSpace(v) == "" {
		return "not set"
	}
	return "set"
}

func nonEmptyOrDash(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "-"
	}
	return v
}

// envInt reads an int env var with a default value.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
