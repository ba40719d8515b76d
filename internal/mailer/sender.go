package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/snapmeal/snapmeal-go/internal/config"
)

// ErrDisabled is returned by NewSenderFromConfig when EMAIL_SENDER_MODE=off.
var ErrDisabled = errors.New("email sender disabled")

// Sender delivers plain-text email messages.
type Sender interface {
	Send(ctx context.Context, to, subject, textBody string) error
}

// NewSenderFromConfig builds the reminder mail sender for EMAIL_SENDER_MODE.
func NewSenderFromConfig(cfg *config.Config, logger *log.Logger) (Sender, error) {
	switch mode := strings.ToLower(strings.TrimSpace(cfg.EmailSenderMode)); mode {
	case "", config.EmailSenderOff:
		return nil, ErrDisabled
	case config.EmailSenderLocal:
		return NewLocalSender(logger), nil
	case config.EmailSenderSMTP:
		sc, err := smtpConfig(cfg)
		if err != nil {
			return nil, err
		}
		return NewSMTPSender(sc), nil
	case config.EmailSenderResend:
		if strings.TrimSpace(cfg.ResendAPIKey) == "" {
			return nil, errors.New("RESEND_API_KEY is required for EMAIL_SENDER_MODE=resend")
		}
		return NewResendSender(ResendConfig{APIKey: cfg.ResendAPIKey, From: cfg.ResendFrom}), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_SENDER_MODE=%q", mode)
	}
}

func smtpConfig(cfg *config.Config) (SMTPConfig, error) {
	var missing []string
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.SMTPPort <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if strings.TrimSpace(cfg.SMTPFrom) == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if strings.TrimSpace(cfg.SMTPUsername) != "" && cfg.SMTPPassword == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if len(missing) > 0 {
		return SMTPConfig{}, fmt.Errorf("EMAIL_SENDER_MODE=smtp missing: %s", strings.Join(missing, ", "))
	}
	return SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		UseTLS:   cfg.SMTPUseTLS,
	}, nil
}
