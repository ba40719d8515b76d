package mailer

import (
	"context"
	"log"
)

// LocalSender writes messages to the log instead of delivering them.
type LocalSender struct {
	logger *log.Logger
}

func NewLocalSender(logger *log.Logger) *LocalSender {
	if logger == nil {
		logger = log.Default()
	}
	return &LocalSender{logger: logger}
}

func (s *LocalSender) Send(_ context.Context, to, subject, textBody string) error {
	s.logger.Printf("INFO mailer.local: to=%s subject=%q body=%q", to, subject, textBody)
	return nil
}
