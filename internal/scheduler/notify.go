package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapmeal/snapmeal-go/internal/mailer"
)

// MailNotifier emails each reminder to a fixed address.
type MailNotifier struct {
	Sender mailer.Sender
	To     string
}

func (n MailNotifier) Notify(ctx context.Context, r Reminder) error {
	subject := fmt.Sprintf("[SnapMeal] %s %d일차 스탬프를 찍어 주세요", r.Title, r.Day)
	body := fmt.Sprintf(
		"오늘은 '%s' 챌린지 %d일차입니다.\n지금까지 %d/%d개 스탬프를 모았고 연속 기록은 %d일입니다.\n",
		r.Title, r.Day, r.Progress.Done, r.Progress.Total, r.Progress.CurrentStreak,
	)
	if err := n.Sender.Send(ctx, n.To, subject, body); err != nil {
		return fmt.Errorf("send reminder mail: %w", err)
	}
	return nil
}

// Notifiers fans a reminder out to every notifier and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, r Reminder) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
