package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapmeal/snapmeal-go/internal/mailer"
	"github.com/snapmeal/snapmeal-go/internal/scheduler"
)

// reminderNotifier always logs reminders and also mails them when EMAIL_SENDER_MODE is set.
func (a *app) reminderNotifier() (scheduler.Notifier, error) {
	notifiers := scheduler.Notifiers{scheduler.LogNotifier{Logger: a.logger}}

	sender, err := mailer.NewSenderFromConfig(a.cfg, a.logger)
	if errors.Is(err, mailer.ErrDisabled) {
		return notifiers, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reminder email: %w", err)
	}
	if a.cfg.ReminderEmailTo == "" {
		return nil, errors.New("REMINDER_EMAIL_TO is required when EMAIL_SENDER_MODE is set")
	}
	return append(notifiers, scheduler.MailNotifier{Sender: sender, To: a.cfg.ReminderEmailTo}), nil
}

func newSchedulerCmd(a *app) *cobra.Command {
	var once string

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the weekly challenge generation and stamp reminders until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			notifier, err := a.reminderNotifier()
			if err != nil {
				return err
			}
			s, err := scheduler.New(a.cfg, a.api, notifier, a.logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			switch once {
			case "weekly_generate":
				n, err := s.RunWeeklyGenerate(ctx)
				if err != nil {
					return err
				}
				a.printf("generated %d challenges\n", n)
				return nil
			case "stamp_reminder":
				reminders, err := s.RunStampReminder(ctx)
				if err != nil {
					return err
				}
				return a.emit(reminders, func() {
					for _, r := range reminders {
						a.printf("#%d %s day %d, %d/%d stamped\n", r.ChallengeID, r.Title, r.Day, r.Progress.Done, r.Progress.Total)
					}
				})
			case "":
			default:
				return cmd.Usage()
			}

			s.Start()
			next := s.NextRuns()
			names := make([]string, 0, len(next))
			for name := range next {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				a.printf("%s next at %s\n", name, next[name].Format(time.RFC3339))
			}

			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return s.Stop(stopCtx)
		},
	}
	cmd.Flags().StringVar(&once, "once", "", "run one job now and exit (weekly_generate or stamp_reminder)")
	return cmd
}
