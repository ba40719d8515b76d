package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/challenges"
	"github.com/snapmeal/snapmeal-go/internal/config"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

const jobTimeout = 2 * time.Minute

type API interface {
	GenerateWeekly(ctx context.Context) ([]apiclient.Challenge, error)
	MyChallenges(ctx context.Context, statuses ...string) ([]apiclient.Challenge, error)
}

type Logger interface {
	Printf(format string, v ...any)
}

// Reminder is sent for an in-progress challenge whose stamp for today is still open.
type Reminder struct {
	ChallengeID int64
	Title       string
	Day         int // 1-based day of the challenge
	Progress    viewstate.StampProgress
}

type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the log.
type LogNotifier struct {
	Logger Logger
}

func (n LogNotifier) Notify(ctx context.Context, r Reminder) error {
	logf(n.Logger, "INFO scheduler: reminder challenge_id=%d title=%q day=%d done=%d/%d streak=%d",
		r.ChallengeID, r.Title, r.Day, r.Progress.Done, r.Progress.Total, r.Progress.CurrentStreak)
	return nil
}

// Scheduler runs the weekly challenge generation and the evening stamp reminder on cron specs
// evaluated in the configured time zone.
type Scheduler struct {
	api      API
	notifier Notifier
	logger   Logger
	loc      *time.Location
	now      func() time.Time
	cron     *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func New(cfg *config.Config, api API, notifier Notifier, logger Logger) (*Scheduler, error) {
	loc := cfg.Location()
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	cronLogger := cron.DiscardLogger
	if logger != nil {
		cronLogger = cron.PrintfLogger(logger)
	}
	// A run still in progress makes the next tick a no-op.
	opts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
	}

	s := &Scheduler{
		api:      api,
		notifier: notifier,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
		cron:     cron.New(opts...),
		entries:  make(map[string]cron.EntryID),
	}

	if err := s.add("weekly_generate", cfg.SchedulerWeeklyGenerateSpec, func(ctx context.Context) error {
		_, err := s.RunWeeklyGenerate(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if err := s.add("stamp_reminder", cfg.SchedulerStampReminderSpec, func(ctx context.Context) error {
		_, err := s.RunStampReminder(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) add(name, spec string, job func(ctx context.Context) error) error {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := time.Now()
		if err := job(ctx); err != nil {
			logf(s.logger, "WARN scheduler: job=%s failed err=%v", name, err)
			return
		}
		logf(s.logger, "INFO scheduler: job=%s ok duration=%s", name, time.Since(started).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec for %s %q: %w", name, spec, err)
	}

	s.mu.Lock()
	s.entries[name] = id
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for name, next := range s.NextRuns() {
		logf(s.logger, "INFO scheduler: job=%s next=%s", name, next.Format(time.RFC3339))
	}
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRuns returns the next activation per job. Zero until Start.
func (s *Scheduler) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]time.Time, len(s.entries))
	for name, id := range s.entries {
		out[name] = s.cron.Entry(id).Next
	}
	return out
}

// RunWeeklyGenerate asks the backend for this week's challenges.
func (s *Scheduler) RunWeeklyGenerate(ctx context.Context) (int, error) {
	created, err := s.api.GenerateWeekly(ctx)
	if err != nil {
		return 0, fmt.Errorf("generate weekly challenges: %w", err)
	}
	logf(s.logger, "INFO scheduler: weekly challenges generated count=%d", len(created))
	return len(created), nil
}

// RunStampReminder notifies about in-progress challenges whose stamp for today is missing.
func (s *Scheduler) RunStampReminder(ctx context.Context) ([]Reminder, error) {
	list, err := s.api.MyChallenges(ctx, viewstate.ServerStatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	now := s.now()
	var reminders []Reminder
	for _, ch := range list {
		if viewstate.MapChallengeStatus(ch.Status, viewstate.VariantList) != viewstate.StateInProgress {
			continue
		}
		day := challenges.ElapsedDays(ch.StartDate, len(ch.Stamps), now, s.loc)
		if day < 1 || day > len(ch.Stamps) || ch.Stamps[day-1] {
			continue
		}

		r := Reminder{
			ChallengeID: ch.ID,
			Title:       ch.Title,
			Day:         day,
			Progress:    challenges.Progress(ch, now, s.loc),
		}
		if err := s.notifier.Notify(ctx, r); err != nil {
			logf(s.logger, "WARN scheduler: notify_failed challenge_id=%d err=%v", ch.ID, err)
			continue
		}
		reminders = append(reminders, r)
	}
	return reminders, nil
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
