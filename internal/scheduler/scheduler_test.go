package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/config"
)

type fakeAPI struct {
	challenges []apiclient.Challenge
	genErr     error
	statuses   []string
}

func (f *fakeAPI) GenerateWeekly(ctx context.Context) ([]apiclient.Challenge, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return []apiclient.Challenge{{ID: 1}, {ID: 2}}, nil
}

func (f *fakeAPI) MyChallenges(ctx context.Context, statuses ...string) ([]apiclient.Challenge, error) {
	f.statuses = statuses
	return f.challenges, nil
}

type recordingNotifier struct {
	got []Reminder
}

func (r *recordingNotifier) Notify(ctx context.Context, rem Reminder) error {
	r.got = append(r.got, rem)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		TimeZone:                    "Asia/Seoul",
		SchedulerWeeklyGenerateSpec: "10 0 * * MON",
		SchedulerStampReminderSpec:  "0 21 * * *",
	}
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	cfg := testConfig()
	cfg.SchedulerStampReminderSpec = "every evening"

	if _, err := New(cfg, &fakeAPI{}, nil, nil); err == nil {
		t.Fatal("expected invalid cron spec error")
	}
}

func TestNextRunsInConfiguredZone(t *testing.T) {
	s, err := New(testConfig(), &fakeAPI{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	next := s.NextRuns()
	weekly, ok := next["weekly_generate"]
	if !ok || weekly.IsZero() {
		t.Fatalf("expected weekly job to be scheduled, got %v", next)
	}
	seoul := weekly.In(s.loc)
	if seoul.Weekday() != time.Monday || seoul.Hour() != 0 || seoul.Minute() != 10 {
		t.Fatalf("expected Monday 00:10 in Seoul, got %s", seoul)
	}
}

func TestRunWeeklyGenerate(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(testConfig(), &fakeAPI{}, nil, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	n, err := s.RunWeeklyGenerate(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 generated, got n=%d err=%v", n, err)
	}
	if !strings.Contains(buf.String(), "count=2") {
		t.Fatalf("expected log line, got %s", buf.String())
	}

	s.api = &fakeAPI{genErr: apiclient.ErrNoToken}
	if _, err := s.RunWeeklyGenerate(context.Background()); !errors.Is(err, apiclient.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestRunStampReminder(t *testing.T) {
	api := &fakeAPI{challenges: []apiclient.Challenge{
		{ID: 1, Title: "물 2L", Status: "IN_PROGRESS", StartDate: "2026-10-16", Stamps: []bool{true, true, false, false}},
		{ID: 2, Title: "야식 끊기", Status: "IN_PROGRESS", StartDate: "2026-10-16", Stamps: []bool{true, true, true, false}},
		{ID: 3, Title: "미래", Status: "IN_PROGRESS", StartDate: "2026-10-25", Stamps: []bool{false, false}},
		{ID: 4, Title: "끝남", Status: "SUCCESS", StartDate: "2026-10-16", Stamps: []bool{false, false, false}},
	}}
	notifier := &recordingNotifier{}

	s, err := New(testConfig(), api, notifier, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }

	reminders, err := s.RunStampReminder(context.Background())
	if err != nil {
		t.Fatalf("RunStampReminder: %v", err)
	}
	if len(api.statuses) != 1 || api.statuses[0] != "IN_PROGRESS" {
		t.Fatalf("expected in-progress filter, got %v", api.statuses)
	}
	if len(reminders) != 1 || reminders[0].ChallengeID != 1 || reminders[0].Day != 3 {
		t.Fatalf("expected a reminder for challenge 1 on day 3, got %+v", reminders)
	}
	if reminders[0].Progress.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %+v", reminders[0].Progress)
	}
	if len(notifier.got) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.got))
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: log.New(&buf, "", 0)}
	_ = n.Notify(context.Background(), Reminder{ChallengeID: 7, Title: "채소", Day: 2})
	if !strings.Contains(buf.String(), "challenge_id=7") {
		t.Fatalf("unexpected log %s", buf.String())
	}
}

func TestOverlappingRunIsSkippedWithoutLogger(t *testing.T) {
	s, err := New(testConfig(), &fakeAPI{}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var runs atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	if err := s.add("slow", "@every 1h", func(ctx context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	s.mu.Lock()
	entry := s.cron.Entry(s.entries["slow"])
	s.mu.Unlock()

	first := make(chan struct{})
	go func() {
		entry.WrappedJob.Run()
		close(first)
	}()
	<-started

	second := make(chan struct{})
	go func() {
		entry.WrappedJob.Run()
		close(second)
	}()
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("overlapping run was not skipped")
	}

	close(release)
	<-first
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected one run, got %d", got)
	}
}
