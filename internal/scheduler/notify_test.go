package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

type recordingSender struct {
	to, subject, body string
	err               error
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.to, s.subject, s.body = to, subject, body
	return s.err
}

type countingNotifier struct {
	n   int
	err error
}

func (c *countingNotifier) Notify(context.Context, Reminder) error {
	c.n++
	return c.err
}

func TestMailNotifier(t *testing.T) {
	sender := &recordingSender{}
	n := MailNotifier{Sender: sender, To: "me@example.com"}
	r := Reminder{ChallengeID: 7, Title: "물 2L 마시기", Day: 3, Progress: viewstate.StampProgress{Done: 2, Total: 7, CurrentStreak: 2}}

	if err := n.Notify(context.Background(), r); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sender.to != "me@example.com" {
		t.Fatalf("to=%q", sender.to)
	}
	if !strings.Contains(sender.subject, "물 2L 마시기") || !strings.Contains(sender.subject, "3일차") {
		t.Fatalf("subject=%q", sender.subject)
	}
	if !strings.Contains(sender.body, "2/7") {
		t.Fatalf("body=%q", sender.body)
	}

	sender.err = errors.New("smtp down")
	if err := n.Notify(context.Background(), r); err == nil || !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestNotifiersFanOut(t *testing.T) {
	first := &countingNotifier{err: errors.New("first failed")}
	second := &countingNotifier{}

	err := Notifiers{first, second}.Notify(context.Background(), Reminder{})
	if first.n != 1 || second.n != 1 {
		t.Fatalf("expected both notified, got %d and %d", first.n, second.n)
	}
	if err == nil || !strings.Contains(err.Error(), "first failed") {
		t.Fatalf("expected joined error, got %v", err)
	}
}
