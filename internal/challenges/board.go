package challenges

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

var (
	ErrNotFound          = errors.New("challenge not found")
	ErrInvalidTransition = errors.New("invalid participation transition")
	ErrPending           = errors.New("participation change already in flight")
)

// API is the subset of the backend client used by the challenge screens.
type API interface {
	MyChallenges(ctx context.Context, statuses ...string) ([]apiclient.Challenge, error)
	GenerateWeekly(ctx context.Context) ([]apiclient.Challenge, error)
	Participate(ctx context.Context, challengeID int64) error
	GiveUp(ctx context.Context, challengeID int64) error
	Review(ctx context.Context, challengeID int64, in apiclient.ReviewRequest) error
}

type Logger interface {
	Printf(format string, v ...any)
}

// Item is a challenge as the screens show it.
type Item struct {
	Challenge apiclient.Challenge          `json:"challenge"`
	State     viewstate.ParticipationState `json:"state"`
	// Pending is true while a join or give-up is applied locally but not yet confirmed.
	Pending  bool                    `json:"pending"`
	Progress viewstate.StampProgress `json:"progress"`
}

type entry struct {
	ch      apiclient.Challenge
	pending bool
}

// Board is the challenge list state. Join and give-up are applied optimistically and rolled
// back when the call fails; a refresh always replaces local state with the server's.
type Board struct {
	api    API
	logger Logger
	loc    *time.Location
	now    func() time.Time

	mu       sync.Mutex
	entries  []*entry
	statuses []string
	gen      uint64
	errMsg   string
}

func NewBoard(api API, loc *time.Location, logger Logger) *Board {
	if loc == nil {
		loc = time.Local
	}
	return &Board{api: api, logger: logger, loc: loc, now: time.Now}
}

// Refresh fetches my challenges, filtered by server statuses when given, and replaces the board.
func (b *Board) Refresh(ctx context.Context, statuses ...string) error {
	list, err := b.api.MyChallenges(ctx, statuses...)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		logf(b.logger, "WARN challenges: fetch_failed err=%v", err)
		b.errMsg = apiclient.UserMessage(err)
		return err
	}

	b.gen++
	b.statuses = append([]string(nil), statuses...)
	b.entries = make([]*entry, 0, len(list))
	for _, ch := range list {
		b.entries = append(b.entries, &entry{ch: ch})
	}
	b.errMsg = ""
	return nil
}

// Generate creates this week's challenges and reloads the board with the last filter.
func (b *Board) Generate(ctx context.Context) (int, error) {
	created, err := b.api.GenerateWeekly(ctx)
	if err != nil {
		logf(b.logger, "WARN challenges: generate_failed err=%v", err)
		b.setErr(err)
		return 0, err
	}
	logf(b.logger, "INFO challenges: generated count=%d", len(created))

	b.mu.Lock()
	statuses := append([]string(nil), b.statuses...)
	b.mu.Unlock()

	return len(created), b.Refresh(ctx, statuses...)
}

// Join moves a not-joined challenge to in progress.
func (b *Board) Join(ctx context.Context, id int64) error {
	return b.transition(ctx, id, "join", viewstate.StateNotJoined, viewstate.ServerStatusInProgress, b.api.Participate)
}

// GiveUp moves an in-progress challenge back to not joined.
func (b *Board) GiveUp(ctx context.Context, id int64) error {
	return b.transition(ctx, id, "give_up", viewstate.StateInProgress, viewstate.ServerStatusPending, b.api.GiveUp)
}

func (b *Board) transition(
	ctx context.Context,
	id int64,
	action string,
	from viewstate.ParticipationState,
	toStatus string,
	call func(context.Context, int64) error,
) error {
	b.mu.Lock()
	e := b.find(id)
	if e == nil {
		b.mu.Unlock()
		return ErrNotFound
	}
	if e.pending {
		b.mu.Unlock()
		return ErrPending
	}
	state := viewstate.MapChallengeStatus(e.ch.Status, viewstate.VariantList)
	if state != from {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, state)
	}

	prevStatus := e.ch.Status
	e.ch.Status = toStatus
	e.pending = true
	gen := b.gen
	b.mu.Unlock()

	err := call(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gen != gen {
		// a refresh landed meanwhile; the server's state is already applied
		return err
	}

	e.pending = false
	if err != nil {
		e.ch.Status = prevStatus
		b.errMsg = apiclient.UserMessage(err)
		logf(b.logger, "WARN challenges: %s_failed id=%d err=%v, rolled back", action, id, err)
		return err
	}

	b.errMsg = ""
	logf(b.logger, "INFO challenges: %s confirmed id=%d", action, id)
	return nil
}

// Review posts a review. Only challenges the user has joined can be reviewed.
func (b *Board) Review(ctx context.Context, id int64, rating int, content string) error {
	req := apiclient.ReviewRequest{Rating: rating, Content: content}
	if err := req.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	e := b.find(id)
	var state viewstate.ParticipationState
	if e != nil {
		state = viewstate.MapChallengeStatus(e.ch.Status, viewstate.VariantList)
	}
	b.mu.Unlock()

	if e == nil {
		return ErrNotFound
	}
	if state == viewstate.StateNotJoined {
		return fmt.Errorf("%w: review from %s", ErrInvalidTransition, state)
	}

	if err := b.api.Review(ctx, id, req); err != nil {
		logf(b.logger, "WARN challenges: review_failed id=%d err=%v", id, err)
		b.setErr(err)
		return err
	}
	logf(b.logger, "INFO challenges: reviewed id=%d rating=%d", id, rating)
	return nil
}

// Items returns the board as the list and home screens show it.
func (b *Board) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Item, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, b.item(e, viewstate.VariantList))
	}
	return out
}

// Detail returns one challenge as the detail screen shows it.
func (b *Board) Detail(id int64) (Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.find(id)
	if e == nil {
		return Item{}, ErrNotFound
	}
	return b.item(e, viewstate.VariantDetail), nil
}

func (b *Board) Err() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errMsg
}

func (b *Board) item(e *entry, variant viewstate.StatusVariant) Item {
	ch := e.ch
	ch.Stamps = append([]bool(nil), e.ch.Stamps...)
	return Item{
		Challenge: ch,
		State:     viewstate.MapChallengeStatus(ch.Status, variant),
		Pending:   e.pending,
		Progress:  Progress(ch, b.now(), b.loc),
	}
}

// Progress summarizes ch's stamps as of now.
func Progress(ch apiclient.Challenge, now time.Time, loc *time.Location) viewstate.StampProgress {
	return viewstate.SummarizeStamps(ch.Stamps, ElapsedDays(ch.StartDate, len(ch.Stamps), now, loc))
}

// ElapsedDays counts the challenge days that have started, today included. An unparseable
// start date counts every day as elapsed.
func ElapsedDays(startDate string, total int, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation(viewstate.DateLayout, startDate, loc)
	if err != nil {
		return total
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if today.Before(start) {
		return 0
	}
	return int(today.Sub(start).Hours()/24+0.5) + 1
}

func (b *Board) find(id int64) *entry {
	for _, e := range b.entries {
		if e.ch.ID == id {
			return e
		}
	}
	return nil
}

func (b *Board) setErr(err error) {
	b.mu.Lock()
	b.errMsg = apiclient.UserMessage(err)
	b.mu.Unlock()
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
