package home

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/challenges"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

// Dashboard sections. Each one loads and fails on its own.
const (
	SectionProfile        = "profile"
	SectionMeals          = "meals"
	SectionRecommendation = "recommendation"
	SectionChallenges     = "challenges"
)

type API interface {
	Me(ctx context.Context) (*apiclient.User, error)
	ListMeals(ctx context.Context, date string) ([]apiclient.Meal, error)
	TodayRecommendation(ctx context.Context) (*apiclient.Recommendation, error)
	MyChallenges(ctx context.Context, statuses ...string) ([]apiclient.Challenge, error)
}

type Logger interface {
	Printf(format string, v ...any)
}

type ChallengeCard struct {
	Challenge apiclient.Challenge          `json:"challenge"`
	State     viewstate.ParticipationState `json:"state"`
	Progress  viewstate.StampProgress      `json:"progress"`
}

// Snapshot is the home screen after one refresh.
type Snapshot struct {
	Date           string                    `json:"date"`
	User           *apiclient.User           `json:"user,omitempty"`
	Meals          []apiclient.Meal          `json:"meals"`
	Consumed       float64                   `json:"consumed"`
	Recommended    float64                   `json:"recommended"`
	Calories       viewstate.CalorieStatus   `json:"calories"`
	Recommendation *apiclient.Recommendation `json:"recommendation,omitempty"`
	Challenges     []ChallengeCard           `json:"challenges"`
	// Errors holds a user-facing message per failed section.
	Errors map[string]string `json:"errors,omitempty"`
}

type Dashboard struct {
	api    API
	loc    *time.Location
	now    func() time.Time
	logger Logger

	mu   sync.Mutex
	last Snapshot
}

func NewDashboard(api API, loc *time.Location, logger Logger) *Dashboard {
	if loc == nil {
		loc = time.Local
	}
	return &Dashboard{api: api, loc: loc, now: time.Now, logger: logger}
}

// Refresh loads every section concurrently. A failing section is recorded in
// Snapshot.Errors and does not cancel the others. The returned error is the first
// section failure; Snapshot.Errors lists all of them.
func (d *Dashboard) Refresh(ctx context.Context) (Snapshot, error) {
	now := d.now().In(d.loc)
	snap := Snapshot{Date: now.Format(viewstate.DateLayout), Errors: map[string]string{}}

	var mu sync.Mutex
	fail := func(section string, err error) error {
		logf(d.logger, "WARN home: section=%s err=%v", section, err)
		mu.Lock()
		snap.Errors[section] = apiclient.UserMessage(err)
		mu.Unlock()
		return fmt.Errorf("%s: %w", section, err)
	}

	var (
		user  *apiclient.User
		meals []apiclient.Meal
		rec   *apiclient.Recommendation
		list  []apiclient.Challenge
	)

	// No shared cancellation: one section failing leaves the rest loading.
	var g errgroup.Group

	g.Go(func() error {
		u, err := d.api.Me(ctx)
		if err != nil {
			return fail(SectionProfile, err)
		}
		user = u
		return nil
	})

	g.Go(func() error {
		m, err := d.api.ListMeals(ctx, snap.Date)
		if err != nil {
			return fail(SectionMeals, err)
		}
		meals = m
		return nil
	})

	g.Go(func() error {
		r, err := d.api.TodayRecommendation(ctx)
		if err != nil {
			return fail(SectionRecommendation, err)
		}
		rec = r
		return nil
	})

	g.Go(func() error {
		c, err := d.api.MyChallenges(ctx, viewstate.ServerStatusInProgress)
		if err != nil {
			return fail(SectionChallenges, err)
		}
		list = c
		return nil
	})

	err := g.Wait()

	snap.User = user
	snap.Meals = meals
	snap.Recommendation = rec
	for _, m := range meals {
		snap.Consumed += m.Calories
	}

	switch {
	case rec != nil && rec.RecommendedCalories > 0:
		snap.Recommended = rec.RecommendedCalories
	case user != nil:
		snap.Recommended = user.RecommendedCalories
	}
	snap.Calories = viewstate.ClassifyCalories(snap.Consumed, snap.Recommended)

	snap.Challenges = make([]ChallengeCard, 0, len(list))
	for _, ch := range list {
		snap.Challenges = append(snap.Challenges, ChallengeCard{
			Challenge: ch,
			State:     viewstate.MapChallengeStatus(ch.Status, viewstate.VariantList),
			Progress:  challenges.Progress(ch, now, d.loc),
		})
	}

	if len(snap.Errors) == 0 {
		snap.Errors = nil
	}

	d.mu.Lock()
	d.last = snap
	d.mu.Unlock()

	return snap, err
}

// Last returns the most recent snapshot.
func (d *Dashboard) Last() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
