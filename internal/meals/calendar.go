package meals

import (
	"context"
	"sync"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

// mealsPerDay splits the daily target into a per-meal share for card tags.
const mealsPerDay = 3

// API is the subset of the backend client the meal screens use.
type API interface {
	ListMeals(ctx context.Context, date string) ([]apiclient.Meal, error)
	DeleteMeal(ctx context.Context, mealID int64) error
}

type Logger interface {
	Printf(format string, v ...any)
}

// MealCard is one meal as shown in the day list.
type MealCard struct {
	Meal         apiclient.Meal             `json:"meal"`
	TopNutrients []viewstate.RankedNutrient `json:"top_nutrients"`
	Tag          viewstate.CalorieLevel     `json:"tag"`
	TagColor     string                     `json:"tag_color"`
}

// DaySummary is the derived view of the selected day.
type DaySummary struct {
	Date        string                  `json:"date"`
	Consumed    float64                 `json:"consumed"`
	Recommended float64                 `json:"recommended"`
	Status      viewstate.CalorieStatus `json:"status"`
	Cards       []MealCard              `json:"cards"`
	Loading     bool                    `json:"loading,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// Calendar holds the meal calendar screen state: the selected date and its meals.
// Meals are only replaced by a fetch; the one local mutation is removing a deleted meal.
type Calendar struct {
	api    API
	logger Logger

	mu          sync.Mutex
	recommended float64
	selected    string
	meals       []apiclient.Meal
	mealsDate   string
	daily       map[string]float64
	errMsg      string
}

func NewCalendar(api API, recommended float64, logger Logger) *Calendar {
	return &Calendar{
		api:         api,
		logger:      logger,
		recommended: recommended,
		daily:       make(map[string]float64),
	}
}

// SetRecommended updates the daily calorie target used for statuses and marks.
func (c *Calendar) SetRecommended(kcal float64) {
	c.mu.Lock()
	c.recommended = kcal
	c.mu.Unlock()
}

// Select makes date the selected day and fetches its meals once.
// A response for a date that is no longer selected is dropped.
func (c *Calendar) Select(ctx context.Context, date string) error {
	c.mu.Lock()
	c.selected = date
	c.mu.Unlock()

	return c.fetch(ctx, date)
}

// Refresh re-fetches the selected day.
func (c *Calendar) Refresh(ctx context.Context) error {
	c.mu.Lock()
	date := c.selected
	c.mu.Unlock()

	if date == "" {
		return nil
	}
	return c.fetch(ctx, date)
}

func (c *Calendar) fetch(ctx context.Context, date string) error {
	meals, err := c.api.ListMeals(ctx, date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != date {
		logf(c.logger, "INFO meals.calendar: stale response dropped date=%s selected=%s", date, c.selected)
		return nil
	}

	if err != nil {
		logf(c.logger, "WARN meals.calendar: fetch_failed date=%s err=%v", date, err)
		c.meals = nil
		c.mealsDate = date
		c.errMsg = apiclient.UserMessage(err)
		return err
	}

	c.meals = meals
	c.mealsDate = date
	c.errMsg = ""
	c.daily[date] = totalCalories(meals)
	return nil
}

// Delete removes a saved meal on the backend and then from the in-memory list.
// Other meals of the day are left untouched. The daily total is updated for the
// day the list was loaded for, which may differ from a newly selected day still loading.
func (c *Calendar) Delete(ctx context.Context, mealID int64) error {
	if err := c.api.DeleteMeal(ctx, mealID); err != nil {
		logf(c.logger, "WARN meals.calendar: delete_failed meal_id=%d err=%v", mealID, err)
		c.mu.Lock()
		c.errMsg = apiclient.UserMessage(err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]apiclient.Meal, 0, len(c.meals))
	for _, m := range c.meals {
		if m.ID != mealID {
			kept = append(kept, m)
		}
	}
	c.meals = kept
	if c.mealsDate != "" {
		c.daily[c.mealsDate] = totalCalories(kept)
	}

	logf(c.logger, "INFO meals.calendar: deleted meal_id=%d remaining=%d", mealID, len(kept))
	return nil
}

func (c *Calendar) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Meals returns a copy of the selected day's meals.
// It is empty while the selected day is still loading.
func (c *Calendar) Meals() []apiclient.Meal {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.current()
	out := make([]apiclient.Meal, len(current))
	copy(out, current)
	return out
}

// current is the meal list shown for the selected day; c.mu must be held.
// The list loaded for a previous day is never shown under a new date.
func (c *Calendar) current() []apiclient.Meal {
	if c.mealsDate != c.selected {
		return nil
	}
	return c.meals
}

func (c *Calendar) Summary() DaySummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	meals := c.current()
	consumed := totalCalories(meals)
	perMeal := c.recommended / mealsPerDay

	cards := make([]MealCard, 0, len(meals))
	for _, m := range meals {
		tag := viewstate.ClassifyCalories(m.Calories, perMeal).Level
		cards = append(cards, MealCard{
			Meal:         m,
			TopNutrients: viewstate.RankNutrients(m.NutrientFields()),
			Tag:          tag,
			TagColor:     tag.Color(),
		})
	}

	return DaySummary{
		Date:        c.selected,
		Consumed:    consumed,
		Recommended: c.recommended,
		Status:      viewstate.ClassifyCalories(consumed, c.recommended),
		Cards:       cards,
		Loading:     c.selected != "" && c.mealsDate != c.selected,
		Error:       c.errMsg,
	}
}

// Marks returns the calendar marks for every day fetched so far.
func (c *Calendar) Marks() []viewstate.CalendarMark {
	c.mu.Lock()
	defer c.mu.Unlock()
	return viewstate.CalendarMarks(c.daily, c.recommended, c.selected)
}

func (c *Calendar) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func totalCalories(meals []apiclient.Meal) float64 {
	var total float64
	for _, m := range meals {
		total += m.Calories
	}
	return total
}

func logf(logger Logger, format string, v ...any) {
	if logger == nil {
		return
	}
	logger.Printf(format, v...)
}
