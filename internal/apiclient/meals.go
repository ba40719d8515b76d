package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Meal time slots as displayed.
const (
	MealTimeBreakfast = "아침"
	MealTimeLunch     = "점심"
	MealTimeDinner    = "저녁"
	MealTimeUnset     = ""
)

// UnsavedMealID marks a meal that has not been persisted by the backend.
const UnsavedMealID int64 = -1

// Meal is one record of GET /meals.
type Meal struct {
	ID        int64
	Title     string
	MealTime  string
	Date      string
	Calories  float64
	ImageURL  string
	Nutrients map[string]float64
}

// NutrientFields returns the nutrients as a loosely typed record, the shape the
// meal card ranker consumes.
func (m Meal) NutrientFields() map[string]any {
	out := make(map[string]any, len(m.Nutrients))
	for k, v := range m.Nutrients {
		out[k] = v
	}
	return out
}

type mealWire struct {
	MealID   *Number        `json:"mealId"`
	ID       *Number        `json:"id"`
	Title    Text           `json:"title"`
	MealName Text           `json:"mealName"`
	MealTime Text           `json:"mealTime"`
	Date     Text           `json:"date"`
	Calories Number         `json:"calories"`
	ImageURL Text           `json:"imageUrl"`
	Protein  OptionalNumber `json:"protein"`
	Carbs    OptionalNumber `json:"carbs"`
	Sugar    OptionalNumber `json:"sugar"`
	Fat      OptionalNumber `json:"fat"`
}

func (w mealWire) toMeal(fallbackDate string) Meal {
	id := UnsavedMealID
	switch {
	case w.MealID != nil:
		id = int64(*w.MealID)
	case w.ID != nil:
		id = int64(*w.ID)
	}

	title := strings.TrimSpace(w.Title.String())
	if title == "" {
		title = strings.TrimSpace(w.MealName.String())
	}

	date := strings.TrimSpace(w.Date.String())
	if len(date) >= 10 {
		date = date[:10]
	}
	if date == "" {
		date = fallbackDate
	}

	nutrients := make(map[string]float64, 4)
	for key, n := range map[string]OptionalNumber{"protein": w.Protein, "carbs": w.Carbs, "sugar": w.Sugar, "fat": w.Fat} {
		if n.Valid {
			nutrients[key] = n.Value
		}
	}

	return Meal{
		ID:        id,
		Title:     title,
		MealTime:  NormalizeMealTime(w.MealTime.String()),
		Date:      date,
		Calories:  w.Calories.Float(),
		ImageURL:  strings.TrimSpace(w.ImageURL.String()),
		Nutrients: nutrients,
	}
}

// NormalizeMealTime maps server or user input onto 아침/점심/저녁, "" when unknown.
func NormalizeMealTime(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case MealTimeBreakfast, "BREAKFAST", "MORNING":
		return MealTimeBreakfast
	case MealTimeLunch, "LUNCH":
		return MealTimeLunch
	case MealTimeDinner, "DINNER", "EVENING":
		return MealTimeDinner
	default:
		return MealTimeUnset
	}
}

// ListMeals returns the meals logged on date (YYYY-MM-DD).
func (c *Client) ListMeals(ctx context.Context, date string) ([]Meal, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &ValidationError{Field: "date", Message: "날짜 형식이 올바르지 않습니다."}
	}

	body, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/meals",
		query:  url.Values{"date": []string{date}},
		auth:   true,
	})
	if err != nil {
		return nil, err
	}

	list, ok := unwrapList(body, "data", "meals", "content")
	if !ok {
		return nil, malformed("meals response is not a list")
	}

	var wires []mealWire
	if err := decodeJSON(list, &wires); err != nil {
		return nil, err
	}

	meals := make([]Meal, 0, len(wires))
	for _, w := range wires {
		meals = append(meals, w.toMeal(date))
	}
	return meals, nil
}

// DeleteMeal deletes a saved meal.
func (c *Client) DeleteMeal(ctx context.Context, mealID int64) error {
	if mealID < 0 {
		return &ValidationError{Field: "mealId", Message: "저장되지 않은 식사입니다."}
	}
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/meals/" + strconv.FormatInt(mealID, 10),
		auth:   true,
	})
	return err
}

func malformed(msg string) error {
	return &malformedError{msg: msg}
}

type malformedError struct{ msg string }

func (e *malformedError) Error() string { return ErrMalformedResponse.Error() + ": " + e.msg }
func (e *malformedError) Unwrap() error { return ErrMalformedResponse }
