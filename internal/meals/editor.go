package meals

import (
	"strings"
	"unicode/utf8"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
	"github.com/snapmeal/snapmeal-go/internal/viewstate"
)

const maxTitleRunes = 50

// nutrient item keys as laid out by DefaultNutrientItems
var itemKeyByNutrient = map[string]int{
	"carbs":   1,
	"protein": 2,
	"fat":     3,
	"sugar":   4,
}

// Draft is the meal under edit.
type Draft struct {
	MealID   int64                    `json:"meal_id"`
	Title    string                   `json:"title"`
	MealTime string                   `json:"meal_time"`
	Date     string                   `json:"date"`
	ImageURL string                   `json:"image_url,omitempty"`
	Items    []viewstate.NutrientItem `json:"items"`
}

// Editor owns a Draft and keeps its nutrient percentages consistent with the grams.
type Editor struct {
	draft Draft
}

// NewEditor opens meal for editing. A nil meal (or one that was never saved) starts from
// the default nutrient breakdown.
func NewEditor(meal *apiclient.Meal, date string) *Editor {
	d := Draft{MealID: apiclient.UnsavedMealID, Date: date, Items: viewstate.DefaultNutrientItems()}
	if meal == nil {
		return &Editor{draft: d}
	}

	d.MealID = meal.ID
	d.Title = meal.Title
	d.MealTime = meal.MealTime
	d.ImageURL = meal.ImageURL
	if meal.Date != "" {
		d.Date = meal.Date
	}

	if meal.ID != apiclient.UnsavedMealID && len(meal.Nutrients) > 0 {
		items := viewstate.DefaultNutrientItems()
		for i := range items {
			items[i].Grams = 0
		}
		for name, grams := range meal.Nutrients {
			key, ok := itemKeyByNutrient[name]
			if !ok || grams < 0 {
				continue
			}
			for i := range items {
				if items[i].Key == key {
					items[i].Grams = grams
				}
			}
		}
		d.Items = viewstate.RecomputePercents(items)
	}

	return &Editor{draft: d}
}

// SetGrams edits one nutrient and recomputes every percentage.
func (e *Editor) SetGrams(key int, grams float64) error {
	items, err := viewstate.SetGrams(e.draft.Items, key, grams)
	if err != nil {
		return &apiclient.ValidationError{Field: "grams", Message: err.Error()}
	}
	e.draft.Items = items
	return nil
}

func (e *Editor) SetTitle(title string) {
	e.draft.Title = strings.TrimSpace(title)
}

// SetMealTime accepts 아침/점심/저녁 or their English names.
func (e *Editor) SetMealTime(v string) error {
	mt := apiclient.NormalizeMealTime(v)
	if mt == apiclient.MealTimeUnset && strings.TrimSpace(v) != "" {
		return &apiclient.ValidationError{Field: "mealTime", Message: "아침, 점심, 저녁 중에서 선택해 주세요."}
	}
	e.draft.MealTime = mt
	return nil
}

// Validate checks the draft before it is submitted.
func (e *Editor) Validate() error {
	if e.draft.Title == "" {
		return &apiclient.ValidationError{Field: "title", Message: "메뉴 이름을 입력해 주세요."}
	}
	if utf8.RuneCountInString(e.draft.Title) > maxTitleRunes {
		return &apiclient.ValidationError{Field: "title", Message: "메뉴 이름이 너무 깁니다."}
	}
	if e.draft.MealTime == apiclient.MealTimeUnset {
		return &apiclient.ValidationError{Field: "mealTime", Message: "식사 시간을 선택해 주세요."}
	}
	return nil
}

// Draft returns a copy of the meal under edit.
func (e *Editor) Draft() Draft {
	d := e.draft
	d.Items = make([]viewstate.NutrientItem, len(e.draft.Items))
	copy(d.Items, e.draft.Items)
	return d
}

func (e *Editor) TotalGrams() float64 {
	var total float64
	for _, it := range e.draft.Items {
		total += it.Grams
	}
	return total
}
