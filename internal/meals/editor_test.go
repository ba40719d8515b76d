package meals

import (
	"math"
	"testing"

	"github.com/snapmeal/snapmeal-go/internal/apiclient"
)

func TestNewEditorDefaults(t *testing.T) {
	e := NewEditor(nil, "2026-10-14")
	d := e.Draft()

	if d.MealID != apiclient.UnsavedMealID {
		t.Fatalf("expected unsaved id, got %d", d.MealID)
	}
	if len(d.Items) != 5 || e.TotalGrams() != 47 {
		t.Fatalf("expected default breakdown of 47g, got %d items %vg", len(d.Items), e.TotalGrams())
	}
	if d.Items[0].Percent != 42.6 {
		t.Fatalf("expected 42.6%%, got %v", d.Items[0].Percent)
	}
}

func TestEditorSetGramsRecomputes(t *testing.T) {
	e := NewEditor(nil, "2026-10-14")
	if err := e.SetGrams(1, 33); err != nil {
		t.Fatalf("SetGrams: %v", err)
	}

	var sum float64
	for _, it := range e.Draft().Items {
		sum += it.Percent
	}
	if math.Abs(sum-100) > 0.5 {
		t.Fatalf("expected percentages to sum to ~100, got %v", sum)
	}
	if e.Draft().Items[0].Percent != 55 {
		t.Fatalf("expected 55%%, got %v", e.Draft().Items[0].Percent)
	}

	if err := e.SetGrams(42, 1); !apiclient.IsValidation(err) {
		t.Fatalf("expected validation error for unknown key, got %v", err)
	}
	if err := e.SetGrams(1, -3); !apiclient.IsValidation(err) {
		t.Fatalf("expected validation error for negative grams, got %v", err)
	}
}

func TestEditorFromSavedMeal(t *testing.T) {
	meal := &apiclient.Meal{
		ID:        7,
		Title:     "비빔밥",
		MealTime:  apiclient.MealTimeLunch,
		Date:      "2026-10-14",
		Nutrients: map[string]float64{"carbs": 30, "protein": 10},
	}
	d := NewEditor(meal, "").Draft()

	if d.MealID != 7 || d.Date != "2026-10-14" {
		t.Fatalf("unexpected draft %+v", d)
	}
	if d.Items[0].Grams != 30 || d.Items[0].Percent != 75 {
		t.Fatalf("expected carbs 30g 75%%, got %+v", d.Items[0])
	}
	if d.Items[2].Grams != 0 || d.Items[2].Percent != 0 {
		t.Fatalf("expected fat 0g, got %+v", d.Items[2])
	}
}

func TestEditorValidate(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		mealTime  string
		wantField string
	}{
		{name: "Valid", title: "김밥", mealTime: "점심"},
		{name: "EnglishMealTime", title: "김밥", mealTime: "dinner"},
		{name: "MissingTitle", title: " ", mealTime: "점심", wantField: "title"},
		{name: "MissingMealTime", title: "김밥", mealTime: "", wantField: "mealTime"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(nil, "2026-10-14")
			e.SetTitle(tt.title)
			if err := e.SetMealTime(tt.mealTime); err != nil {
				t.Fatalf("SetMealTime: %v", err)
			}

			err := e.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid draft, got %v", err)
				}
				return
			}
			vErr, ok := err.(*apiclient.ValidationError)
			if !ok || vErr.Field != tt.wantField {
				t.Fatalf("expected validation error on %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestEditorRejectsUnknownMealTime(t *testing.T) {
	e := NewEditor(nil, "2026-10-14")
	if err := e.SetMealTime("brunch"); !apiclient.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
