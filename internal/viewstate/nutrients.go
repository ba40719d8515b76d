package viewstate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// RankedNutrient is one entry of the compact top-2 summary on a meal card.
type RankedNutrient struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value string  `json:"value"` // "{grams}g"
	Grams float64 `json:"-"`
}

// rankedFields is also the tie-break order.
var rankedFields = []struct {
	key   string
	label string
}{
	{"protein", "단백질"},
	{"carbs", "탄수화물"},
	{"sugar", "당류"},
	{"fat", "지방"},
}

// RankNutrients picks the two largest numeric nutrient values of a meal record.
// Missing and non-numeric fields are skipped; fewer than two results is not an error.
func RankNutrients(fields map[string]any) []RankedNutrient {
	candidates := make([]RankedNutrient, 0, len(rankedFields))
	for _, f := range rankedFields {
		v, ok := numericValue(fields[f.key])
		if !ok {
			continue
		}
		candidates = append(candidates, RankedNutrient{
			Key:   f.key,
			Label: f.label,
			Value: FormatGrams(v),
			Grams: v,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Grams > candidates[j].Grams
	})

	if len(candidates) > 2 {
		candidates = candidates[:2]
	}
	return candidates
}

// FormatGrams renders a gram value without trailing zeros, e.g. 30 -> "30g", 2.5 -> "2.5g".
func FormatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "g"
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NutrientItem is one editable row of the meal editor's nutrient breakdown.
type NutrientItem struct {
	Key     int     `json:"key"`
	Label   string  `json:"label"`
	Grams   float64 `json:"grams"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// DefaultNutrientItems returns the breakdown shown for a meal that has not been saved yet.
func DefaultNutrientItems() []NutrientItem {
	return RecomputePercents([]NutrientItem{
		{Key: 1, Label: "탄수화물", Grams: 20, Color: "orange"},
		{Key: 2, Label: "단백질", Grams: 13, Color: "green"},
		{Key: 3, Label: "지방", Grams: 5, Color: "blue"},
		{Key: 4, Label: "당류", Grams: 3, Color: "pink"},
		{Key: 5, Label: "식이섬유", Grams: 6, Color: "purple"},
	})
}

// RecomputePercents returns a copy of items with each Percent set to its share of
// the total grams, rounded to one decimal. A zero total gives 0 everywhere.
func RecomputePercents(items []NutrientItem) []NutrientItem {
	out := make([]NutrientItem, len(items))
	copy(out, items)

	var total float64
	for _, it := range out {
		if it.Grams > 0 {
			total += it.Grams
		}
	}

	for i := range out {
		if total <= 0 || out[i].Grams <= 0 {
			out[i].Percent = 0
			continue
		}
		out[i].Percent = round1(out[i].Grams / total * 100)
	}
	return out
}

// SetGrams updates one item's grams and recomputes every percentage.
func SetGrams(items []NutrientItem, key int, grams float64) ([]NutrientItem, error) {
	if grams < 0 || math.IsNaN(grams) || math.IsInf(grams, 0) {
		return nil, fmt.Errorf("invalid grams value: %v", grams)
	}

	idx := -1
	for i, it := range items {
		if it.Key == key {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("nutrient item %d not found", key)
	}

	updated := make([]NutrientItem, len(items))
	copy(updated, items)
	updated[idx].Grams = grams
	return RecomputePercents(updated), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
