package viewstate

import "math"

// CalorieLevel buckets consumed vs. recommended calories.
type CalorieLevel string

const (
	CalorieDeficient CalorieLevel = "부족"
	CalorieAdequate  CalorieLevel = "적정"
	CalorieExcess    CalorieLevel = "과다"
)

const (
	adequateThreshold = 60.0
	excessThreshold   = 100.0
)

// CalorieStatus is the result of ClassifyCalories.
type CalorieStatus struct {
	Level CalorieLevel `json:"level"`
	// FillPercent is clamped to [0,100] for progress bars.
	FillPercent float64 `json:"fill_percent"`
	// RawPercent is the unclamped ratio used for classification.
	RawPercent float64 `json:"raw_percent"`
}

// ClassifyCalories buckets consumed/recommended: <60% 부족, <100% 적정, otherwise 과다.
// A zero, negative or missing recommendation yields 부족 at 0%.
func ClassifyCalories(consumed, recommended float64) CalorieStatus {
	if recommended <= 0 || math.IsNaN(recommended) || math.IsNaN(consumed) {
		return CalorieStatus{Level: CalorieDeficient}
	}
	if consumed < 0 {
		consumed = 0
	}

	raw := consumed * 100 / recommended

	level := CalorieExcess
	switch {
	case raw < adequateThreshold:
		level = CalorieDeficient
	case raw < excessThreshold:
		level = CalorieAdequate
	}

	return CalorieStatus{
		Level:       level,
		FillPercent: math.Min(math.Max(raw, 0), 100),
		RawPercent:  raw,
	}
}

// Color returns the display token for progress bars and calendar marks.
func (l CalorieLevel) Color() string {
	switch l {
	case CalorieAdequate:
		return "green"
	case CalorieExcess:
		return "red"
	default:
		return "yellow"
	}
}
