package viewstate

import (
	"sort"
	"time"
)

// CalendarMark decorates one day of the meal calendar.
type CalendarMark struct {
	Date     string       `json:"date"`
	Level    CalorieLevel `json:"level"`
	Color    string       `json:"color"`
	Selected bool         `json:"selected"`
}

// CalendarMarks builds marks for the days that have any calories logged, plus the
// selected day (always marked, even when empty). Invalid dates are skipped.
func CalendarMarks(dailyCalories map[string]float64, recommended float64, selected string) []CalendarMark {
	marks := make([]CalendarMark, 0, len(dailyCalories)+1)
	seenSelected := false

	for date, consumed := range dailyCalories {
		if _, ok := parseDate(date); !ok {
			continue
		}
		if consumed <= 0 && date != selected {
			continue
		}
		status := ClassifyCalories(consumed, recommended)
		marks = append(marks, CalendarMark{
			Date:     date,
			Level:    status.Level,
			Color:    status.Level.Color(),
			Selected: date == selected,
		})
		if date == selected {
			seenSelected = true
		}
	}

	if !seenSelected {
		if _, ok := parseDate(selected); ok {
			marks = append(marks, CalendarMark{
				Date:     selected,
				Level:    CalorieDeficient,
				Color:    CalorieDeficient.Color(),
				Selected: true,
			})
		}
	}

	sort.Slice(marks, func(i, j int) bool { return marks[i].Date < marks[j].Date })
	return marks
}

// MonthRange returns the first and last ISO dates of the month containing date.
func MonthRange(date string) (string, string, bool) {
	t, ok := parseDate(date)
	if !ok {
		return "", "", false
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), true
}
