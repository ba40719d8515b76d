package viewstate

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for every date exchanged with the backend.
const DateLayout = "2006-01-02"

// WeekStart is the first day of a calendar week (ko locale).
// PartitionWeeks and WeekLabel both depend on it, so labels from the two paths always agree.
const WeekStart = time.Sunday

// Week describes one selectable week in the report browser.
type Week struct {
	Year        int    `json:"year"`
	Month       int    `json:"month"`
	WeekOfMonth int    `json:"week_of_month"`
	Label       string `json:"label"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
}

// PartitionWeeks returns the weeks from the one containing the first day of the
// previous month up to the last completed week, oldest first.
//
// A week belongs to the month its last day falls in. WeekOfMonth restarts at 1
// whenever that month changes, which makes WeekLabel(w.EndDate) == w.Label.
func PartitionWeeks(now time.Time) []Week {
	today := truncateToDay(now)
	prevMonthStart := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())

	first := startOfWeek(prevMonthStart)
	lastStart := startOfWeek(today).AddDate(0, 0, -7)

	weeks := make([]Week, 0, 10)
	monthKey := -1
	n := 0
	for ws := first; !ws.After(lastStart); ws = ws.AddDate(0, 0, 7) {
		we := ws.AddDate(0, 0, 6)
		key := we.Year()*12 + int(we.Month())
		if key != monthKey {
			monthKey = key
			n = 1
		} else {
			n++
		}

		weeks = append(weeks, Week{
			Year:        we.Year(),
			Month:       int(we.Month()),
			WeekOfMonth: n,
			Label:       formatWeekLabel(we.Year(), int(we.Month()), n),
			StartDate:   ws.Format(DateLayout),
			EndDate:     we.Format(DateLayout),
		})
	}

	return weeks
}

// WeekLabel formats a date as "{yy}년 {m}월 {n}주차". The first (possibly partial)
// week of the month is week 1. Unparseable input yields "".
func WeekLabel(date string) string {
	t, ok := parseDate(date)
	if !ok {
		return ""
	}

	monthStart := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	n := daysBetween(startOfWeek(monthStart), startOfWeek(t))/7 + 1

	return formatWeekLabel(t.Year(), int(t.Month()), n)
}

func formatWeekLabel(year, month, week int) string {
	return fmt.Sprintf("%02d년 %d월 %d주차", year%100, month, week)
}

var acceptedDateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateToDay(t), true
		}
	}
	return time.Time{}, false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	d := truncateToDay(t)
	offset := (int(d.Weekday()) - int(WeekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// daysBetween tolerates DST shifts between two local midnights.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
