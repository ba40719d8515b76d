package viewstate

// StampProgress summarizes a challenge's daily stamps.
type StampProgress struct {
	Done          int     `json:"done"`
	Total         int     `json:"total"`
	Percent       float64 `json:"percent"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
}

// SummarizeStamps counts stamped days and streaks. elapsed is the number of days of the
// challenge that have started (today included); the current streak is counted backwards
// from the last elapsed day, and an unstamped today does not break it yet.
func SummarizeStamps(stamps []bool, elapsed int) StampProgress {
	p := StampProgress{Total: len(stamps)}
	if len(stamps) == 0 {
		return p
	}

	run := 0
	for _, s := range stamps {
		if s {
			p.Done++
			run++
			if run > p.LongestStreak {
				p.LongestStreak = run
			}
		} else {
			run = 0
		}
	}
	p.Percent = round1(float64(p.Done) / float64(p.Total) * 100)

	if elapsed > len(stamps) {
		elapsed = len(stamps)
	}
	if elapsed <= 0 {
		return p
	}

	i := elapsed - 1
	if !stamps[i] {
		// today still open
		i--
	}
	for ; i >= 0 && stamps[i]; i-- {
		p.CurrentStreak++
	}
	return p
}
