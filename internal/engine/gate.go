package engine

import (
	"time"

	"github.com/Veraticus/revenue-guardian/internal/model"
)

// DayOffset returns the number of calendar days from one date to another.
// Times are reduced to their calendar date before comparing.
func DayOffset(from, to time.Time) int {
	return model.CalendarDays(from, to)
}

// WithinWindow reports whether two dates are at most days apart.
func WithinWindow(a, b time.Time, days int) bool {
	return abs(DayOffset(a, b)) <= days
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
