package model

import "time"

const secondsPerDay = 24 * 60 * 60

// CalendarDays counts whole calendar days from one date to another, ignoring
// time of day. It works on civil day numbers, so any span of years is exact.
func CalendarDays(from, to time.Time) int {
	return int(dayNumber(to) - dayNumber(from))
}

func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}
