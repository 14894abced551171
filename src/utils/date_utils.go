package utils

import (
	"time"
)

const ISODateFormat = "2006-01-02"

// DateOnly truncates a time to midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AdjustWeekend moves a date off the weekend for market price lookups:
// Saturday resolves to the prior Friday, Sunday to the next Monday.
func AdjustWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

// FirstBusinessDayOfYear returns the first weekday of the year containing t.
func FirstBusinessDayOfYear(t time.Time) time.Time {
	d := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// MonthKey returns the year and month of a date, used to index the monthly
// benchmark return tables.
func MonthKey(t time.Time) (int, time.Month) {
	return t.Year(), t.Month()
}

// DaysBetween returns the number of whole days from a to b (b after a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
