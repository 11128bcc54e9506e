package models

import (
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping its calendar date in t's location, as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from `from` to `to`. Negative when to precedes from.
// Unix seconds are used because time.Duration saturates at about 292 years.
func DaysBetween(from, to time.Time) int {
	return int((DateOf(to).Unix() - DateOf(from).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
