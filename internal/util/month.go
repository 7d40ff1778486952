package util

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// ParseMonth parses a YYYY-MM calendar month
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("month must be YYYY-MM: %w", err)
	}
	return t.Year(), t.Month(), nil
}

// MonthBounds returns the first and last instant of a calendar month in UTC. Both are inclusive.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	end := lastDay.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
