package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Month is a calendar month key in "YYYY-MM" form. All monthly aggregation
// windows derived from it are half-open [start, end) in the caller's
// timezone.
type Month string

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth validates and returns a Month from a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	if !monthPattern.MatchString(s) {
		return "", fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return Month(s), nil
}

// MonthOf returns the Month containing t in the given location.
func MonthOf(t time.Time, loc *time.Location) Month {
	return Month(t.In(loc).Format("2006-01"))
}

func (m Month) String() string { return string(m) }

// Valid reports whether the month key is well-formed.
func (m Month) Valid() bool { return monthPattern.MatchString(string(m)) }

func (m Month) time(loc *time.Location) time.Time {
	t, err := time.ParseInLocation("2006-01", string(m), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Window returns the half-open [start, end) interval covering the month in loc.
func (m Month) Window(loc *time.Location) (start, end time.Time) {
	start = m.time(loc)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return Month(m.time(time.UTC).AddDate(0, 1, 0).Format("2006-01"))
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	return Month(m.time(time.UTC).AddDate(0, -1, 0).Format("2006-01"))
}

// Contains reports whether t falls inside the month window in loc.
func (m Month) Contains(t time.Time, loc *time.Location) bool {
	start, end := m.Window(loc)
	return !t.Before(start) && t.Before(end)
}
