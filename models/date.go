package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in "YYYY-MM-DD" form. The empty string means no date.
type Date string

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == ""
}

// Time returns midnight UTC of the day. The zero Date yields the zero time.
func (d Date) Time() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays shifts the day by n calendar days. Arithmetic runs in UTC so DST never skews it.
func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is an earlier day than other. Both must be set.
func (d Date) Before(other Date) bool {
	return !d.IsZero() && !other.IsZero() && d < other
}

func (d Date) String() string {
	return string(d)
}
