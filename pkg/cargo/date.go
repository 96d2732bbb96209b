package cargo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// Date is a calendar day without time of day or zone.
// The zero value is the absent date.
type Date struct {
	t     time.Time // UTC midnight
	valid bool
}

// NewDate builds a date. Out-of-range values normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), valid: true}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses s with layout and keeps only the calendar day.
func ParseDate(layout, s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Valid reports whether the date is present.
func (d Date) Valid() bool { return d.valid }

// Time returns UTC midnight of the day, or the zero time when absent.
func (d Date) Time() time.Time { return d.t }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }

// Equal reports whether both dates are absent or both name the same day.
func (d Date) Equal(o Date) bool { return d.valid == o.valid && d.t.Equal(o.t) }

// Compare returns -1, 0 or +1. Absent dates sort first.
func (d Date) Compare(o Date) int {
	switch {
	case d.valid != o.valid:
		if !d.valid {
			return -1
		}
		return 1
	default:
		return d.t.Compare(o.t)
	}
}

// DaysSince returns d - o in whole days.
func (d Date) DaysSince(o Date) int {
	return int(d.t.Sub(o.t).Hours() / 24)
}

// Month returns the "2006-01" bucket of the date, or "" when absent.
func (d Date) Month() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(monthLayout)
}

func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(dateLayout, s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
