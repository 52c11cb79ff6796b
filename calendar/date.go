// Package calendar provides the date and clock-time primitives shared by the
// attendance engine. A Date is a calendar day in the configured timezone with
// no clock component; a ClockTime is a wall-clock time with no date component.
// Keeping them separate makes the classification and aggregation arithmetic
// explicit about which half it is operating on.
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - A calendar day (no clock component)
// =============================================================================

// Date identifies one calendar day. It is stored internally at midnight UTC so
// comparisons and day arithmetic never shift across a DST boundary.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf extracts the calendar day from an already-localized time.
// Callers are responsible for localizing first; see schedule.Zone.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }
func (d Date) IsZero() bool           { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// DaysBetween returns the number of whole days from d to other.
// Negative when other is earlier.
func (d Date) DaysBetween(other Date) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

// YearMonth returns the YYYY-MM key used for monthly rollups.
func (d Date) YearMonth() string { return d.t.Format("2006-01") }

func (d Date) String() string { return d.t.Format(dateLayout) }

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }

// MarshalText / UnmarshalText keep the persisted form canonical.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// RANGE - An inclusive span of calendar days
// =============================================================================

// Range is an inclusive [From, To] span. The zero Range means "unbounded":
// callers scanning a corpus substitute its first and last days.
type Range struct {
	From Date
	To   Date
}

func NewRange(from, to Date) Range { return Range{From: from, To: to} }

func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Contains reports whether d falls inside the range. Zero bounds are open.
func (r Range) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// Each calls fn for every day in the range, earliest first.
func (r Range) Each(fn func(Date)) {
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		fn(d)
	}
}
