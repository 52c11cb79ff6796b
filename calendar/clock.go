package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// CLOCK TIME - Wall-clock time of day (no date component)
// =============================================================================

// ClockTime is a time of day with second precision. Policy times carry zero
// seconds; arrival times keep the seconds they were observed with.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime{Hour: hour, Minute: minute}
}

// ClockOf extracts the wall-clock time from an already-localized time.
func ClockOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (ClockTime, error) {
	var c ClockTime
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &c.Hour, &c.Minute, &c.Second); err == nil {
		if c.valid() {
			return c, nil
		}
		return ClockTime{}, fmt.Errorf("clock time out of range: %q", s)
	}
	c = ClockTime{}
	if _, err := fmt.Sscanf(s, "%d:%d", &c.Hour, &c.Minute); err == nil {
		if c.valid() {
			return c, nil
		}
		return ClockTime{}, fmt.Errorf("clock time out of range: %q", s)
	}
	return ClockTime{}, fmt.Errorf("invalid clock time %q", s)
}

func (c ClockTime) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 &&
		c.Minute >= 0 && c.Minute < 60 &&
		c.Second >= 0 && c.Second < 60
}

func (c ClockTime) seconds() int { return c.Hour*3600 + c.Minute*60 + c.Second }

// Comparison
func (c ClockTime) Before(other ClockTime) bool { return c.seconds() < other.seconds() }
func (c ClockTime) After(other ClockTime) bool  { return c.seconds() > other.seconds() }
func (c ClockTime) Equal(other ClockTime) bool  { return c.seconds() == other.seconds() }
func (c ClockTime) BeforeOrEqual(other ClockTime) bool {
	return c.seconds() <= other.seconds()
}

// AddMinutes returns the clock time n minutes later, capped at 23:59:59 rather
// than wrapping. A grace window that crosses midnight is not a schedule this
// system supports.
func (c ClockTime) AddMinutes(n int) ClockTime {
	total := c.seconds() + n*60
	if total > 24*3600-1 {
		total = 24*3600 - 1
	}
	return ClockTime{Hour: total / 3600, Minute: (total % 3600) / 60, Second: total % 60}
}

// MinutesSince returns whole minutes elapsed from other to c, truncated.
func (c ClockTime) MinutesSince(other ClockTime) int {
	return (c.seconds() - other.seconds()) / 60
}

// String renders HH:MM:SS, the form arrival times are persisted with.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// ShortString renders HH:MM, the form policy times are persisted with.
func (c ClockTime) ShortString() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
