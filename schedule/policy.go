/*
Package schedule holds the work-schedule policy: when the day starts and ends,
how many minutes of grace are allowed, and which timezone "now" is interpreted
in. It also owns time-string normalization, because schedules arrive from
loosely validated settings files and a malformed schedule must never stop
attendance capture.

The full persisted settings blob (camera index, capture thresholds, and so on)
travels with the policy because the original deployments store them as one
unit. The engine itself only reads WorkingHours, GracePeriodMinutes, and
Timezone.
*/
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// POLICY - The active work schedule
// =============================================================================

// Policy is the schedule the classifier runs against. It is derived from
// Settings and treated as immutable; a settings save produces a new Policy.
type Policy struct {
	Start              calendar.ClockTime
	End                calendar.ClockTime
	GracePeriodMinutes int
}

// GraceEnd returns the last clock time still inside the grace window.
func (p Policy) GraceEnd() calendar.ClockTime {
	return p.Start.AddMinutes(p.GracePeriodMinutes)
}

// =============================================================================
// SETTINGS - The persisted configuration blob
// =============================================================================

// WorkingHours is the start/end pair inside the settings blob. The strings are
// kept in their persisted HH:MM form; Policy() normalizes them.
type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Settings is the process-wide configuration, persisted as a single JSON unit.
// The camera and capture fields belong to the recognition collaborator; they
// are carried so a settings save round-trips the whole blob.
type Settings struct {
	CameraIndex         int          `json:"camera_index"`
	AttendanceThreshold float64      `json:"attendance_threshold"`
	AutoCapture         bool         `json:"auto_capture"`
	NotificationEnabled bool         `json:"notification_enabled"`
	WorkingHours        WorkingHours `json:"working_hours"`
	GracePeriodMinutes  int          `json:"grace_period_minutes"`
	Timezone            string       `json:"timezone"`
}

// DefaultSettings mirrors the blob written on first run.
func DefaultSettings() Settings {
	return Settings{
		CameraIndex:         1,
		AttendanceThreshold: 0.6,
		AutoCapture:         false,
		NotificationEnabled: true,
		WorkingHours:        WorkingHours{Start: "09:00", End: "17:00"},
		GracePeriodMinutes:  10,
		Timezone:            "Asia/Baghdad",
	}
}

// Normalized returns a copy with both schedule times run through Normalize.
// Load paths call this so a hand-edited settings file cannot leak a malformed
// time into the classifier.
func (s Settings) Normalized() Settings {
	s.WorkingHours.Start = Normalize(s.WorkingHours.Start)
	s.WorkingHours.End = Normalize(s.WorkingHours.End)
	return s
}

// Validate rejects blobs that would make the schedule unusable. Called on
// save; load paths prefer Normalized so capture keeps running.
func (s Settings) Validate() error {
	start, err := calendar.ParseClock(Normalize(s.WorkingHours.Start))
	if err != nil {
		return fmt.Errorf("working hours start: %w", err)
	}
	end, err := calendar.ParseClock(Normalize(s.WorkingHours.End))
	if err != nil {
		return fmt.Errorf("working hours end: %w", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: end %s must be after start %s",
			ErrInvalidWorkingHours, end.ShortString(), start.ShortString())
	}
	if s.GracePeriodMinutes < 0 {
		return fmt.Errorf("%w: grace period must be non-negative", ErrInvalidWorkingHours)
	}
	return nil
}

// Policy derives the classifier schedule from the blob. Malformed times fall
// back to the normalizer's default rather than failing.
func (s Settings) Policy() Policy {
	start, err := calendar.ParseClock(Normalize(s.WorkingHours.Start))
	if err != nil {
		start = calendar.NewClockTime(9, 0)
	}
	end, err := calendar.ParseClock(Normalize(s.WorkingHours.End))
	if err != nil {
		end = calendar.NewClockTime(17, 0)
	}
	return Policy{Start: start, End: end, GracePeriodMinutes: s.GracePeriodMinutes}
}

// Location resolves the configured timezone, falling back to UTC when the
// zone name is unknown.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// =============================================================================
// TIME NORMALIZATION
// =============================================================================

const fallbackTime = "09:00"

// Normalize cleans a loosely formatted time string into HH:MM. It strips
// everything but digits and colons, treats the trailing two characters as
// minutes when no colon is present, and wraps hours modulo 24 and minutes
// modulo 60. Unparseable input returns "09:00": schedule corruption must
// never block attendance capture.
func Normalize(timeString string) string {
	var cleaned strings.Builder
	for _, r := range timeString {
		if (r >= '0' && r <= '9') || r == ':' {
			cleaned.WriteRune(r)
		}
	}

	var hourPart, minutePart string
	s := cleaned.String()
	if i := strings.Index(s, ":"); i >= 0 {
		hourPart, minutePart = s[:i], s[i+1:]
		// A second colon means a seconds field snuck in; drop it.
		if j := strings.Index(minutePart, ":"); j >= 0 {
			minutePart = minutePart[:j]
		}
	} else {
		if len(s) < 3 {
			return fallbackTime
		}
		hourPart, minutePart = s[:len(s)-2], s[len(s)-2:]
	}

	hours, err := strconv.Atoi(hourPart)
	if err != nil {
		return fallbackTime
	}
	minutes, err := strconv.Atoi(minutePart)
	if err != nil {
		return fallbackTime
	}

	return fmt.Sprintf("%02d:%02d", hours%24, minutes%60)
}

// =============================================================================
// HOLDER - Atomic process-wide settings instance
// =============================================================================

// Holder owns the single live Settings instance. Replace swaps the whole
// struct, so concurrent readers observe either the old or the new blob, never
// a partial update.
type Holder struct {
	current atomic.Pointer[Settings]
}

func NewHolder(s Settings) *Holder {
	h := &Holder{}
	h.Replace(s)
	return h
}

// Current returns the live settings by value.
func (h *Holder) Current() Settings {
	return *h.current.Load()
}

// Policy is shorthand for Current().Policy().
func (h *Holder) Policy() Policy {
	return h.Current().Policy()
}

// Replace installs a new settings blob.
func (h *Holder) Replace(s Settings) {
	s = s.Normalized()
	h.current.Store(&s)
}

// Now returns the current instant localized to the configured timezone.
// Everything downstream (day keys, arrival clocks) derives from this.
func (h *Holder) Now() time.Time {
	return time.Now().In(h.Current().Location())
}
