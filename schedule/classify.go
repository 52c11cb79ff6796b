package schedule

import (
	"fmt"
	"strings"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// STATUS - The classification result
// =============================================================================

type StatusKind int

const (
	StatusOnTime StatusKind = iota
	StatusWithinGrace
	StatusLate
)

// Status is the classification of one arrival. MinutesLate is only meaningful
// for StatusLate and is always measured against schedule start, not the grace
// boundary.
type Status struct {
	Kind        StatusKind
	MinutesLate int
}

func OnTime() Status      { return Status{Kind: StatusOnTime} }
func WithinGrace() Status { return Status{Kind: StatusWithinGrace} }
func LateBy(minutes int) Status {
	return Status{Kind: StatusLate, MinutesLate: minutes}
}

func (s Status) IsLate() bool { return s.Kind == StatusLate }

// String renders the persisted form. These exact strings are the stable wire
// format of the ledger files; parsing depends on them.
func (s Status) String() string {
	switch s.Kind {
	case StatusOnTime:
		return "On Time"
	case StatusWithinGrace:
		return "Within Grace Period"
	default:
		return fmt.Sprintf("Late by %d minutes", s.MinutesLate)
	}
}

// ParseStatus reads the persisted form back. Anything containing "Late" is a
// late status even if the minute count is missing, which keeps old records
// countable.
func ParseStatus(raw string) (Status, error) {
	switch raw {
	case "On Time":
		return OnTime(), nil
	case "Within Grace Period":
		return WithinGrace(), nil
	}
	if strings.Contains(raw, "Late") {
		var minutes int
		fmt.Sscanf(raw, "Late by %d minutes", &minutes)
		return LateBy(minutes), nil
	}
	return Status{}, fmt.Errorf("unrecognized attendance status %q", raw)
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classify maps an arrival time onto the policy's three ordered bands:
//
//	arrival <= start                 -> On Time
//	start < arrival <= start+grace   -> Within Grace Period
//	arrival > start+grace            -> Late by N minutes
//
// Both boundaries are inclusive of the earlier band. The function is pure and
// total; inputs are valid times by construction.
func Classify(arrival calendar.ClockTime, policy Policy) Status {
	if arrival.BeforeOrEqual(policy.Start) {
		return OnTime()
	}
	if arrival.BeforeOrEqual(policy.GraceEnd()) {
		return WithinGrace()
	}
	return LateBy(arrival.MinutesSince(policy.Start))
}
