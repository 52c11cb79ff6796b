package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
)

// =============================================================================
// WARNING ENGINE
// =============================================================================

// DefaultLateThreshold is the cumulative late-count at which an identity is
// flagged as chronically late.
const DefaultLateThreshold = 3

// DefaultLowAttendanceFloor is the month-to-date attendance rate below which
// an identity is flagged.
var DefaultLowAttendanceFloor = decimal.NewFromFloat(0.8)

// LeaveSource is the slice of the leave workflow the engine consumes.
type LeaveSource interface {
	LeaveChecker
	Approved(ctx context.Context) ([]leave.Request, error)
}

// Engine applies threshold rules over corpus scans. It decides *that* a
// warning should fire; delivering it is a collaborator's job.
type Engine struct {
	corpus    attendance.Corpus
	directory DirectoryReader
	leave     LeaveSource

	// LateThreshold and LowAttendanceFloor are fixed at construction.
	LateThreshold      int
	LowAttendanceFloor decimal.Decimal
}

func NewEngine(corpus attendance.Corpus, directory DirectoryReader, leave LeaveSource) *Engine {
	return &Engine{
		corpus:             corpus,
		directory:          directory,
		leave:              leave,
		LateThreshold:      DefaultLateThreshold,
		LowAttendanceFloor: DefaultLowAttendanceFloor,
	}
}

// =============================================================================
// CHRONIC LATENESS
// =============================================================================

type LateWarning struct {
	Identity  identity.Identity
	LateCount int
}

// LateWarnings counts late entries per identity across the whole corpus and
// reports everyone at or above the threshold.
func (e *Engine) LateWarnings(ctx context.Context) ([]LateWarning, error) {
	idents, err := e.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	days, err := e.corpus.Days(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		day, err := e.corpus.ReadDay(ctx, d)
		if err != nil {
			if errors.Is(err, attendance.ErrCorruptLedger) {
				continue
			}
			return nil, err
		}
		for id, rec := range day {
			if rec.Status.IsLate() {
				counts[id]++
			}
		}
	}

	var warnings []LateWarning
	for _, ident := range idents {
		if c := counts[ident.ID]; c >= e.LateThreshold {
			warnings = append(warnings, LateWarning{Identity: ident, LateCount: c})
		}
	}
	return warnings, nil
}

// =============================================================================
// UPCOMING LEAVE
// =============================================================================

type LeaveReminder struct {
	Request  leave.Request
	StartsOn calendar.Date
}

// UpcomingLeaveReminders reports every approved request whose start date is
// exactly one calendar day after now.
func (e *Engine) UpcomingLeaveReminders(ctx context.Context, now time.Time) ([]LeaveReminder, error) {
	tomorrow := calendar.DateOf(now).AddDays(1)

	approved, err := e.leave.Approved(ctx)
	if err != nil {
		return nil, err
	}
	var reminders []LeaveReminder
	for _, req := range approved {
		if req.Start.Equal(tomorrow) {
			reminders = append(reminders, LeaveReminder{Request: req, StartsOn: req.Start})
		}
	}
	return reminders, nil
}

// =============================================================================
// LOW ATTENDANCE
// =============================================================================

type LowAttendanceWarning struct {
	Identity     identity.Identity
	Rate         decimal.Decimal
	AttendedDays int
	WorkingDays  int
}

// LowAttendanceWarnings flags identities whose month-to-date attendance rate
// falls below the floor. Working days exclude weekends and each identity's
// approved-leave days, so leave never reads as poor attendance.
func (e *Engine) LowAttendanceWarnings(ctx context.Context, now time.Time) ([]LowAttendanceWarning, error) {
	today := calendar.DateOf(now)
	monthToDate := calendar.NewRange(today.StartOfMonth(), today)

	idents, err := e.directory.List(ctx)
	if err != nil {
		return nil, err
	}

	attended, err := e.attendedDays(ctx, monthToDate)
	if err != nil {
		return nil, err
	}

	var warnings []LowAttendanceWarning
	for _, ident := range idents {
		working := 0
		var scanErr error
		monthToDate.Each(func(d calendar.Date) {
			if scanErr != nil || !d.IsWorkday() {
				return
			}
			onLeave, err := e.leave.IsOnApprovedLeave(ctx, ident.ID, d)
			if err != nil {
				scanErr = err
				return
			}
			if !onLeave {
				working++
			}
		})
		if scanErr != nil {
			return nil, scanErr
		}
		if working == 0 {
			continue
		}

		rate := decimal.NewFromInt(int64(attended[ident.ID])).
			Div(decimal.NewFromInt(int64(working)))
		if rate.LessThan(e.LowAttendanceFloor) {
			warnings = append(warnings, LowAttendanceWarning{
				Identity:     ident,
				Rate:         rate,
				AttendedDays: attended[ident.ID],
				WorkingDays:  working,
			})
		}
	}
	return warnings, nil
}

// attendedDays counts days-with-record per identity inside the range.
func (e *Engine) attendedDays(ctx context.Context, r calendar.Range) (map[string]int, error) {
	attended := make(map[string]int)
	days, err := e.corpus.Days(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		if !r.Contains(d) {
			continue
		}
		day, err := e.corpus.ReadDay(ctx, d)
		if err != nil {
			if errors.Is(err, attendance.ErrCorruptLedger) {
				continue
			}
			return nil, err
		}
		for id := range day {
			attended[id]++
		}
	}
	return attended, nil
}

// =============================================================================
// ABSENCE AFTER SCHEDULE START
// =============================================================================

// MissingToday lists identities with no record for today who are not on
// approved leave. The monitor calls this once the schedule start has passed.
func (e *Engine) MissingToday(ctx context.Context, now time.Time) ([]identity.Identity, error) {
	today := calendar.DateOf(now)

	day, err := e.corpus.ReadDay(ctx, today)
	if err != nil && !errors.Is(err, attendance.ErrCorruptLedger) {
		return nil, err
	}

	idents, err := e.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	var missing []identity.Identity
	for _, ident := range idents {
		if _, ok := day[ident.ID]; ok {
			continue
		}
		onLeave, err := e.leave.IsOnApprovedLeave(ctx, ident.ID, today)
		if err != nil {
			return nil, err
		}
		if !onLeave {
			missing = append(missing, ident)
		}
	}
	return missing, nil
}
