/*
Package analytics derives statistics from the ledger corpus. Nothing here is
cached: every call re-scans the persisted days through the Corpus interface,
so results are always consistent with the store at call time and cost is
linear in corpus size.

A corrupt day unit never aborts a scan. The offending date is collected in
the result's SkippedDays and every other date is still processed.
*/
package analytics

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// COLLABORATOR CONTRACTS
// =============================================================================

// LeaveChecker is the read contract of the leave workflow.
type LeaveChecker interface {
	IsOnApprovedLeave(ctx context.Context, identityID string, date calendar.Date) (bool, error)
}

// DirectoryReader is the read contract of the identity directory.
type DirectoryReader interface {
	List(ctx context.Context) ([]identity.Identity, error)
}

// =============================================================================
// AGGREGATOR
// =============================================================================

type Aggregator struct {
	corpus    attendance.Corpus
	leave     LeaveChecker
	directory DirectoryReader
}

func NewAggregator(corpus attendance.Corpus, leave LeaveChecker, directory DirectoryReader) *Aggregator {
	return &Aggregator{corpus: corpus, leave: leave, directory: directory}
}

// recentRecords is how many entries Stats.Recent carries.
const recentRecords = 5

// =============================================================================
// PER-IDENTITY STATISTICS
// =============================================================================

// Stats is the per-identity statistics object exposed to reporting
// collaborators.
type Stats struct {
	IdentityID string
	Range      calendar.Range // effective range the scan covered

	TotalDays   int // dates with a record
	PresentDays int // status is not late
	LateDays    int // status is late
	AbsentDays  int // working days in range with no record and no approved leave

	LongestStreak  int
	LastAttendance *attendance.DatedRecord
	Recent         []attendance.DatedRecord // most recent first, at most 5

	SkippedDays []calendar.Date // corrupt units excluded from the scan
}

// IdentityStats scans the corpus once for one identity. A zero Range means
// the whole corpus; the effective range is reported back in the result.
func (a *Aggregator) IdentityStats(ctx context.Context, identityID string, r calendar.Range) (Stats, error) {
	stats := Stats{IdentityID: identityID}

	days, err := a.scanDays(ctx, r)
	if err != nil {
		return Stats{}, err
	}
	if len(days) == 0 && r.IsZero() {
		return stats, nil
	}
	stats.Range = effectiveRange(r, days)

	var (
		prev    calendar.Date
		run     int
		history []attendance.DatedRecord
	)
	for _, d := range days {
		day, err := a.corpus.ReadDay(ctx, d)
		if err != nil {
			if errors.Is(err, attendance.ErrCorruptLedger) {
				stats.SkippedDays = append(stats.SkippedDays, d)
				continue
			}
			return Stats{}, err
		}
		rec, ok := day[identityID]
		if !ok {
			continue
		}

		stats.TotalDays++
		if rec.Status.IsLate() {
			stats.LateDays++
		} else {
			stats.PresentDays++
		}

		// A day-over-day consecutive pair extends the run; any gap resets it.
		if !prev.IsZero() && prev.AddDays(1).Equal(d) {
			run++
		} else {
			run = 1
		}
		if run > stats.LongestStreak {
			stats.LongestStreak = run
		}
		prev = d

		history = append(history, attendance.DatedRecord{Date: d, Record: rec})
	}

	if n := len(history); n > 0 {
		last := history[n-1]
		stats.LastAttendance = &last
		for i := n - 1; i >= 0 && len(stats.Recent) < recentRecords; i-- {
			stats.Recent = append(stats.Recent, history[i])
		}
	}

	absent, err := a.absentDays(ctx, identityID, stats)
	if err != nil {
		return Stats{}, err
	}
	stats.AbsentDays = absent
	return stats, nil
}

// absentDays counts working days in the effective range with no record,
// excluding weekends and any day covered by approved leave.
func (a *Aggregator) absentDays(ctx context.Context, identityID string, stats Stats) (int, error) {
	if stats.Range.IsZero() {
		return 0, nil
	}
	working := 0
	var scanErr error
	stats.Range.Each(func(d calendar.Date) {
		if scanErr != nil || !d.IsWorkday() {
			return
		}
		onLeave, err := a.leave.IsOnApprovedLeave(ctx, identityID, d)
		if err != nil {
			scanErr = err
			return
		}
		if !onLeave {
			working++
		}
	})
	if scanErr != nil {
		return 0, scanErr
	}
	absent := working - stats.PresentDays - stats.LateDays
	if absent < 0 {
		absent = 0
	}
	return absent, nil
}

// =============================================================================
// FLEET-WIDE ROLLUPS
// =============================================================================

type MonthlyCount struct {
	Present int
	Late    int
	Absent  int
}

type DailyCount struct {
	Date  calendar.Date
	Total int
}

// Rollup is the fleet-wide view consumed by the dashboard collaborator.
type Rollup struct {
	Monthly         map[string]MonthlyCount // keyed YYYY-MM
	Departments     map[string]int          // record counts per department
	LastSevenDays   []DailyCount            // most recent 7 corpus days, ascending
	TotalIdentities int
	TotalLates      int
	SkippedDays     []calendar.Date
}

// FleetRollup scans every persisted day once and buckets counts by month,
// department, and day. Absences accrue on working days for each registered
// identity with no record and no approved leave.
func (a *Aggregator) FleetRollup(ctx context.Context) (Rollup, error) {
	rollup := Rollup{
		Monthly:     make(map[string]MonthlyCount),
		Departments: make(map[string]int),
	}

	idents, err := a.directory.List(ctx)
	if err != nil {
		return Rollup{}, err
	}
	rollup.TotalIdentities = len(idents)

	days, err := a.scanDays(ctx, calendar.Range{})
	if err != nil {
		return Rollup{}, err
	}

	var daily []DailyCount
	for _, d := range days {
		day, err := a.corpus.ReadDay(ctx, d)
		if err != nil {
			if errors.Is(err, attendance.ErrCorruptLedger) {
				rollup.SkippedDays = append(rollup.SkippedDays, d)
				continue
			}
			return Rollup{}, err
		}

		month := d.YearMonth()
		mc := rollup.Monthly[month]
		for _, rec := range day {
			dept := rec.Department
			if dept == "" {
				dept = "Unknown"
			}
			rollup.Departments[dept]++
			if rec.Status.IsLate() {
				mc.Late++
				rollup.TotalLates++
			} else {
				mc.Present++
			}
		}

		// Absences only accrue on working days, and only for identities
		// not covered by approved leave.
		if d.IsWorkday() {
			for _, ident := range idents {
				if _, ok := day[ident.ID]; ok {
					continue
				}
				onLeave, err := a.leave.IsOnApprovedLeave(ctx, ident.ID, d)
				if err != nil {
					return Rollup{}, err
				}
				if !onLeave {
					mc.Absent++
				}
			}
		}
		rollup.Monthly[month] = mc

		daily = append(daily, DailyCount{Date: d, Total: len(day)})
	}

	if len(daily) > 7 {
		daily = daily[len(daily)-7:]
	}
	rollup.LastSevenDays = daily
	return rollup, nil
}

// TrendPoint is one day in an on-time/late series.
type TrendPoint struct {
	Date   calendar.Date
	Total  int
	OnTime int
	Late   int
}

// Trend produces the per-day series for a date range. Days with no unit (or a
// corrupt one) contribute zeros so the series stays continuous for charting.
func (a *Aggregator) Trend(ctx context.Context, r calendar.Range) ([]TrendPoint, error) {
	if r.IsZero() {
		return nil, nil
	}
	var (
		points  []TrendPoint
		scanErr error
	)
	r.Each(func(d calendar.Date) {
		if scanErr != nil {
			return
		}
		point := TrendPoint{Date: d}
		day, err := a.corpus.ReadDay(ctx, d)
		if err != nil && !errors.Is(err, attendance.ErrCorruptLedger) {
			scanErr = err
			return
		}
		if err == nil {
			point.Total = len(day)
			for _, rec := range day {
				if rec.Status.IsLate() {
					point.Late++
				} else if rec.Status.Kind == schedule.StatusOnTime {
					point.OnTime++
				}
			}
		}
		points = append(points, point)
	})
	if scanErr != nil {
		return nil, scanErr
	}
	return points, nil
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchIdentities matches a case-insensitive substring against name, id, and
// department across the directory.
func (a *Aggregator) SearchIdentities(ctx context.Context, query string) ([]identity.Identity, error) {
	idents, err := a.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []identity.Identity
	for _, ident := range idents {
		if matches(q, ident.Name, ident.ID, ident.Department) {
			out = append(out, ident)
		}
	}
	return out, nil
}

// SearchAttendance matches the same fields across the flattened set of
// attendance entries, sorted by date descending.
func (a *Aggregator) SearchAttendance(ctx context.Context, query string) ([]attendance.DatedRecord, error) {
	days, err := a.scanDays(ctx, calendar.Range{})
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []attendance.DatedRecord
	for _, d := range days {
		day, err := a.corpus.ReadDay(ctx, d)
		if err != nil {
			if errors.Is(err, attendance.ErrCorruptLedger) {
				continue
			}
			return nil, err
		}
		for _, rec := range day {
			if matches(q, rec.Name, rec.IdentityID, rec.Department) {
				out = append(out, attendance.DatedRecord{Date: d, Record: rec})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].IdentityID < out[j].IdentityID
	})
	return out, nil
}

func matches(q string, fields ...string) bool {
	if q == "" {
		return false
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

// scanDays lists corpus days constrained to the range, ascending.
func (a *Aggregator) scanDays(ctx context.Context, r calendar.Range) ([]calendar.Date, error) {
	days, err := a.corpus.Days(ctx)
	if err != nil {
		return nil, err
	}
	if r.IsZero() {
		return days, nil
	}
	var out []calendar.Date
	for _, d := range days {
		if r.Contains(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

// effectiveRange resolves a possibly-zero range against the scanned days.
// An open side clamps to the corpus; a one-sided range with no corpus day to
// clamp to collapses to the empty range, so no downstream walk ever starts
// from the zero date.
func effectiveRange(r calendar.Range, days []calendar.Date) calendar.Range {
	if r.IsZero() {
		if len(days) == 0 {
			return r
		}
		return calendar.NewRange(days[0], days[len(days)-1])
	}
	if r.From.IsZero() || r.To.IsZero() {
		if len(days) == 0 {
			return calendar.Range{}
		}
		if r.From.IsZero() {
			r.From = days[0]
		}
		if r.To.IsZero() {
			r.To = days[len(days)-1]
		}
	}
	return r
}
