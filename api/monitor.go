/*
monitor.go - Background absence and warning polls

PURPOSE:
  Periodically inspects the live day and the corpus so problems surface
  without anyone opening a dashboard:
  - Absence poll: after the schedule start has passed, flags identities
    with no record today and no approved leave.
  - Warning sweep: recomputes lateness warnings, low-attendance warnings,
    and next-day leave reminders.

DESIGN:
  - Runs a background goroutine with two tickers
  - AbsenceInterval: how often to poll today's ledger (default: 5 minutes)
  - SweepInterval: how often to sweep warnings (default: 1 hour)
  - Findings are logged and counted; delivery (email, push) is a
    collaborator's job and stays out of the engine

USAGE:
  monitor := NewMonitor(warnings, settings, metrics, log)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - analytics/warnings.go: The rules the monitor applies
  - server.go: Router setup
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// Monitor runs the background absence and warning polls.
type Monitor struct {
	Warnings        *analytics.Engine
	Settings        *schedule.Holder
	Metrics         *Metrics
	Log             *slog.Logger
	AbsenceInterval time.Duration
	SweepInterval   time.Duration

	absenceTicker *time.Ticker
	sweepTicker   *time.Ticker
	stop          chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	running       bool
}

// NewMonitor creates a monitor with the default intervals.
func NewMonitor(warnings *analytics.Engine, settings *schedule.Holder, metrics *Metrics, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		Warnings:        warnings,
		Settings:        settings,
		Metrics:         metrics,
		Log:             log,
		AbsenceInterval: 5 * time.Minute,
		SweepInterval:   1 * time.Hour,
		stop:            make(chan struct{}),
	}
}

// Start begins the polls.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true
	// Stop closes the channel; a restart needs a fresh one.
	m.stop = make(chan struct{})
	m.absenceTicker = time.NewTicker(m.AbsenceInterval)
	m.sweepTicker = time.NewTicker(m.SweepInterval)
	m.wg.Add(1)

	go m.run()

	m.Log.Info("monitor started",
		"absence_interval", m.AbsenceInterval,
		"sweep_interval", m.SweepInterval)
}

// Stop stops the polls and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.absenceTicker.Stop()
	m.sweepTicker.Stop()
	close(m.stop)
	m.wg.Wait()
	m.running = false
	m.Log.Info("monitor stopped")
}

func (m *Monitor) run() {
	defer m.wg.Done()

	// Run immediately on start
	m.pollAbsences()
	m.sweepWarnings()

	for {
		select {
		case <-m.absenceTicker.C:
			m.pollAbsences()
		case <-m.sweepTicker.C:
			m.sweepWarnings()
		case <-m.stop:
			return
		}
	}
}

// pollAbsences flags identities with no record once the schedule start has
// passed. Before the start of the day everyone is legitimately absent, so
// the poll is a no-op.
func (m *Monitor) pollAbsences() {
	ctx := context.Background()
	now := m.Settings.Now()

	if calendar.ClockOf(now).Before(m.Settings.Policy().Start) {
		return
	}

	missing, err := m.Warnings.MissingToday(ctx, now)
	if err != nil {
		m.Log.Error("absence poll failed", "error", err)
		return
	}
	if len(missing) == 0 {
		return
	}

	m.Metrics.AbsencesFlagged(len(missing))
	for _, ident := range missing {
		m.Log.Warn("identity absent after schedule start",
			"id", ident.ID, "name", ident.Name, "department", ident.Department)
	}
}

// sweepWarnings recomputes the threshold warnings and next-day reminders.
func (m *Monitor) sweepWarnings() {
	ctx := context.Background()
	now := m.Settings.Now()

	late, err := m.Warnings.LateWarnings(ctx)
	if err != nil {
		m.Log.Error("late warning sweep failed", "error", err)
	} else {
		for _, w := range late {
			m.Log.Warn("chronic lateness",
				"id", w.Identity.ID, "name", w.Identity.Name, "late_count", w.LateCount)
		}
	}

	low, err := m.Warnings.LowAttendanceWarnings(ctx, now)
	if err != nil {
		m.Log.Error("low attendance sweep failed", "error", err)
	} else {
		for _, w := range low {
			m.Log.Warn("low attendance",
				"id", w.Identity.ID, "name", w.Identity.Name,
				"rate", w.Rate.StringFixed(4),
				"attended", w.AttendedDays, "working", w.WorkingDays)
		}
	}

	reminders, err := m.Warnings.UpcomingLeaveReminders(ctx, now)
	if err != nil {
		m.Log.Error("leave reminder sweep failed", "error", err)
	} else {
		for _, rem := range reminders {
			m.Log.Info("leave starts tomorrow",
				"id", rem.Request.IdentityID, "start", rem.StartsOn.String(), "end", rem.Request.End.String())
		}
	}

	m.Metrics.WarningSweepDone()
}

// RunNow triggers an immediate poll and sweep (for testing/admin).
func (m *Monitor) RunNow() {
	m.pollAbsences()
	m.sweepWarnings()
}
