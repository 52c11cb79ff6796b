// Package memory provides an in-memory store implementing every persistence
// interface in the engine. It backs unit tests and development runs; the
// jsonfile and sqlite packages are the durable backends.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	days     map[calendar.Date]attendance.DailyLedger
	backups  []Backup
	idents   map[string]identity.Identity
	requests map[string]leave.Request
	settings *schedule.Settings

	// CorruptDays simulates undecodable units for aggregation tests.
	CorruptDays map[calendar.Date]bool

	// FailWrites makes WriteDay fail, for storage-failure tests.
	FailWrites bool
}

// Backup is one archived snapshot, kept for assertions.
type Backup struct {
	Date   calendar.Date
	Ledger attendance.DailyLedger
	At     time.Time
}

func New() *Store {
	return &Store{
		days:        make(map[calendar.Date]attendance.DailyLedger),
		idents:      make(map[string]identity.Identity),
		requests:    make(map[string]leave.Request),
		CorruptDays: make(map[calendar.Date]bool),
	}
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (s *Store) ReadDay(_ context.Context, date calendar.Date) (attendance.DailyLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.CorruptDays[date] {
		return nil, &attendance.CorruptLedgerError{Date: date, Cause: errSimulated}
	}
	day, ok := s.days[date]
	if !ok {
		return make(attendance.DailyLedger), nil
	}
	return day.Clone(), nil
}

func (s *Store) Days(_ context.Context) ([]calendar.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]calendar.Date, 0, len(s.days)+len(s.CorruptDays))
	for d := range s.days {
		out = append(out, d)
	}
	for d := range s.CorruptDays {
		if _, dup := s.days[d]; !dup {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *Store) WriteDay(_ context.Context, date calendar.Date, ledger attendance.DailyLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errSimulated
	}
	s.days[date] = ledger.Clone()
	return nil
}

func (s *Store) WriteBackup(_ context.Context, date calendar.Date, ledger attendance.DailyLedger, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backups = append(s.backups, Backup{Date: date, Ledger: ledger.Clone(), At: at})
	return nil
}

// Backups returns the archived snapshots, oldest first.
func (s *Store) Backups() []Backup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Backup, len(s.backups))
	copy(out, s.backups)
	return out
}

// =============================================================================
// IDENTITY STORE
// =============================================================================

func (s *Store) SaveIdentity(_ context.Context, id identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idents[id.ID] = id
	return nil
}

func (s *Store) GetIdentity(_ context.Context, id string) (identity.Identity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.idents[id]
	return ident, ok, nil
}

func (s *Store) ListIdentities(_ context.Context) ([]identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]identity.Identity, 0, len(s.idents))
	for _, ident := range s.idents {
		out = append(out, ident)
	}
	return out, nil
}

// =============================================================================
// LEAVE STORE
// =============================================================================

func (s *Store) SaveLeaveRequest(_ context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r
	return nil
}

func (s *Store) GetLeaveRequest(_ context.Context, id string) (leave.Request, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	return req, ok, nil
}

func (s *Store) ListLeaveRequests(_ context.Context) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]leave.Request, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	return out, nil
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

func (s *Store) LoadSettings(_ context.Context) (schedule.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return schedule.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, set schedule.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &set
	return nil
}

// =============================================================================
// COMPILE-TIME INTERFACE CHECKS
// =============================================================================

var (
	_ attendance.Store = (*Store)(nil)
	_ identity.Store   = (*Store)(nil)
	_ leave.Store      = (*Store)(nil)
	_ schedule.Store   = (*Store)(nil)
)

var errSimulated = simulatedError("simulated store failure")

type simulatedError string

func (e simulatedError) Error() string { return string(e) }
