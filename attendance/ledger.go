/*
ledger.go - Day-scoped attendance ledger service

The Ledger owns the in-memory state for each calendar date and keeps it in
lock-step with the durable store. Multiple producers touch "today" at once:
the recognition loop records arrivals, administrative actions delete records,
and background polls read the current map. Correctness rules:

  1. Mutations for one date are serialized by a per-date mutex.
  2. The first accepted check-in for (identity, date) wins. A second check-in
     the same day is a DuplicateEntry outcome and mutates nothing.
  3. Every successful mutation persists the full day snapshot plus a
     timestamped backup copy before returning.
  4. Durable writes happen outside the mutation lock, on a cloned snapshot,
     so file I/O never stalls producers. A version counter makes stale
     snapshots skip their write instead of clobbering a newer one.
  5. A failed write is reported but in-memory state is not rolled back; the
     caller may retry Save.
*/
package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// LEDGER SERVICE
// =============================================================================

// Ledger coordinates day-scoped reads and writes against a Store.
type Ledger struct {
	store    Store
	timezone func() string // label stamped into new records, read per record

	mu   sync.Mutex
	days map[calendar.Date]*dayState
}

// dayState is the in-memory unit for one date.
type dayState struct {
	mu      sync.Mutex // serializes mutations for this date
	writeMu sync.Mutex // serializes durable writes for this date
	ledger  DailyLedger
	loaded  bool
	version uint64 // bumped on every mutation (guarded by mu)
	written uint64 // last version durably committed (guarded by writeMu)
}

// NewLedger creates a ledger service. The timezone label is read at record
// time so a runtime settings change is reflected in subsequent records; the
// clock itself arrives already localized from the caller.
func NewLedger(store Store, timezone func() string) *Ledger {
	return &Ledger{
		store:    store,
		timezone: timezone,
		days:     make(map[calendar.Date]*dayState),
	}
}

func (l *Ledger) day(date calendar.Date) *dayState {
	l.mu.Lock()
	defer l.mu.Unlock()
	ds, ok := l.days[date]
	if !ok {
		ds = &dayState{}
		l.days[date] = ds
	}
	return ds
}

// ensureLoaded pulls the persisted unit into memory on first touch.
// A corrupt unit surfaces to the caller; the date stays unloaded so a later
// administrative repair can retry.
func (l *Ledger) ensureLoaded(ctx context.Context, ds *dayState, date calendar.Date) error {
	if ds.loaded {
		return nil
	}
	persisted, err := l.store.ReadDay(ctx, date)
	if err != nil {
		return err
	}
	ds.ledger = persisted
	ds.loaded = true
	return nil
}

// =============================================================================
// MUTATING OPERATIONS
// =============================================================================

// Record accepts the first check-in of the day for an identity. If a record
// already exists for (identity, today) it returns DuplicateEntry and performs
// no mutation. On success the day is persisted before returning.
func (l *Ledger) Record(ctx context.Context, identityID, name, department string, status schedule.Status, now time.Time) (Outcome, error) {
	date := calendar.DateOf(now)
	ds := l.day(date)

	ds.mu.Lock()
	if err := l.ensureLoaded(ctx, ds, date); err != nil {
		ds.mu.Unlock()
		return Recorded, err
	}
	if _, exists := ds.ledger[identityID]; exists {
		ds.mu.Unlock()
		return DuplicateEntry, nil
	}
	ds.ledger[identityID] = Record{
		IdentityID: identityID,
		Name:       name,
		Department: department,
		Arrival:    calendar.ClockOf(now),
		Status:     status,
		Timezone:   l.timezone(),
	}
	ds.version++
	snapshot, version := ds.ledger.Clone(), ds.version
	ds.mu.Unlock()

	return Recorded, l.persist(ctx, ds, date, snapshot, version, now)
}

// Delete removes one identity's record from the given day. Deleting an absent
// id is a no-op, not an error.
func (l *Ledger) Delete(ctx context.Context, identityID string, now time.Time) error {
	date := calendar.DateOf(now)
	ds := l.day(date)

	ds.mu.Lock()
	if err := l.ensureLoaded(ctx, ds, date); err != nil {
		ds.mu.Unlock()
		return err
	}
	if _, exists := ds.ledger[identityID]; !exists {
		ds.mu.Unlock()
		return nil
	}
	delete(ds.ledger, identityID)
	ds.version++
	snapshot, version := ds.ledger.Clone(), ds.version
	ds.mu.Unlock()

	return l.persist(ctx, ds, date, snapshot, version, now)
}

// DeleteAll clears every record for the given day.
func (l *Ledger) DeleteAll(ctx context.Context, now time.Time) error {
	date := calendar.DateOf(now)
	ds := l.day(date)

	ds.mu.Lock()
	if err := l.ensureLoaded(ctx, ds, date); err != nil {
		ds.mu.Unlock()
		return err
	}
	ds.ledger = make(DailyLedger)
	ds.version++
	snapshot, version := ds.ledger.Clone(), ds.version
	ds.mu.Unlock()

	return l.persist(ctx, ds, date, snapshot, version, now)
}

// Save forces a rewrite of the day's durable unit from the current in-memory
// snapshot. Used to retry after a StorageError.
func (l *Ledger) Save(ctx context.Context, date calendar.Date, now time.Time) error {
	ds := l.day(date)

	ds.mu.Lock()
	if err := l.ensureLoaded(ctx, ds, date); err != nil {
		ds.mu.Unlock()
		return err
	}
	ds.version++
	snapshot, version := ds.ledger.Clone(), ds.version
	ds.mu.Unlock()

	return l.persist(ctx, ds, date, snapshot, version, now)
}

// persist commits a snapshot outside the mutation lock. If a newer snapshot
// has already been committed for this date, the stale snapshot is skipped:
// its mutation is durable as part of the newer write.
func (l *Ledger) persist(ctx context.Context, ds *dayState, date calendar.Date, snapshot DailyLedger, version uint64, now time.Time) error {
	ds.writeMu.Lock()
	defer ds.writeMu.Unlock()

	if version <= ds.written {
		return nil
	}
	if err := l.store.WriteDay(ctx, date, snapshot); err != nil {
		return &StorageError{Date: date, Op: "save", Cause: err}
	}
	if err := l.store.WriteBackup(ctx, date, snapshot, now); err != nil {
		return &StorageError{Date: date, Op: "backup", Cause: err}
	}
	ds.written = version
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Day returns a consistent copy of one date's ledger. Dates already in memory
// are served from memory (they are the source of truth once touched); others
// read the persisted unit. A missing unit is an empty ledger.
func (l *Ledger) Day(ctx context.Context, date calendar.Date) (DailyLedger, error) {
	l.mu.Lock()
	ds, inMemory := l.days[date]
	l.mu.Unlock()

	if inMemory {
		ds.mu.Lock()
		defer ds.mu.Unlock()
		if err := l.ensureLoaded(ctx, ds, date); err != nil {
			return nil, err
		}
		return ds.ledger.Clone(), nil
	}
	return l.store.ReadDay(ctx, date)
}

// Has reports whether an identity already has a record for the given date.
// Used by the absence monitor to poll without copying the whole day.
func (l *Ledger) Has(ctx context.Context, identityID string, date calendar.Date) (bool, error) {
	day, err := l.Day(ctx, date)
	if err != nil {
		return false, err
	}
	_, ok := day[identityID]
	return ok, nil
}
