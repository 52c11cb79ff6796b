// Package attendance implements the per-day ledger: one attendance record per
// identity per calendar date, persisted as one durable unit per day with an
// append-only backup copy on every write.
package attendance

import (
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// RECORD - One identity's attendance for one day
// =============================================================================

// Record is a single accepted check-in. It is a historical fact: the status is
// frozen at write time and never recomputed, even if the policy later changes.
// Name and Department are denormalized into the record so a day file is
// readable without the identity directory.
type Record struct {
	IdentityID string
	Name       string
	Department string
	Arrival    calendar.ClockTime
	Status     schedule.Status
	Timezone   string
}

// DatedRecord pairs a record with the day it belongs to, for aggregation
// results that cross day boundaries.
type DatedRecord struct {
	Date calendar.Date
	Record
}

// =============================================================================
// DAILY LEDGER - All records for one calendar date
// =============================================================================

// DailyLedger maps identity id to that identity's record for one date.
// Invariant: at most one record per identity per date.
type DailyLedger map[string]Record

// Clone returns an independent copy. Mutating operations snapshot the ledger
// under the lock and write the copy outside it, so producers never stall on
// file I/O.
func (dl DailyLedger) Clone() DailyLedger {
	out := make(DailyLedger, len(dl))
	for id, rec := range dl {
		out[id] = rec
	}
	return out
}

// =============================================================================
// OUTCOME - Result of a record attempt
// =============================================================================

type Outcome int

const (
	// Recorded means a new record was inserted and persisted.
	Recorded Outcome = iota

	// DuplicateEntry means a record already existed for (identity, date).
	// The first check-in of the day wins; this is an expected control
	// outcome, not a failure.
	DuplicateEntry
)

func (o Outcome) String() string {
	if o == DuplicateEntry {
		return "duplicate_entry"
	}
	return "recorded"
}
