package attendance

import (
	"context"
	"time"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Corpus is the read side of the persisted ledgers. The Aggregator consumes
// this interface rather than globbing a directory, so alternate backends can
// be substituted without touching aggregation.
type Corpus interface {
	// ReadDay loads the unit for one date. A missing unit returns an empty
	// (non-nil) ledger: no record means absence, not an error. A malformed
	// unit returns *CorruptLedgerError for that date only.
	ReadDay(ctx context.Context, date calendar.Date) (DailyLedger, error)

	// Days lists every date with a persisted unit, earliest first.
	Days(ctx context.Context) ([]calendar.Date, error)
}

// Store adds the write side used by the Ledger service.
type Store interface {
	Corpus

	// WriteDay replaces the durable unit for date with the full snapshot.
	WriteDay(ctx context.Context, date calendar.Date, ledger DailyLedger) error

	// WriteBackup appends a timestamped copy to the backup area. Backups are
	// never read by the engine; they exist for operator recovery.
	WriteBackup(ctx context.Context, date calendar.Date, ledger DailyLedger, at time.Time) error
}
