package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// DAY UNIT CODEC
// =============================================================================

// dayEntry is the persisted shape of one attendance record.
type dayEntry struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Timezone   string `json:"timezone"`
}

// dayUnit is the persisted shape of one day file: a single date key mapping
// identity id to entry.
type dayUnit map[string]map[string]dayEntry

func encodeDay(date calendar.Date, ledger attendance.DailyLedger) dayUnit {
	entries := make(map[string]dayEntry, len(ledger))
	for id, rec := range ledger {
		entries[id] = dayEntry{
			Name:       rec.Name,
			Department: rec.Department,
			Time:       rec.Arrival.String(),
			Status:     rec.Status.String(),
			Timezone:   rec.Timezone,
		}
	}
	return dayUnit{date.String(): entries}
}

func decodeDay(date calendar.Date, unit dayUnit) (attendance.DailyLedger, error) {
	entries, ok := unit[date.String()]
	if !ok {
		return nil, fmt.Errorf("unit is missing its %s date key", date)
	}
	ledger := make(attendance.DailyLedger, len(entries))
	for id, e := range entries {
		arrival, err := calendar.ParseClock(e.Time)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		status, err := schedule.ParseStatus(e.Status)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", id, err)
		}
		ledger[id] = attendance.Record{
			IdentityID: id,
			Name:       e.Name,
			Department: e.Department,
			Arrival:    arrival,
			Status:     status,
			Timezone:   e.Timezone,
		}
	}
	return ledger, nil
}

// =============================================================================
// ATTENDANCE STORE IMPLEMENTATION
// =============================================================================

func (s *Store) ReadDay(_ context.Context, date calendar.Date) (attendance.DailyLedger, error) {
	data, err := os.ReadFile(s.dayPath(date))
	if errors.Is(err, os.ErrNotExist) {
		// Missing unit means no data for that day: an empty ledger.
		return make(attendance.DailyLedger), nil
	}
	if err != nil {
		// An unreadable file is an I/O fault, not a corrupt unit. Callers
		// quarantine corrupt units; a failing disk must surface instead.
		return nil, fmt.Errorf("read day unit %s: %w", date, err)
	}

	var unit dayUnit
	if err := json.Unmarshal(data, &unit); err != nil {
		return nil, &attendance.CorruptLedgerError{Date: date, Cause: err}
	}
	ledger, err := decodeDay(date, unit)
	if err != nil {
		return nil, &attendance.CorruptLedgerError{Date: date, Cause: err}
	}
	return ledger, nil
}

func (s *Store) Days(_ context.Context) ([]calendar.Date, error) {
	return s.listDayFiles()
}

func (s *Store) WriteDay(_ context.Context, date calendar.Date, ledger attendance.DailyLedger) error {
	return s.writeAtomic(s.dayPath(date), encodeDay(date, ledger))
}

// WriteBackup appends a timestamped snapshot under attendance_backups/.
// The archive is write-only from the engine's point of view.
func (s *Store) WriteBackup(_ context.Context, date calendar.Date, ledger attendance.DailyLedger, at time.Time) error {
	name := fmt.Sprintf("backup_%s%s_%s%s",
		dayPrefix, date, at.Format("15-04-05"), daySuffix)
	return s.writeAtomic(filepath.Join(s.dir, backupDir, name), encodeDay(date, ledger))
}

var _ attendance.Store = (*Store)(nil)
