/*
Package jsonfile is the primary storage backend: one JSON unit per calendar
day plus single-file stores for the identity directory, leave requests, and
settings. The on-disk layout is format-stable; existing deployments carry
years of these files and the engine must keep reading them:

	attendance_2024-01-15.json                 one ledger unit per day
	attendance_backups/backup_attendance_...   append-only snapshot archive
	user_records.json                          identity directory
	leave_requests.json                        leave request map
	settings.json                              configuration blob
	settings_backup_<ts>.json                  settings archive on save

Day units hold a single date key mapping identity id to the entry fields:

	{"2024-01-15": {"000123": {"name": ..., "department": ...,
	  "time": "09:02:11", "status": "On Time", "timezone": "Asia/Baghdad"}}}

Every write lands in a temp file first and is renamed into place, so a crash
mid-write never leaves a truncated unit. A unit that fails to decode surfaces
as *attendance.CorruptLedgerError for that date only.
*/
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/warp/attendance-engine/calendar"
)

const (
	dayPrefix    = "attendance_"
	daySuffix    = ".json"
	backupDir    = "attendance_backups"
	userFile     = "user_records.json"
	leaveFile    = "leave_requests.json"
	settingsFile = "settings.json"
)

// Store reads and writes the JSON layout rooted at a data directory.
type Store struct {
	dir string

	// One mutex per single-file unit; day units are serialized by the
	// Ledger's per-date locks, not here.
	userMu     sync.Mutex
	leaveMu    sync.Mutex
	settingsMu sync.Mutex
}

// New opens (creating if needed) a data directory.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) dayPath(date calendar.Date) string {
	return filepath.Join(s.dir, dayPrefix+date.String()+daySuffix)
}

// writeAtomic writes via temp file + rename so readers never observe a
// partial unit.
func (s *Store) writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

func readJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, err
	}
	return true, nil
}

// listDayFiles returns the dates of all persisted day units, ascending.
// Files whose names do not parse as dates are ignored rather than failing
// the listing; only their own reads can report them corrupt.
func (s *Store) listDayFiles() ([]calendar.Date, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var days []calendar.Date
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, dayPrefix) || !strings.HasSuffix(name, daySuffix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, dayPrefix), daySuffix)
		d, err := calendar.ParseDate(raw)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}
