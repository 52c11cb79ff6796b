/*
Package sqlite is the alternate storage backend, for deployments that want a
single database file instead of a directory of JSON units. It implements the
same store interfaces as jsonfile, so the Ledger and Aggregator never know
which backend they are running on.

The day-unit model carries over: WriteDay replaces the full snapshot for a
date inside one transaction, and WriteBackup appends a JSON snapshot row to an
archive table that the engine never reads back.
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) a SQLite database. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS attendance_entries (
		date        TEXT NOT NULL,
		identity_id TEXT NOT NULL,
		name        TEXT NOT NULL,
		department  TEXT NOT NULL,
		arrival     TEXT NOT NULL,
		status      TEXT NOT NULL,
		timezone    TEXT NOT NULL,
		PRIMARY KEY (date, identity_id)
	);

	CREATE TABLE IF NOT EXISTS attendance_backups (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		date     TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		snapshot TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS identities (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		department        TEXT NOT NULL,
		photo_ref         TEXT NOT NULL DEFAULT '',
		credential_hash   TEXT NOT NULL DEFAULT '',
		security_question TEXT NOT NULL DEFAULT '',
		security_answer   TEXT NOT NULL DEFAULT '',
		registered_at     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id           TEXT PRIMARY KEY,
		identity_id  TEXT NOT NULL,
		start_date   TEXT NOT NULL,
		end_date     TEXT NOT NULL,
		reason       TEXT NOT NULL,
		status       TEXT NOT NULL,
		submitted_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_leave_identity ON leave_requests(identity_id);

	CREATE TABLE IF NOT EXISTS settings (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		blob TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings_backups (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		saved_at TEXT NOT NULL,
		blob     TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// ATTENDANCE STORE
// =============================================================================

func (s *Store) ReadDay(ctx context.Context, date calendar.Date) (attendance.DailyLedger, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identity_id, name, department, arrival, status, timezone
		 FROM attendance_entries WHERE date = ?`, date.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledger := make(attendance.DailyLedger)
	for rows.Next() {
		var id, name, department, arrivalRaw, statusRaw, tz string
		if err := rows.Scan(&id, &name, &department, &arrivalRaw, &statusRaw, &tz); err != nil {
			return nil, err
		}
		arrival, err := calendar.ParseClock(arrivalRaw)
		if err != nil {
			return nil, &attendance.CorruptLedgerError{Date: date, Cause: fmt.Errorf("entry %s: %w", id, err)}
		}
		status, err := schedule.ParseStatus(statusRaw)
		if err != nil {
			return nil, &attendance.CorruptLedgerError{Date: date, Cause: fmt.Errorf("entry %s: %w", id, err)}
		}
		ledger[id] = attendance.Record{
			IdentityID: id,
			Name:       name,
			Department: department,
			Arrival:    arrival,
			Status:     status,
			Timezone:   tz,
		}
	}
	return ledger, rows.Err()
}

func (s *Store) Days(ctx context.Context) ([]calendar.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT date FROM attendance_entries ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []calendar.Date
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		d, err := calendar.ParseDate(raw)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// WriteDay replaces the full snapshot for a date in one transaction.
func (s *Store) WriteDay(ctx context.Context, date calendar.Date, ledger attendance.DailyLedger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attendance_entries WHERE date = ?`, date.String()); err != nil {
		return err
	}
	for id, rec := range ledger {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attendance_entries
			 (date, identity_id, name, department, arrival, status, timezone)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			date.String(), id, rec.Name, rec.Department,
			rec.Arrival.String(), rec.Status.String(), rec.Timezone); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) WriteBackup(ctx context.Context, date calendar.Date, ledger attendance.DailyLedger, at time.Time) error {
	snapshot := make(map[string]map[string]string, len(ledger))
	for id, rec := range ledger {
		snapshot[id] = map[string]string{
			"name":       rec.Name,
			"department": rec.Department,
			"time":       rec.Arrival.String(),
			"status":     rec.Status.String(),
			"timezone":   rec.Timezone,
		}
	}
	blob, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attendance_backups (date, saved_at, snapshot) VALUES (?, ?, ?)`,
		date.String(), at.Format(time.RFC3339), string(blob))
	return err
}

// BackupCount reports archived snapshots for a date. Operator tooling only.
func (s *Store) BackupCount(ctx context.Context, date calendar.Date) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_backups WHERE date = ?`, date.String()).Scan(&n)
	return n, err
}

// =============================================================================
// IDENTITY STORE
// =============================================================================

func (s *Store) SaveIdentity(ctx context.Context, id identity.Identity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities
		 (id, name, department, photo_ref, credential_hash, security_question, security_answer, registered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   department = excluded.department,
		   photo_ref = excluded.photo_ref,
		   credential_hash = excluded.credential_hash,
		   security_question = excluded.security_question,
		   security_answer = excluded.security_answer`,
		id.ID, id.Name, id.Department, id.PhotoRef, id.CredentialHash,
		id.SecurityQuestionID, id.SecurityAnswerHash,
		id.RegisteredAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetIdentity(ctx context.Context, id string) (identity.Identity, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, department, photo_ref, credential_hash,
		        security_question, security_answer, registered_at
		 FROM identities WHERE id = ?`, id)
	ident, err := scanIdentity(row)
	if err == sql.ErrNoRows {
		return identity.Identity{}, false, nil
	}
	if err != nil {
		return identity.Identity{}, false, err
	}
	return ident, true, nil
}

func (s *Store) ListIdentities(ctx context.Context) ([]identity.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, department, photo_ref, credential_hash,
		        security_question, security_answer, registered_at
		 FROM identities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []identity.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (identity.Identity, error) {
	var ident identity.Identity
	var registered string
	if err := row.Scan(&ident.ID, &ident.Name, &ident.Department, &ident.PhotoRef,
		&ident.CredentialHash, &ident.SecurityQuestionID, &ident.SecurityAnswerHash,
		&registered); err != nil {
		return identity.Identity{}, err
	}
	ident.RegisteredAt, _ = time.Parse(time.RFC3339, registered)
	return ident, nil
}

// =============================================================================
// LEAVE STORE
// =============================================================================

func (s *Store) SaveLeaveRequest(ctx context.Context, r leave.Request) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_requests
		 (id, identity_id, start_date, end_date, reason, status, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status`,
		r.ID, r.IdentityID, r.Start.String(), r.End.String(),
		r.Reason, string(r.Status), r.SubmittedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetLeaveRequest(ctx context.Context, id string) (leave.Request, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, identity_id, start_date, end_date, reason, status, submitted_at
		 FROM leave_requests WHERE id = ?`, id)
	req, err := scanLeave(row)
	if err == sql.ErrNoRows {
		return leave.Request{}, false, nil
	}
	if err != nil {
		return leave.Request{}, false, err
	}
	return req, true, nil
}

func (s *Store) ListLeaveRequests(ctx context.Context) ([]leave.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, identity_id, start_date, end_date, reason, status, submitted_at
		 FROM leave_requests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Request
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func scanLeave(row scanner) (leave.Request, error) {
	var req leave.Request
	var start, end, status, submitted string
	if err := row.Scan(&req.ID, &req.IdentityID, &start, &end,
		&req.Reason, &status, &submitted); err != nil {
		return leave.Request{}, err
	}
	var err error
	if req.Start, err = calendar.ParseDate(start); err != nil {
		return leave.Request{}, err
	}
	if req.End, err = calendar.ParseDate(end); err != nil {
		return leave.Request{}, err
	}
	req.Status = leave.Status(status)
	req.SubmittedAt, _ = time.Parse(time.RFC3339, submitted)
	return req, nil
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

func (s *Store) LoadSettings(ctx context.Context) (schedule.Settings, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT blob FROM settings WHERE id = 1`).Scan(&blob)
	if err == sql.ErrNoRows {
		return schedule.DefaultSettings(), nil
	}
	if err != nil {
		return schedule.Settings{}, err
	}
	var settings schedule.Settings
	if err := json.Unmarshal([]byte(blob), &settings); err != nil {
		return schedule.DefaultSettings(), nil
	}
	return settings.Normalized(), nil
}

// SaveSettings replaces the blob and archives a timestamped copy, matching
// the jsonfile backend's settings history.
func (s *Store) SaveSettings(ctx context.Context, settings schedule.Settings) error {
	blob, err := json.Marshal(settings.Normalized())
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (id, blob) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob`, string(blob)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings_backups (saved_at, blob) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), string(blob)); err != nil {
		return err
	}
	return tx.Commit()
}

// SettingsBackupCount reports how many archived settings blobs exist.
func (s *Store) SettingsBackupCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settings_backups`).Scan(&n)
	return n, err
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
