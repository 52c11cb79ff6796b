package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
	"github.com/warp/attendance-engine/store/jsonfile"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.New(dir)
	require.NoError(t, err)
	return store, dir
}

func date(d string) calendar.Date {
	parsed, err := calendar.ParseDate(d)
	if err != nil {
		panic(err)
	}
	return parsed
}

func sampleLedger() attendance.DailyLedger {
	arrival, _ := calendar.ParseClock("09:02:11")
	late, _ := calendar.ParseClock("09:35:40")
	return attendance.DailyLedger{
		"100001": {
			IdentityID: "100001",
			Name:       "Rana Ahmed",
			Department: "IT",
			Arrival:    arrival,
			Status:     schedule.OnTime(),
			Timezone:   "Asia/Baghdad",
		},
		"100002": {
			IdentityID: "100002",
			Name:       "Omar Ali",
			Department: "Chemistry",
			Arrival:    late,
			Status:     schedule.LateBy(35),
			Timezone:   "Asia/Baghdad",
		},
	}
}

// =============================================================================
// DAY UNIT TESTS
// =============================================================================

func TestStore_DayRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	day := date("2025-03-10")

	require.NoError(t, store.WriteDay(ctx, day, sampleLedger()))

	loaded, err := store.ReadDay(ctx, day)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	rec := loaded["100001"]
	assert.Equal(t, "100001", rec.IdentityID)
	assert.Equal(t, "Rana Ahmed", rec.Name)
	assert.Equal(t, "IT", rec.Department)
	assert.Equal(t, "09:02:11", rec.Arrival.String())
	assert.Equal(t, "On Time", rec.Status.String())
	assert.Equal(t, "Asia/Baghdad", rec.Timezone)

	assert.Equal(t, "Late by 35 minutes", loaded["100002"].Status.String())
}

func TestStore_DayFileShape(t *testing.T) {
	// The persisted unit keeps the original single-date-key layout so older
	// deployments can still read it.
	store, dir := newTestStore(t)
	ctx := context.Background()
	day := date("2025-03-10")

	require.NoError(t, store.WriteDay(ctx, day, sampleLedger()))

	raw, err := os.ReadFile(filepath.Join(dir, "attendance_2025-03-10.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2025-03-10"`)
	assert.Contains(t, string(raw), `"time": "09:02:11"`)
	assert.Contains(t, string(raw), `"status": "On Time"`)
}

func TestStore_ReadMissingDay_EmptyLedger(t *testing.T) {
	store, _ := newTestStore(t)

	loaded, err := store.ReadDay(context.Background(), date("2030-01-01"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStore_CorruptDay_IsolatedToItsDate(t *testing.T) {
	// GIVEN: One healthy unit and one truncated unit
	// WHEN: Both are read
	// THEN: The corrupt date reports CorruptLedgerError, the other reads fine

	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.WriteDay(ctx, date("2025-03-10"), sampleLedger()))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "attendance_2025-03-11.json"), []byte(`{"2025-03-11": {`), 0o644))

	_, err := store.ReadDay(ctx, date("2025-03-11"))
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrCorruptLedger)
	var corruptErr *attendance.CorruptLedgerError
	require.ErrorAs(t, err, &corruptErr)
	assert.Equal(t, "2025-03-11", corruptErr.Date.String())

	healthy, err := store.ReadDay(ctx, date("2025-03-10"))
	require.NoError(t, err)
	assert.Len(t, healthy, 2)
}

func TestStore_BadStatusInUnit_Corrupt(t *testing.T) {
	store, dir := newTestStore(t)

	unit := `{"2025-03-10": {"100001": {"name": "X", "department": "IT",
	  "time": "09:00:00", "status": "Vanished", "timezone": "UTC"}}}`
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "attendance_2025-03-10.json"), []byte(unit), 0o644))

	_, err := store.ReadDay(context.Background(), date("2025-03-10"))
	assert.ErrorIs(t, err, attendance.ErrCorruptLedger)
}

func TestStore_DayReadFailure_NotReportedCorrupt(t *testing.T) {
	// GIVEN: A day path that exists but cannot be read as a file
	// WHEN: The day is read
	// THEN: The error is an I/O failure, not a corrupt-unit error, so
	//       aggregation surfaces it instead of quietly skipping the day

	store, dir := newTestStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "attendance_2025-03-11.json"), 0o755))

	_, err := store.ReadDay(context.Background(), date("2025-03-11"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, attendance.ErrCorruptLedger)
}

func TestStore_Days_SortedAscending(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for _, d := range []string{"2025-03-12", "2025-03-10", "2025-03-11"} {
		require.NoError(t, store.WriteDay(ctx, date(d), sampleLedger()))
	}
	// Stray files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attendance_notes.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	days, err := store.Days(ctx)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-03-10", days[0].String())
	assert.Equal(t, "2025-03-11", days[1].String())
	assert.Equal(t, "2025-03-12", days[2].String())
}

func TestStore_WriteBackup_NamedByDateAndClock(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, time.March, 10, 9, 15, 42, 0, time.UTC)

	require.NoError(t, store.WriteBackup(ctx, date("2025-03-10"), sampleLedger(), at))

	path := filepath.Join(dir, "attendance_backups", "backup_attendance_2025-03-10_09-15-42.json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2025-03-10"`)
}

// =============================================================================
// IDENTITY DIRECTORY TESTS
// =============================================================================

func TestStore_IdentityRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ident := identity.Identity{
		ID:                 "100001",
		Name:               "Rana Ahmed",
		Department:         "IT",
		PhotoRef:           "photos/rana.jpg",
		CredentialHash:     "$2a$10$cred",
		SecurityQuestionID: "pet",
		SecurityAnswerHash: "$2a$10$ans",
		RegisteredAt:       time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveIdentity(ctx, ident))

	loaded, ok, err := store.GetIdentity(ctx, "100001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ident, loaded)

	_, ok, err = store.GetIdentity(ctx, "999999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ListIdentities_SurvivesReopen(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"100001", "100002"} {
		require.NoError(t, store.SaveIdentity(ctx, identity.Identity{
			ID: id, Name: "N" + id, Department: "IT",
			RegisteredAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		}))
	}

	reopened, err := jsonfile.New(dir)
	require.NoError(t, err)
	idents, err := reopened.ListIdentities(ctx)
	require.NoError(t, err)
	assert.Len(t, idents, 2)
}

// =============================================================================
// LEAVE REQUEST TESTS
// =============================================================================

func TestStore_LeaveRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	req := leave.Request{
		ID:          "req-1",
		IdentityID:  "100001",
		Start:       date("2025-03-15"),
		End:         date("2025-03-17"),
		Reason:      "family trip",
		Status:      leave.StatusPending,
		SubmittedAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveLeaveRequest(ctx, req))

	loaded, ok, err := store.GetLeaveRequest(ctx, "req-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, req, loaded)

	// Saving again with a new status overwrites in place.
	req.Status = leave.StatusApproved
	require.NoError(t, store.SaveLeaveRequest(ctx, req))

	all, err := store.ListLeaveRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, leave.StatusApproved, all[0].Status)
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestStore_Settings_DefaultsWhenMissing(t *testing.T) {
	store, _ := newTestStore(t)

	settings, err := store.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultSettings(), settings)
}

func TestStore_Settings_RoundTripAndBackup(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	settings := schedule.DefaultSettings()
	settings.WorkingHours.Start = "08:30"
	settings.GracePeriodMinutes = 5
	require.NoError(t, store.SaveSettings(ctx, settings))

	loaded, err := store.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:30", loaded.WorkingHours.Start)
	assert.Equal(t, 5, loaded.GracePeriodMinutes)

	// A save leaves a timestamped settings backup next to the blob.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if len(e.Name()) > len("settings_backup_") && e.Name()[:len("settings_backup_")] == "settings_backup_" {
			found = true
		}
	}
	assert.True(t, found, "expected a settings_backup_* file")
}

func TestStore_Settings_UnreadableBlobFallsBack(t *testing.T) {
	store, dir := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{broken"), 0o644))

	settings, err := store.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultSettings(), settings)
}

func TestStore_Settings_NormalizedOnLoad(t *testing.T) {
	store, dir := newTestStore(t)

	blob := `{"working_hours": {"start": "930", "end": "1730"}, "grace_period_minutes": 10,
	  "timezone": "Asia/Baghdad", "attendance_threshold": 0.6}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(blob), 0o644))

	settings, err := store.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:30", settings.WorkingHours.Start)
	assert.Equal(t, "17:30", settings.WorkingHours.End)
}
