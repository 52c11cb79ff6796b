/*
handlers_test.go - HTTP-level tests for the API surface

Tests drive the full router against in-memory services, covering:
- Check-in capture (created, duplicate, unknown identity)
- Day ledger reads and administrative deletes
- Identity registration, validation, and credential reset
- Statistics, warnings, and search endpoints
- Leave submission and the approve/reject transitions
- Settings round-trip and validation
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
	"github.com/warp/attendance-engine/store/memory"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================

type testServer struct {
	router http.Handler
	store  *memory.Store
	holder *schedule.Holder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.New()
	settings := schedule.DefaultSettings()
	settings.Timezone = "UTC"
	holder := schedule.NewHolder(settings)

	ledger := attendance.NewLedger(store, func() string { return holder.Current().Timezone })
	directory := identity.NewDirectory(store, holder.Now)
	workflow := leave.NewWorkflow(store, holder.Now)
	aggregator := analytics.NewAggregator(store, workflow, directory)
	engine := analytics.NewEngine(store, directory, workflow)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := api.NewHandler(ledger, directory, workflow, aggregator, engine, holder, store, api.NewMetrics(), log)

	return &testServer{
		router: api.NewRouter(handler),
		store:  store,
		holder: holder,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// register creates a directory entry through the API and returns its id.
func (ts *testServer) register(t *testing.T, name, department string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/identities/", map[string]string{
		"name":              name,
		"department":        department,
		"secret":            "hunter2",
		"security_question": "pet",
		"security_answer":   "Fluffy",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeBody[api.IdentityDTO](t, rec)
	require.Regexp(t, `^\d{6}$`, dto.ID)
	return dto.ID
}

// writePastDay seeds the attendance corpus directly, bypassing the ledger.
func (ts *testServer) writePastDay(t *testing.T, day string, id, name, department, clock string, status schedule.Status) {
	t.Helper()
	date, err := calendar.ParseDate(day)
	require.NoError(t, err)
	arrival, err := calendar.ParseClock(clock)
	require.NoError(t, err)

	existing, err := ts.store.ReadDay(context.Background(), date)
	require.NoError(t, err)
	existing[id] = attendance.Record{
		IdentityID: id,
		Name:       name,
		Department: department,
		Arrival:    arrival,
		Status:     status,
		Timezone:   "UTC",
	}
	require.NoError(t, ts.store.WriteDay(context.Background(), date, existing))
}

// =============================================================================
// CHECK-IN TESTS
// =============================================================================

func TestRecordCheckin_CreatedThenDuplicate(t *testing.T) {
	// GIVEN: A registered identity
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")

	// WHEN: The identity checks in
	rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": id})

	// THEN: A record is created with a classified status
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[api.CheckinResponse](t, rec)
	assert.Equal(t, "recorded", resp.Outcome)
	require.NotNil(t, resp.Record)
	assert.Equal(t, id, resp.Record.IdentityID)
	assert.Equal(t, "Rana Ahmed", resp.Record.Name)
	_, err := schedule.ParseStatus(resp.Record.Status)
	assert.NoError(t, err)

	// WHEN: The same identity checks in again on the same day
	rec = ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": id})

	// THEN: The duplicate is rejected and the first record stands
	require.Equal(t, http.StatusConflict, rec.Code)
	resp = decodeBody[api.CheckinResponse](t, rec)
	assert.Equal(t, "duplicate_entry", resp.Outcome)
	assert.Nil(t, resp.Record)
}

func TestRecordCheckin_UnknownIdentity(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": "999999"})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecordCheckin_MissingID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": "  "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// ATTENDANCE LEDGER TESTS
// =============================================================================

func TestGetDay_ReturnsSeededRecords(t *testing.T) {
	// GIVEN: A past day with one record
	ts := newTestServer(t)
	ts.writePastDay(t, "2025-03-10", "100001", "Rana Ahmed", "IT", "09:02:11", schedule.OnTime())

	// WHEN: The day is fetched
	rec := ts.do(t, http.MethodGet, "/api/attendance/2025-03-10", nil)

	// THEN: The record comes back with its date attached
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Date    string                    `json:"date"`
		Records []api.AttendanceRecordDTO `json:"records"`
	}](t, rec)
	assert.Equal(t, "2025-03-10", body.Date)
	require.Len(t, body.Records, 1)
	assert.Equal(t, "100001", body.Records[0].IdentityID)
	assert.Equal(t, "09:02:11", body.Records[0].Time)
	assert.Equal(t, "On Time", body.Records[0].Status)
}

func TestGetDay_InvalidDate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/attendance/not-a-date", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteToday_ClearsLedger(t *testing.T) {
	// GIVEN: A check-in recorded today
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")
	rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": id})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: Today is cleared
	rec = ts.do(t, http.MethodDelete, "/api/attendance/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// THEN: Today's ledger is empty
	rec = ts.do(t, http.MethodGet, "/api/attendance/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Records []api.AttendanceRecordDTO `json:"records"`
	}](t, rec)
	assert.Empty(t, body.Records)
}

func TestDeleteRecord_RemovesOneIdentity(t *testing.T) {
	ts := newTestServer(t)
	rana := ts.register(t, "Rana Ahmed", "IT")
	omar := ts.register(t, "Omar Hasan", "Chemistry")
	for _, id := range []string{rana, omar} {
		rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": id})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodDelete, "/api/attendance/today/"+rana, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/attendance/today", nil)
	body := decodeBody[struct {
		Records []api.AttendanceRecordDTO `json:"records"`
	}](t, rec)
	require.Len(t, body.Records, 1)
	assert.Equal(t, omar, body.Records[0].IdentityID)
}

// =============================================================================
// IDENTITY TESTS
// =============================================================================

func TestRegisterIdentity_RejectsBadInput(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"unknown department", map[string]string{
			"name": "Rana", "department": "Physics", "secret": "x",
			"security_question": "pet", "security_answer": "a",
		}},
		{"unknown security question", map[string]string{
			"name": "Rana", "department": "IT", "secret": "x",
			"security_question": "starsign", "security_answer": "a",
		}},
		{"blank name", map[string]string{
			"name": "  ", "department": "IT", "secret": "x",
			"security_question": "pet", "security_answer": "a",
		}},
		{"missing secret", map[string]string{
			"name": "Rana", "department": "IT",
			"security_question": "pet", "security_answer": "a",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/identities/", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestIdentityDTO_OmitsCredentialMaterial(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")

	rec := ts.do(t, http.MethodGet, "/api/identities/"+id, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	raw := rec.Body.String()
	assert.NotContains(t, raw, "hunter2")
	assert.NotContains(t, raw, "credential")
	assert.NotContains(t, raw, "$2a$")
}

func TestUpdateIdentity_ChangesDepartment(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")

	rec := ts.do(t, http.MethodPut, "/api/identities/"+id, map[string]string{"department": "Chemistry"})

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[api.IdentityDTO](t, rec)
	assert.Equal(t, "Rana Ahmed", dto.Name)
	assert.Equal(t, "Chemistry", dto.Department)
}

func TestResetCredential_VerifiesSecurityAnswer(t *testing.T) {
	// GIVEN: An identity whose security answer is "Fluffy"
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")

	// WHEN: The reset carries the wrong answer
	rec := ts.do(t, http.MethodPost, "/api/identities/"+id+"/reset", map[string]string{
		"security_answer": "Rex",
		"new_secret":      "newpass",
	})

	// THEN: The reset is refused
	require.Equal(t, http.StatusForbidden, rec.Code)

	// WHEN: The answer matches, case-insensitively
	rec = ts.do(t, http.MethodPost, "/api/identities/"+id+"/reset", map[string]string{
		"security_answer": "  fluffy ",
		"new_secret":      "newpass",
	})

	// THEN: The reset succeeds
	require.Equal(t, http.StatusOK, rec.Code)
}

// =============================================================================
// STATISTICS AND SEARCH TESTS
// =============================================================================

func TestGetIdentityStats_RangedQuery(t *testing.T) {
	// GIVEN: Three recorded days, one of them late
	ts := newTestServer(t)
	ts.writePastDay(t, "2025-03-10", "100001", "Rana", "IT", "09:00:00", schedule.OnTime())
	ts.writePastDay(t, "2025-03-11", "100001", "Rana", "IT", "09:20:00", schedule.LateBy(20))
	ts.writePastDay(t, "2025-03-12", "100001", "Rana", "IT", "09:01:00", schedule.OnTime())

	// WHEN: Stats are requested for the covering range
	rec := ts.do(t, http.MethodGet, "/api/identities/100001/stats?from=2025-03-10&to=2025-03-12", nil)

	// THEN: The counts reflect the seeded days
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[api.StatsDTO](t, rec)
	assert.Equal(t, 3, stats.TotalDays)
	assert.Equal(t, 1, stats.LateDays)
	assert.Equal(t, 3, stats.LongestStreak)
}

func TestGetTrend_RequiresRange(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/stats/trend", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTrend_SeriesCoversEveryDay(t *testing.T) {
	ts := newTestServer(t)
	ts.writePastDay(t, "2025-03-10", "100001", "Rana", "IT", "09:00:00", schedule.OnTime())
	ts.writePastDay(t, "2025-03-12", "100001", "Rana", "IT", "09:20:00", schedule.LateBy(20))

	rec := ts.do(t, http.MethodGet, "/api/stats/trend?from=2025-03-10&to=2025-03-12", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	points := decodeBody[[]api.TrendPointDTO](t, rec)
	require.Len(t, points, 3)
	assert.Equal(t, 1, points[0].Total)
	assert.Equal(t, 0, points[1].Total) // gap day still present, zeroed
	assert.Equal(t, 1, points[2].Late)
}

func TestGetRollup_AggregatesFleet(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Rana Ahmed", "IT")
	ts.register(t, "Omar Hasan", "Chemistry")
	ts.writePastDay(t, "2025-03-10", "100001", "Rana", "IT", "09:00:00", schedule.OnTime())

	rec := ts.do(t, http.MethodGet, "/api/stats/rollup", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	rollup := decodeBody[api.RollupDTO](t, rec)
	assert.Equal(t, 2, rollup.TotalIdentities)
}

func TestSearch_MatchesBothSurfaces(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "Rana Ahmed", "IT")
	ts.writePastDay(t, "2025-03-10", "100009", "Rana Other", "Chemistry", "09:00:00", schedule.OnTime())

	rec := ts.do(t, http.MethodGet, "/api/search?q=rana", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.SearchResponse](t, rec)
	assert.Len(t, resp.Identities, 1)
	assert.Len(t, resp.Attendance, 1)
}

func TestSearch_RequiresQuery(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/search", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// WARNING TESTS
// =============================================================================

func TestGetLateWarnings_FlagsRepeatOffenders(t *testing.T) {
	// GIVEN: An identity late on three separate days
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")
	for _, day := range []string{"2025-03-10", "2025-03-11", "2025-03-12"} {
		ts.writePastDay(t, day, id, "Rana Ahmed", "IT", "09:30:00", schedule.LateBy(30))
	}

	// WHEN: Late warnings are fetched
	rec := ts.do(t, http.MethodGet, "/api/warnings/late", nil)

	// THEN: The identity is flagged with its late count
	require.Equal(t, http.StatusOK, rec.Code)
	warnings := decodeBody[[]api.LateWarningDTO](t, rec)
	require.Len(t, warnings, 1)
	assert.Equal(t, id, warnings[0].Identity.ID)
	assert.Equal(t, 3, warnings[0].LateCount)
}

func TestGetMissingToday_ListsUncoveredIdentities(t *testing.T) {
	// GIVEN: Two identities, one checked in today
	ts := newTestServer(t)
	rana := ts.register(t, "Rana Ahmed", "IT")
	omar := ts.register(t, "Omar Hasan", "Chemistry")
	rec := ts.do(t, http.MethodPost, "/api/checkins", map[string]string{"identity_id": rana})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: The missing list is fetched
	rec = ts.do(t, http.MethodGet, "/api/warnings/missing", nil)

	// THEN: Only the absent identity appears
	require.Equal(t, http.StatusOK, rec.Code)
	missing := decodeBody[[]api.IdentityDTO](t, rec)
	require.Len(t, missing, 1)
	assert.Equal(t, omar, missing[0].ID)
}

// =============================================================================
// LEAVE TESTS
// =============================================================================

func (ts *testServer) submitLeave(t *testing.T, id string, start, end calendar.Date) api.LeaveRequestDTO {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/leave/", map[string]string{
		"identity_id": id,
		"start_date":  start.String(),
		"end_date":    end.String(),
		"reason":      "family trip",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[api.LeaveRequestDTO](t, rec)
}

func TestLeaveLifecycle_SubmitApproveThenLocked(t *testing.T) {
	// GIVEN: A pending leave request starting tomorrow
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")
	tomorrow := calendar.DateOf(ts.holder.Now()).AddDays(1)
	submitted := ts.submitLeave(t, id, tomorrow, tomorrow.AddDays(2))
	assert.Equal(t, "Pending", submitted.Status)

	// WHEN: The request is approved
	rec := ts.do(t, http.MethodPost, "/api/leave/"+submitted.ID+"/approve", nil)

	// THEN: It comes back Approved
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decodeBody[api.LeaveRequestDTO](t, rec)
	assert.Equal(t, "Approved", approved.Status)

	// WHEN: A reject follows the approve
	rec = ts.do(t, http.MethodPost, "/api/leave/"+submitted.ID+"/reject", nil)

	// THEN: The decided request cannot be re-decided
	require.Equal(t, http.StatusConflict, rec.Code)

	// AND: The approved leave feeds tomorrow's reminders
	rec = ts.do(t, http.MethodGet, "/api/reminders/leave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reminders := decodeBody[[]api.LeaveReminderDTO](t, rec)
	require.Len(t, reminders, 1)
	assert.Equal(t, tomorrow.String(), reminders[0].StartsOn)
}

func TestSubmitLeave_RejectsBackwardsRange(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")
	tomorrow := calendar.DateOf(ts.holder.Now()).AddDays(1)

	rec := ts.do(t, http.MethodPost, "/api/leave/", map[string]string{
		"identity_id": id,
		"start_date":  tomorrow.AddDays(3).String(),
		"end_date":    tomorrow.String(),
		"reason":      "family trip",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitLeave_UnknownIdentity(t *testing.T) {
	ts := newTestServer(t)
	tomorrow := calendar.DateOf(ts.holder.Now()).AddDays(1)

	rec := ts.do(t, http.MethodPost, "/api/leave/", map[string]string{
		"identity_id": "999999",
		"start_date":  tomorrow.String(),
		"end_date":    tomorrow.String(),
		"reason":      "family trip",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListIdentityLeave_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	id := ts.register(t, "Rana Ahmed", "IT")
	tomorrow := calendar.DateOf(ts.holder.Now()).AddDays(1)
	ts.submitLeave(t, id, tomorrow, tomorrow)
	time.Sleep(5 * time.Millisecond) // distinct submission instants
	second := ts.submitLeave(t, id, tomorrow.AddDays(7), tomorrow.AddDays(8))

	rec := ts.do(t, http.MethodGet, "/api/identities/"+id+"/leave", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	reqs := decodeBody[[]api.LeaveRequestDTO](t, rec)
	require.Len(t, reqs, 2)
	assert.Equal(t, second.ID, reqs[0].ID)
}

// =============================================================================
// SETTINGS TESTS
// =============================================================================

func TestUpdateSettings_NormalizesAndSwapsLiveBlob(t *testing.T) {
	// GIVEN: A settings update with a shorthand clock value
	ts := newTestServer(t)
	settings := ts.holder.Current()
	settings.WorkingHours.Start = "830"
	settings.GracePeriodMinutes = 15

	// WHEN: The settings are updated
	rec := ts.do(t, http.MethodPut, "/api/settings", settings)

	// THEN: The stored blob is normalized and live
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[api.SettingsDTO](t, rec)
	assert.Equal(t, "08:30", updated.WorkingHours.Start)
	assert.Equal(t, 15, updated.GracePeriodMinutes)
	assert.Equal(t, "08:30", ts.holder.Current().WorkingHours.Start)

	rec = ts.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	live := decodeBody[api.SettingsDTO](t, rec)
	assert.Equal(t, 15, live.GracePeriodMinutes)
}

func TestUpdateSettings_RejectsInvertedHours(t *testing.T) {
	ts := newTestServer(t)
	settings := ts.holder.Current()
	settings.WorkingHours.Start = "18:00"
	settings.WorkingHours.End = "09:00"

	rec := ts.do(t, http.MethodPut, "/api/settings", settings)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEqual(t, "18:00", ts.holder.Current().WorkingHours.Start)
}

// =============================================================================
// HEALTH AND METRICS TESTS
// =============================================================================

func TestOperationalEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "attendance_")
}
