/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Check-ins:
    POST   /api/checkins                   Record an arrival for an identity

  Attendance:
    GET    /api/attendance/today           Today's ledger
    GET    /api/attendance/{date}          Ledger for one date
    DELETE /api/attendance/today/{id}      Remove one record for today
    DELETE /api/attendance/today           Clear today's ledger

  Identities:
    GET    /api/identities                 List directory
    POST   /api/identities                 Register identity
    GET    /api/identities/{id}            Get identity
    PUT    /api/identities/{id}            Edit name/department
    POST   /api/identities/{id}/reset      Credential recovery
    GET    /api/identities/{id}/stats      Per-identity statistics
    GET    /api/identities/{id}/leave      Identity's leave requests

  Statistics:
    GET    /api/stats/rollup               Fleet-wide rollup
    GET    /api/stats/trend?from=&to=      Daily on-time/late series
    GET    /api/search?q=                  Identity + attendance search

  Warnings:
    GET    /api/warnings/late              Chronic lateness warnings
    GET    /api/warnings/low-attendance    Month-to-date rate warnings
    GET    /api/warnings/missing           Not yet checked in today
    GET    /api/reminders/leave            Leave starting tomorrow

  Leave:
    POST   /api/leave                      Submit request
    GET    /api/leave/{id}                 Get request
    POST   /api/leave/{id}/approve         Approve pending request
    POST   /api/leave/{id}/reject          Reject pending request

  Settings:
    GET    /api/settings                   Current settings blob
    PUT    /api/settings                   Validate, persist, and swap in

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate check-in, non-pending transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - monitor.go: Background absence/warning polls
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger        *attendance.Ledger
	Directory     *identity.Directory
	Leave         *leave.Workflow
	Stats         *analytics.Aggregator
	Warnings      *analytics.Engine
	Settings      *schedule.Holder
	SettingsStore schedule.Store
	Metrics       *Metrics
	Log           *slog.Logger
}

// NewHandler creates a handler. A nil logger falls back to slog.Default.
func NewHandler(
	ledger *attendance.Ledger,
	directory *identity.Directory,
	workflow *leave.Workflow,
	stats *analytics.Aggregator,
	warnings *analytics.Engine,
	settings *schedule.Holder,
	settingsStore schedule.Store,
	metrics *Metrics,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Ledger:        ledger,
		Directory:     directory,
		Leave:         workflow,
		Stats:         stats,
		Warnings:      warnings,
		Settings:      settings,
		SettingsStore: settingsStore,
		Metrics:       metrics,
		Log:           log,
	}
}

// =============================================================================
// CHECK-IN HANDLERS
// =============================================================================

// RecordCheckin classifies an arrival against the live schedule and records it.
func (h *Handler) RecordCheckin(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.IdentityID) == "" {
		writeError(w, http.StatusBadRequest, "identity_id is required", nil)
		return
	}

	ident, err := h.Directory.Get(r.Context(), req.IdentityID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Identity not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up identity", err)
		return
	}

	now := h.Settings.Now()
	status := schedule.Classify(calendar.ClockOf(now), h.Settings.Policy())

	outcome, err := h.Ledger.Record(r.Context(), ident.ID, ident.Name, ident.Department, status, now)
	if err != nil {
		h.Log.Error("check-in persist failed", "identity", ident.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record check-in", err)
		return
	}
	if outcome == attendance.DuplicateEntry {
		h.Metrics.CheckinDuplicate()
		writeJSON(w, http.StatusConflict, CheckinResponse{Outcome: outcome.String()})
		return
	}

	h.Metrics.CheckinRecorded(status.IsLate())
	day, err := h.Ledger.Day(r.Context(), calendar.DateOf(now))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back record", err)
		return
	}
	rec := day[ident.ID]
	dto := toRecordDTO(rec)
	writeJSON(w, http.StatusCreated, CheckinResponse{Outcome: outcome.String(), Record: &dto})
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// GetDay returns the ledger for one date.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	h.writeDay(w, r, date)
}

// GetToday returns the ledger for the current schedule-local date.
func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	h.writeDay(w, r, calendar.DateOf(h.Settings.Now()))
}

func (h *Handler) writeDay(w http.ResponseWriter, r *http.Request, date calendar.Date) {
	day, err := h.Ledger.Day(r.Context(), date)
	if err != nil {
		if errors.Is(err, attendance.ErrCorruptLedger) {
			writeError(w, http.StatusInternalServerError, "Day unit is corrupt", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to read day", err)
		return
	}

	dtos := make([]AttendanceRecordDTO, 0, len(day))
	for _, rec := range day {
		dto := toRecordDTO(rec)
		dto.Date = date.String()
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    date.String(),
		"records": dtos,
	})
}

// DeleteRecord removes one identity's record from today's ledger. Absent
// records delete as a no-op, matching the ledger contract.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Ledger.Delete(r.Context(), id, h.Settings.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete record", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// DeleteToday clears every record for the current date.
func (h *Handler) DeleteToday(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.DeleteAll(r.Context(), h.Settings.Now()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear day", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

// =============================================================================
// IDENTITY HANDLERS
// =============================================================================

// ListIdentities returns the whole directory.
func (h *Handler) ListIdentities(w http.ResponseWriter, r *http.Request) {
	idents, err := h.Directory.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list identities", err)
		return
	}
	dtos := make([]IdentityDTO, len(idents))
	for i, ident := range idents {
		dtos[i] = toIdentityDTO(ident)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RegisterIdentity creates a directory entry with a fresh six-digit id.
func (h *Handler) RegisterIdentity(w http.ResponseWriter, r *http.Request) {
	var req RegisterIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Secret == "" || req.SecurityAnswer == "" {
		writeError(w, http.StatusBadRequest, "secret and security_answer are required", nil)
		return
	}

	secretHash, err := identity.HashSecret(req.Secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash secret", err)
		return
	}
	answerHash, err := identity.HashSecurityAnswer(req.SecurityAnswer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash answer", err)
		return
	}

	ident, err := h.Directory.Register(r.Context(), identity.Registration{
		Name:               req.Name,
		Department:         req.Department,
		PhotoRef:           req.PhotoRef,
		CredentialHash:     secretHash,
		SecurityQuestionID: req.SecurityQuestion,
		SecurityAnswerHash: answerHash,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrMissingField),
			errors.Is(err, identity.ErrInvalidDepartment),
			errors.Is(err, identity.ErrUnknownQuestion):
			writeError(w, http.StatusBadRequest, "Invalid registration", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to register identity", err)
		}
		return
	}

	h.Metrics.IdentityRegistered()
	h.Log.Info("identity registered", "id", ident.ID, "department", ident.Department)
	writeJSON(w, http.StatusCreated, toIdentityDTO(ident))
}

// GetIdentity returns one directory entry.
func (h *Handler) GetIdentity(w http.ResponseWriter, r *http.Request) {
	ident, err := h.Directory.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Identity not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get identity", err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityDTO(ident))
}

// UpdateIdentity edits name and/or department.
func (h *Handler) UpdateIdentity(w http.ResponseWriter, r *http.Request) {
	var req UpdateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ident, err := h.Directory.UpdateProfile(r.Context(), chi.URLParam(r, "id"), req.Name, req.Department)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			writeError(w, http.StatusNotFound, "Identity not found", err)
		case errors.Is(err, identity.ErrInvalidDepartment):
			writeError(w, http.StatusBadRequest, "Invalid department", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update identity", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toIdentityDTO(ident))
}

// ResetCredential verifies the security answer and installs a new secret.
func (h *Handler) ResetCredential(w http.ResponseWriter, r *http.Request) {
	var req ResetCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.NewSecret == "" {
		writeError(w, http.StatusBadRequest, "new_secret is required", nil)
		return
	}

	id := chi.URLParam(r, "id")
	ident, err := h.Directory.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Identity not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get identity", err)
		return
	}
	if !identity.VerifySecurityAnswer(ident.SecurityAnswerHash, req.SecurityAnswer) {
		writeError(w, http.StatusForbidden, "Security answer does not match", identity.ErrAnswerMismatch)
		return
	}

	newHash, err := identity.HashSecret(req.NewSecret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash secret", err)
		return
	}
	if err := h.Directory.ResetCredential(r.Context(), id, newHash); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset credential", err)
		return
	}
	h.Log.Info("credential reset", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// =============================================================================
// STATISTICS HANDLERS
// =============================================================================

// GetIdentityStats returns per-identity statistics, optionally ranged by
// from/to query parameters.
func (h *Handler) GetIdentityStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}

	stats, err := h.Stats.IdentityStats(r.Context(), id, rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsDTO(stats))
}

// GetRollup returns the fleet-wide dashboard rollup.
func (h *Handler) GetRollup(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.Stats.FleetRollup(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute rollup", err)
		return
	}
	writeJSON(w, http.StatusOK, toRollupDTO(rollup))
}

// GetTrend returns the daily on-time/late series for a required date range.
func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	if rng.From.IsZero() || rng.To.IsZero() {
		writeError(w, http.StatusBadRequest, "from and to are required", nil)
		return
	}

	points, err := h.Stats.Trend(r.Context(), rng)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute trend", err)
		return
	}
	dtos := make([]TrendPointDTO, len(points))
	for i, p := range points {
		dtos[i] = TrendPointDTO{Date: p.Date.String(), Total: p.Total, OnTime: p.OnTime, Late: p.Late}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Search runs the query against both the directory and the attendance corpus.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "q is required", nil)
		return
	}

	idents, err := h.Stats.SearchIdentities(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Identity search failed", err)
		return
	}
	records, err := h.Stats.SearchAttendance(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Attendance search failed", err)
		return
	}

	resp := SearchResponse{Identities: []IdentityDTO{}, Attendance: []AttendanceRecordDTO{}}
	for _, ident := range idents {
		resp.Identities = append(resp.Identities, toIdentityDTO(ident))
	}
	for _, rec := range records {
		resp.Attendance = append(resp.Attendance, toDatedRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// WARNING HANDLERS
// =============================================================================

// GetLateWarnings returns identities at or above the lateness threshold.
func (h *Handler) GetLateWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.Warnings.LateWarnings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute warnings", err)
		return
	}
	dtos := make([]LateWarningDTO, len(warnings))
	for i, wrn := range warnings {
		dtos[i] = LateWarningDTO{Identity: toIdentityDTO(wrn.Identity), LateCount: wrn.LateCount}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLowAttendanceWarnings returns identities below the month-to-date floor.
func (h *Handler) GetLowAttendanceWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.Warnings.LowAttendanceWarnings(r.Context(), h.Settings.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute warnings", err)
		return
	}
	dtos := make([]LowAttendanceWarningDTO, len(warnings))
	for i, wrn := range warnings {
		dtos[i] = LowAttendanceWarningDTO{
			Identity:     toIdentityDTO(wrn.Identity),
			Rate:         wrn.Rate.StringFixed(4),
			AttendedDays: wrn.AttendedDays,
			WorkingDays:  wrn.WorkingDays,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMissingToday returns identities with no record today and no leave cover.
func (h *Handler) GetMissingToday(w http.ResponseWriter, r *http.Request) {
	missing, err := h.Warnings.MissingToday(r.Context(), h.Settings.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute missing list", err)
		return
	}
	dtos := make([]IdentityDTO, len(missing))
	for i, ident := range missing {
		dtos[i] = toIdentityDTO(ident)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeaveReminders returns approved leave starting tomorrow.
func (h *Handler) GetLeaveReminders(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.Warnings.UpcomingLeaveReminders(r.Context(), h.Settings.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute reminders", err)
		return
	}
	dtos := make([]LeaveReminderDTO, len(reminders))
	for i, rem := range reminders {
		dtos[i] = LeaveReminderDTO{Request: toLeaveDTO(rem.Request), StartsOn: rem.StartsOn.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// SubmitLeave files a new pending leave request.
func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req SubmitLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := calendar.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := calendar.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	if _, err := h.Directory.Get(r.Context(), req.IdentityID); err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Identity not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to look up identity", err)
		return
	}

	id, err := h.Leave.Request(r.Context(), req.IdentityID, start, end, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, leave.ErrInvalidDateRange), errors.Is(err, leave.ErrEmptyReason):
			writeError(w, http.StatusBadRequest, "Invalid leave request", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to submit leave request", err)
		}
		return
	}

	created, err := h.Leave.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(created))
}

// GetLeave returns one leave request.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, leave.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Leave request not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get leave request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(req))
}

// ApproveLeave records the Pending -> Approved transition.
func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	h.transitionLeave(w, r, h.Leave.Approve)
}

// RejectLeave records the Pending -> Rejected transition.
func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	h.transitionLeave(w, r, h.Leave.Reject)
}

func (h *Handler) transitionLeave(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := fn(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, leave.ErrNotFound):
			writeError(w, http.StatusNotFound, "Leave request not found", err)
		case errors.Is(err, leave.ErrNotPending):
			writeError(w, http.StatusConflict, "Leave request already decided", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update leave request", err)
		}
		return
	}

	req, err := h.Leave.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(req))
}

// ListIdentityLeave returns an identity's leave requests, newest first.
func (h *Handler) ListIdentityLeave(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Leave.ByIdentity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave requests", err)
		return
	}
	dtos := make([]LeaveRequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toLeaveDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the live settings blob.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Settings.Current())
}

// UpdateSettings validates, persists, and atomically swaps in a new blob.
// The next check-in classifies against the new schedule.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings schedule.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	settings = settings.Normalized()
	if err := settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}
	if err := h.SettingsStore.SaveSettings(r.Context(), settings); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist settings", err)
		return
	}
	h.Settings.Replace(settings)
	h.Log.Info("settings updated",
		"start", settings.WorkingHours.Start,
		"end", settings.WorkingHours.End,
		"grace", settings.GracePeriodMinutes,
		"timezone", settings.Timezone)
	writeJSON(w, http.StatusOK, h.Settings.Current())
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
