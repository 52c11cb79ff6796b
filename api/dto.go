/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route wiring
*/
package api

import (
	"github.com/warp/attendance-engine/analytics"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
)

// =============================================================================
// ATTENDANCE TYPES
// =============================================================================

// CheckinRequest is the body for recording an arrival.
type CheckinRequest struct {
	IdentityID string `json:"identity_id"`
}

// AttendanceRecordDTO is one ledger entry in API responses.
type AttendanceRecordDTO struct {
	IdentityID string `json:"identity_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time"`
	Status     string `json:"status"`
	Timezone   string `json:"timezone"`
}

// CheckinResponse reports the outcome of a check-in attempt.
type CheckinResponse struct {
	Outcome string               `json:"outcome"`
	Record  *AttendanceRecordDTO `json:"record,omitempty"`
}

func toRecordDTO(rec attendance.Record) AttendanceRecordDTO {
	return AttendanceRecordDTO{
		IdentityID: rec.IdentityID,
		Name:       rec.Name,
		Department: rec.Department,
		Time:       rec.Arrival.String(),
		Status:     rec.Status.String(),
		Timezone:   rec.Timezone,
	}
}

func toDatedRecordDTO(rec attendance.DatedRecord) AttendanceRecordDTO {
	dto := toRecordDTO(rec.Record)
	dto.Date = rec.Date.String()
	return dto
}

// =============================================================================
// IDENTITY TYPES
// =============================================================================

// IdentityDTO represents a directory entry in API responses. Credential
// material never leaves the server.
type IdentityDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	PhotoRef     string `json:"photo_ref,omitempty"`
	RegisteredAt string `json:"registered_at"`
}

// RegisterIdentityRequest is the request to create a directory entry.
type RegisterIdentityRequest struct {
	Name             string `json:"name"`
	Department       string `json:"department"`
	PhotoRef         string `json:"photo_ref"`
	Secret           string `json:"secret"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
}

// UpdateIdentityRequest edits name and/or department. Empty fields are
// left unchanged.
type UpdateIdentityRequest struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// ResetCredentialRequest carries the recovery flow: the security answer is
// verified before the new secret replaces the old one.
type ResetCredentialRequest struct {
	SecurityAnswer string `json:"security_answer"`
	NewSecret      string `json:"new_secret"`
}

func toIdentityDTO(ident identity.Identity) IdentityDTO {
	return IdentityDTO{
		ID:           ident.ID,
		Name:         ident.Name,
		Department:   ident.Department,
		PhotoRef:     ident.PhotoRef,
		RegisteredAt: ident.RegisteredAt.Format("2006-01-02 15:04:05"),
	}
}

// =============================================================================
// STATISTICS TYPES
// =============================================================================

// StatsDTO is the per-identity statistics response.
type StatsDTO struct {
	IdentityID     string                `json:"identity_id"`
	From           string                `json:"from,omitempty"`
	To             string                `json:"to,omitempty"`
	TotalDays      int                   `json:"total_days"`
	PresentDays    int                   `json:"present_days"`
	LateDays       int                   `json:"late_days"`
	AbsentDays     int                   `json:"absent_days"`
	LongestStreak  int                   `json:"longest_streak"`
	LastAttendance *AttendanceRecordDTO  `json:"last_attendance,omitempty"`
	Recent         []AttendanceRecordDTO `json:"recent"`
	SkippedDays    []string              `json:"skipped_days,omitempty"`
}

func toStatsDTO(s analytics.Stats) StatsDTO {
	dto := StatsDTO{
		IdentityID:    s.IdentityID,
		TotalDays:     s.TotalDays,
		PresentDays:   s.PresentDays,
		LateDays:      s.LateDays,
		AbsentDays:    s.AbsentDays,
		LongestStreak: s.LongestStreak,
		Recent:        []AttendanceRecordDTO{},
	}
	if !s.Range.IsZero() {
		dto.From = s.Range.From.String()
		dto.To = s.Range.To.String()
	}
	if s.LastAttendance != nil {
		last := toDatedRecordDTO(*s.LastAttendance)
		dto.LastAttendance = &last
	}
	for _, rec := range s.Recent {
		dto.Recent = append(dto.Recent, toDatedRecordDTO(rec))
	}
	for _, d := range s.SkippedDays {
		dto.SkippedDays = append(dto.SkippedDays, d.String())
	}
	return dto
}

// RollupDTO is the fleet-wide dashboard response.
type RollupDTO struct {
	Monthly         map[string]MonthlyCountDTO `json:"monthly"`
	Departments     map[string]int             `json:"departments"`
	LastSevenDays   []DailyCountDTO            `json:"last_seven_days"`
	TotalIdentities int                        `json:"total_identities"`
	TotalLates      int                        `json:"total_lates"`
	SkippedDays     []string                   `json:"skipped_days,omitempty"`
}

type MonthlyCountDTO struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
}

type DailyCountDTO struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
}

func toRollupDTO(r analytics.Rollup) RollupDTO {
	dto := RollupDTO{
		Monthly:         make(map[string]MonthlyCountDTO, len(r.Monthly)),
		Departments:     r.Departments,
		LastSevenDays:   []DailyCountDTO{},
		TotalIdentities: r.TotalIdentities,
		TotalLates:      r.TotalLates,
	}
	for month, mc := range r.Monthly {
		dto.Monthly[month] = MonthlyCountDTO{Present: mc.Present, Late: mc.Late, Absent: mc.Absent}
	}
	for _, dc := range r.LastSevenDays {
		dto.LastSevenDays = append(dto.LastSevenDays, DailyCountDTO{Date: dc.Date.String(), Total: dc.Total})
	}
	for _, d := range r.SkippedDays {
		dto.SkippedDays = append(dto.SkippedDays, d.String())
	}
	return dto
}

// TrendPointDTO is one day in the on-time/late chart series.
type TrendPointDTO struct {
	Date   string `json:"date"`
	Total  int    `json:"total"`
	OnTime int    `json:"on_time"`
	Late   int    `json:"late"`
}

// SearchResponse bundles both search surfaces for one query.
type SearchResponse struct {
	Identities []IdentityDTO         `json:"identities"`
	Attendance []AttendanceRecordDTO `json:"attendance"`
}

// =============================================================================
// WARNING TYPES
// =============================================================================

type LateWarningDTO struct {
	Identity  IdentityDTO `json:"identity"`
	LateCount int         `json:"late_count"`
}

type LowAttendanceWarningDTO struct {
	Identity     IdentityDTO `json:"identity"`
	Rate         string      `json:"rate"`
	AttendedDays int         `json:"attended_days"`
	WorkingDays  int         `json:"working_days"`
}

type LeaveReminderDTO struct {
	Request  LeaveRequestDTO `json:"request"`
	StartsOn string          `json:"starts_on"`
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// SubmitLeaveRequest is the body for filing a leave request.
type SubmitLeaveRequest struct {
	IdentityID string `json:"identity_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID          string `json:"id"`
	IdentityID  string `json:"identity_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
}

func toLeaveDTO(r leave.Request) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:          r.ID,
		IdentityID:  r.IdentityID,
		StartDate:   r.Start.String(),
		EndDate:     r.End.String(),
		Reason:      r.Reason,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt.Format("2006-01-02 15:04:05"),
	}
}

// =============================================================================
// SETTINGS TYPES
// =============================================================================

// SettingsDTO mirrors the persisted settings blob one-to-one; the blob's own
// json tags define the wire shape.
type SettingsDTO = schedule.Settings

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// parseRange reads optional from/to query values into a Range.
func parseRange(from, to string) (calendar.Range, error) {
	var r calendar.Range
	var err error
	if from != "" {
		if r.From, err = calendar.ParseDate(from); err != nil {
			return calendar.Range{}, err
		}
	}
	if to != "" {
		if r.To, err = calendar.ParseDate(to); err != nil {
			return calendar.Range{}, err
		}
	}
	return r, nil
}
