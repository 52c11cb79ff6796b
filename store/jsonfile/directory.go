package jsonfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/identity"
	"github.com/warp/attendance-engine/leave"
	"github.com/warp/attendance-engine/schedule"
)

// Persisted field names follow the historical layout; renaming them would
// orphan existing deployments' files.

const registrationLayout = "2006-01-02 15:04:05"

// =============================================================================
// IDENTITY DIRECTORY (user_records.json)
// =============================================================================

type userRecord struct {
	Name             string `json:"name"`
	Department       string `json:"department"`
	PhotoPath        string `json:"photo_path"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
	RegistrationDate string `json:"registration_date"`
}

func (s *Store) readUsers() (map[string]userRecord, error) {
	users := make(map[string]userRecord)
	if _, err := readJSON(filepath.Join(s.dir, userFile), &users); err != nil {
		return nil, fmt.Errorf("read %s: %w", userFile, err)
	}
	return users, nil
}

func (s *Store) SaveIdentity(_ context.Context, id identity.Identity) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return err
	}
	users[id.ID] = userRecord{
		Name:             id.Name,
		Department:       id.Department,
		PhotoPath:        id.PhotoRef,
		Password:         id.CredentialHash,
		SecurityQuestion: id.SecurityQuestionID,
		SecurityAnswer:   id.SecurityAnswerHash,
		RegistrationDate: id.RegisteredAt.Format(registrationLayout),
	}
	return s.writeAtomic(filepath.Join(s.dir, userFile), users)
}

func (s *Store) GetIdentity(ctx context.Context, id string) (identity.Identity, bool, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return identity.Identity{}, false, err
	}
	rec, ok := users[id]
	if !ok {
		return identity.Identity{}, false, nil
	}
	return decodeUser(id, rec), true, nil
}

func (s *Store) ListIdentities(_ context.Context) ([]identity.Identity, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	out := make([]identity.Identity, 0, len(users))
	for id, rec := range users {
		out = append(out, decodeUser(id, rec))
	}
	return out, nil
}

func decodeUser(id string, rec userRecord) identity.Identity {
	registered, _ := time.Parse(registrationLayout, rec.RegistrationDate)
	return identity.Identity{
		ID:                 id,
		Name:               rec.Name,
		Department:         rec.Department,
		PhotoRef:           rec.PhotoPath,
		CredentialHash:     rec.Password,
		SecurityQuestionID: rec.SecurityQuestion,
		SecurityAnswerHash: rec.SecurityAnswer,
		RegisteredAt:       registered,
	}
}

var _ identity.Store = (*Store)(nil)

// =============================================================================
// LEAVE REQUESTS (leave_requests.json)
// =============================================================================

type leaveRecord struct {
	UserID      string `json:"user_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at,omitempty"`
}

func (s *Store) readLeaves() (map[string]leaveRecord, error) {
	reqs := make(map[string]leaveRecord)
	if _, err := readJSON(filepath.Join(s.dir, leaveFile), &reqs); err != nil {
		return nil, fmt.Errorf("read %s: %w", leaveFile, err)
	}
	return reqs, nil
}

func (s *Store) SaveLeaveRequest(_ context.Context, r leave.Request) error {
	s.leaveMu.Lock()
	defer s.leaveMu.Unlock()

	reqs, err := s.readLeaves()
	if err != nil {
		return err
	}
	reqs[r.ID] = leaveRecord{
		UserID:      r.IdentityID,
		StartDate:   r.Start.String(),
		EndDate:     r.End.String(),
		Reason:      r.Reason,
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt.Format(time.RFC3339),
	}
	return s.writeAtomic(filepath.Join(s.dir, leaveFile), reqs)
}

func (s *Store) GetLeaveRequest(_ context.Context, id string) (leave.Request, bool, error) {
	s.leaveMu.Lock()
	defer s.leaveMu.Unlock()

	reqs, err := s.readLeaves()
	if err != nil {
		return leave.Request{}, false, err
	}
	rec, ok := reqs[id]
	if !ok {
		return leave.Request{}, false, nil
	}
	req, err := decodeLeave(id, rec)
	if err != nil {
		return leave.Request{}, false, err
	}
	return req, true, nil
}

func (s *Store) ListLeaveRequests(_ context.Context) ([]leave.Request, error) {
	s.leaveMu.Lock()
	defer s.leaveMu.Unlock()

	reqs, err := s.readLeaves()
	if err != nil {
		return nil, err
	}
	out := make([]leave.Request, 0, len(reqs))
	for id, rec := range reqs {
		req, err := decodeLeave(id, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func decodeLeave(id string, rec leaveRecord) (leave.Request, error) {
	start, err := calendar.ParseDate(rec.StartDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s start: %w", id, err)
	}
	end, err := calendar.ParseDate(rec.EndDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s end: %w", id, err)
	}
	submitted, _ := time.Parse(time.RFC3339, rec.SubmittedAt)
	return leave.Request{
		ID:          id,
		IdentityID:  rec.UserID,
		Start:       start,
		End:         end,
		Reason:      rec.Reason,
		Status:      leave.Status(rec.Status),
		SubmittedAt: submitted,
	}, nil
}

var _ leave.Store = (*Store)(nil)

// =============================================================================
// SETTINGS (settings.json)
// =============================================================================

// LoadSettings returns the persisted blob with its schedule times normalized,
// or defaults when the blob is missing or unreadable. A broken settings file
// must never block attendance capture.
func (s *Store) LoadSettings(_ context.Context) (schedule.Settings, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings := schedule.DefaultSettings()
	found, err := readJSON(filepath.Join(s.dir, settingsFile), &settings)
	if err != nil || !found {
		return schedule.DefaultSettings(), nil
	}
	return settings.Normalized(), nil
}

// SaveSettings replaces the blob and archives a timestamped copy alongside it.
func (s *Store) SaveSettings(_ context.Context, settings schedule.Settings) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings = settings.Normalized()
	if err := s.writeAtomic(filepath.Join(s.dir, settingsFile), settings); err != nil {
		return err
	}
	backup := fmt.Sprintf("settings_backup_%s.json", time.Now().Format("20060102_150405"))
	return s.writeAtomic(filepath.Join(s.dir, backup), settings)
}

var _ schedule.Store = (*Store)(nil)
