/*
Package leave implements the leave-request workflow: a small state machine of
requests keyed by request id. The Aggregator and Warning Engine consult it to
suppress false absence and lateness signals for dates inside an approved
range.

State transitions:

	(request)  -> Pending
	Pending    -> Approved | Rejected   (administrative action)

Approval and rejection are decisions made by an external collaborator; this
package only records the resulting state.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// REQUEST
// =============================================================================

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Request is one leave request. Start and End are inclusive calendar days.
// Invariant: Start <= End, and Start was not in the past at creation time.
type Request struct {
	ID          string
	IdentityID  string
	Start       calendar.Date
	End         calendar.Date
	Reason      string
	Status      Status
	SubmittedAt time.Time
}

// Covers reports whether a date falls inside the request's range.
func (r Request) Covers(date calendar.Date) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrInvalidDateRange = errors.New("invalid leave date range")
	ErrEmptyReason      = errors.New("leave reason must not be blank")
	ErrNotFound         = errors.New("leave request not found")
	ErrNotPending       = errors.New("leave request is not pending")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists the request map.
type Store interface {
	SaveLeaveRequest(ctx context.Context, r Request) error
	GetLeaveRequest(ctx context.Context, id string) (Request, bool, error)
	ListLeaveRequests(ctx context.Context) ([]Request, error)
}

// =============================================================================
// WORKFLOW SERVICE
// =============================================================================

// Workflow validates and records requests. The mutex covers the
// read-modify-write in the transition methods; creation is append-only.
type Workflow struct {
	store Store
	now   func() time.Time

	mu sync.Mutex
}

func NewWorkflow(store Store, now func() time.Time) *Workflow {
	if now == nil {
		now = time.Now
	}
	return &Workflow{store: store, now: now}
}

// Request validates and stores a new Pending request, returning its id.
func (w *Workflow) Request(ctx context.Context, identityID string, start, end calendar.Date, reason string) (string, error) {
	if end.Before(start) {
		return "", fmt.Errorf("%w: end %s before start %s", ErrInvalidDateRange, end, start)
	}
	today := calendar.DateOf(w.now())
	if start.Before(today) {
		return "", fmt.Errorf("%w: start %s is in the past", ErrInvalidDateRange, start)
	}
	if strings.TrimSpace(reason) == "" {
		return "", ErrEmptyReason
	}

	req := Request{
		ID:          uuid.NewString(),
		IdentityID:  identityID,
		Start:       start,
		End:         end,
		Reason:      reason,
		Status:      StatusPending,
		SubmittedAt: w.now(),
	}
	if err := w.store.SaveLeaveRequest(ctx, req); err != nil {
		return "", err
	}
	return req.ID, nil
}

// Approve records the Pending -> Approved transition.
func (w *Workflow) Approve(ctx context.Context, id string) error {
	return w.transition(ctx, id, StatusApproved)
}

// Reject records the Pending -> Rejected transition.
func (w *Workflow) Reject(ctx context.Context, id string) error {
	return w.transition(ctx, id, StatusRejected)
}

func (w *Workflow) transition(ctx context.Context, id string, to Status) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	req, ok, err := w.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if req.Status != StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrNotPending, id, req.Status)
	}
	req.Status = to
	return w.store.SaveLeaveRequest(ctx, req)
}

// Get returns one request.
func (w *Workflow) Get(ctx context.Context, id string) (Request, error) {
	req, ok, err := w.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return req, nil
}

// ByIdentity lists an identity's requests, most recently submitted first.
func (w *Workflow) ByIdentity(ctx context.Context, identityID string) ([]Request, error) {
	all, err := w.store.ListLeaveRequests(ctx)
	if err != nil {
		return nil, err
	}
	var out []Request
	for _, r := range all {
		if r.IdentityID == identityID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

// Approved lists all approved requests.
func (w *Workflow) Approved(ctx context.Context) ([]Request, error) {
	all, err := w.store.ListLeaveRequests(ctx)
	if err != nil {
		return nil, err
	}
	var out []Request
	for _, r := range all {
		if r.Status == StatusApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

// IsOnApprovedLeave is the read contract the Aggregator and Warning Engine
// use to suppress absence and lateness signals.
func (w *Workflow) IsOnApprovedLeave(ctx context.Context, identityID string, date calendar.Date) (bool, error) {
	all, err := w.store.ListLeaveRequests(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range all {
		if r.Status == StatusApproved && r.IdentityID == identityID && r.Covers(date) {
			return true, nil
		}
	}
	return false, nil
}
