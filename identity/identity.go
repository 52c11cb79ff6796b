// Package identity maintains the directory of registered people: stable
// six-digit ids, display name, department, and the opaque credential material
// the authentication collaborator needs. Identities are created at
// registration, mutated only by explicit profile edits, and never deleted in
// normal operation.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// IDENTITY
// =============================================================================

// Identity is one directory entry. CredentialHash and SecurityAnswerHash are
// opaque to the engine; it stores and returns them without interpreting them.
type Identity struct {
	ID                 string
	Name               string
	Department         string
	PhotoRef           string
	CredentialHash     string
	SecurityQuestionID string
	SecurityAnswerHash string
	RegisteredAt       time.Time
}

// ValidDepartments is the closed set accepted at registration.
var ValidDepartments = []string{"IT", "Chemistry", "English", "Microbiology"}

// SecurityQuestions maps question ids to their display text.
var SecurityQuestions = map[string]string{
	"pet":    "What was your first pets name?",
	"city":   "In which city were you born?",
	"school": "What was your first schools name?",
	"mother": "What is your mothers maiden name?",
	"food":   "What is your favorite childhood food?",
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound           = errors.New("identity not found")
	ErrInvalidDepartment  = errors.New("unknown department")
	ErrUnknownQuestion    = errors.New("unknown security question")
	ErrMissingField       = errors.New("missing required field")
	ErrAnswerMismatch     = errors.New("security answer does not match")
	ErrDirectoryExhausted = errors.New("could not allocate a unique id")
)

// =============================================================================
// STORE
// =============================================================================

// Store persists the identity directory.
type Store interface {
	SaveIdentity(ctx context.Context, id Identity) error
	GetIdentity(ctx context.Context, id string) (Identity, bool, error)
	ListIdentities(ctx context.Context) ([]Identity, error)
}

// =============================================================================
// DIRECTORY SERVICE
// =============================================================================

// Directory wraps a Store with registration and profile-edit rules.
type Directory struct {
	store Store
	now   func() time.Time

	mu sync.Mutex // serializes id allocation
}

func NewDirectory(store Store, now func() time.Time) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{store: store, now: now}
}

// Registration carries the fields required to create an identity. Hashes are
// produced by the caller (see credential.go); the directory treats them as
// opaque strings.
type Registration struct {
	Name               string
	Department         string
	PhotoRef           string
	CredentialHash     string
	SecurityQuestionID string
	SecurityAnswerHash string
}

func (r Registration) validate() error {
	if strings.TrimSpace(r.Name) == "" || r.CredentialHash == "" || r.SecurityAnswerHash == "" {
		return ErrMissingField
	}
	if !validDepartment(r.Department) {
		return fmt.Errorf("%w: %q", ErrInvalidDepartment, r.Department)
	}
	if _, ok := SecurityQuestions[r.SecurityQuestionID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, r.SecurityQuestionID)
	}
	return nil
}

func validDepartment(d string) bool {
	for _, v := range ValidDepartments {
		if v == d {
			return true
		}
	}
	return false
}

// Register creates a new identity with a fresh zero-padded six-digit id.
func (d *Directory) Register(ctx context.Context, reg Registration) (Identity, error) {
	if err := reg.validate(); err != nil {
		return Identity{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.allocateID(ctx)
	if err != nil {
		return Identity{}, err
	}
	ident := Identity{
		ID:                 id,
		Name:               reg.Name,
		Department:         reg.Department,
		PhotoRef:           reg.PhotoRef,
		CredentialHash:     reg.CredentialHash,
		SecurityQuestionID: reg.SecurityQuestionID,
		SecurityAnswerHash: reg.SecurityAnswerHash,
		RegisteredAt:       d.now(),
	}
	if err := d.store.SaveIdentity(ctx, ident); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// allocateID draws random six-digit ids until one is free. The id space is
// a million entries against populations of hundreds; the retry bound exists
// only to turn an overfull directory into an error instead of a spin.
func (d *Directory) allocateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10000; attempt++ {
		candidate := fmt.Sprintf("%06d", rand.Intn(1000000))
		_, exists, err := d.store.GetIdentity(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrDirectoryExhausted
}

// Get returns one identity.
func (d *Directory) Get(ctx context.Context, id string) (Identity, error) {
	ident, ok, err := d.store.GetIdentity(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	if !ok {
		return Identity{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ident, nil
}

// List returns the whole directory sorted by id.
func (d *Directory) List(ctx context.Context) ([]Identity, error) {
	idents, err := d.store.ListIdentities(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(idents, func(i, j int) bool { return idents[i].ID < idents[j].ID })
	return idents, nil
}

// UpdateProfile applies an explicit edit to name and department. Empty fields
// keep their current value; the id is immutable.
func (d *Directory) UpdateProfile(ctx context.Context, id, name, department string) (Identity, error) {
	ident, err := d.Get(ctx, id)
	if err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(name) != "" {
		ident.Name = name
	}
	if department != "" {
		if !validDepartment(department) {
			return Identity{}, fmt.Errorf("%w: %q", ErrInvalidDepartment, department)
		}
		ident.Department = department
	}
	if err := d.store.SaveIdentity(ctx, ident); err != nil {
		return Identity{}, err
	}
	return ident, nil
}

// ResetCredential replaces the credential hash after the caller has verified
// the security answer (see VerifySecret). The answer check lives with the
// hashes, not here, so the directory never sees plaintext.
func (d *Directory) ResetCredential(ctx context.Context, id, newCredentialHash string) error {
	ident, err := d.Get(ctx, id)
	if err != nil {
		return err
	}
	ident.CredentialHash = newCredentialHash
	return d.store.SaveIdentity(ctx, ident)
}
