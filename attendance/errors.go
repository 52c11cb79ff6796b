package attendance

import (
	"errors"
	"fmt"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCorruptLedger marks a persisted day unit that could not be decoded.
	// It is scoped to a single date; other dates remain readable.
	ErrCorruptLedger = errors.New("corrupt ledger unit")

	// ErrStorageFailure marks a durable write (or its backup) that could not
	// be committed. In-memory state is not rolled back; the caller may retry
	// Save or accept the risk of loss on crash.
	ErrStorageFailure = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CorruptLedgerError reports which date's unit failed to decode and why.
type CorruptLedgerError struct {
	Date  calendar.Date
	Cause error
}

func (e *CorruptLedgerError) Error() string {
	return fmt.Sprintf("corrupt ledger unit for %s: %v", e.Date, e.Cause)
}

func (e *CorruptLedgerError) Unwrap() error { return ErrCorruptLedger }

// StorageError wraps a failed durable write with the date it was for.
type StorageError struct {
	Date  calendar.Date
	Op    string // "save" or "backup"
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Date, e.Cause)
}

func (e *StorageError) Unwrap() error { return ErrStorageFailure }
