package schedule

import (
	"context"
	"errors"
)

var (
	// ErrInvalidWorkingHours is returned by Settings.Validate when the
	// schedule would be unusable (end not after start, negative grace).
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)

// Store persists the settings blob. A missing blob is not an error: Load
// returns defaults and the caller decides whether to write them back.
type Store interface {
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}
