package led

import (
	"fmt"

	"github.com/jmylchreest/reeflightd/internal/errors"
)

// Errors returned by the LED engine. Each wraps one of the shared kinds in
// internal/errors so transports can map them without knowing this package.
var (
	ErrInvalidArgument  = errors.ErrInvalidInput
	ErrScheduleTooLarge = fmt.Errorf("schedule too large: %w", errors.ErrInvalidInput)
	ErrDuplicateInstant = fmt.Errorf("duplicate keyframe instant: %w", errors.ErrInvalidInput)
	ErrNoSchedule       = fmt.Errorf("no schedule: %w", errors.ErrNotFound)
)
