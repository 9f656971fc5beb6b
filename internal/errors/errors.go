// Package errors defines the error kinds shared by the controllers and
// the transports that map them onto responses.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Error kinds. Controllers wrap one of these so every transport can map an
// error the same way without knowing which package produced it.
var (
	// ErrNotFound: a requested resource, such as a storage namespace, does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput: an argument failed validation; the state is unchanged.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDeviceUnavailable: a hardware collaborator could not be reached.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrUnavailable: a best-effort service (storage, discovery) failed.
	ErrUnavailable = errors.New("service unavailable")
)

// statuses maps each kind to the HTTP status it is reported with.
var statuses = []struct {
	kind   error
	status int
}{
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrNotFound, http.StatusNotFound},
	{ErrDeviceUnavailable, http.StatusServiceUnavailable},
	{ErrUnavailable, http.StatusServiceUnavailable},
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Status returns the HTTP status for err's kind, 500 for errors of no
// known kind.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// LogErrorAndReturn logs err with message and args at error level and
// returns it unchanged. A nil err is returned without logging.
func LogErrorAndReturn(logger *slog.Logger, err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	logger.Error(message, append([]any{"error", err}, args...)...)
	return err
}

// WrapErrorf prefixes err with a formatted context, keeping it in the chain.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsInvalidInput(err error) bool      { return errors.Is(err, ErrInvalidInput) }
func IsDeviceUnavailable(err error) bool { return errors.Is(err, ErrDeviceUnavailable) }
func IsUnavailable(err error) bool       { return errors.Is(err, ErrUnavailable) }

// InvalidInputf returns a formatted error of kind ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return WrapErrorf(ErrInvalidInput, format, args...)
}

// DeviceUnavailablef returns a formatted error of kind ErrDeviceUnavailable.
func DeviceUnavailablef(format string, args ...any) error {
	return WrapErrorf(ErrDeviceUnavailable, format, args...)
}

// Unavailablef returns a formatted error of kind ErrUnavailable.
func Unavailablef(format string, args ...any) error {
	return WrapErrorf(ErrUnavailable, format, args...)
}
