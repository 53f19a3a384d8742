package booking

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable failure taxonomy surfaced to callers.
type ErrorKind string

const (
	KindInvalidDay      ErrorKind = "INVALID_DAY"
	KindSundayHoliday   ErrorKind = "SUNDAY_HOLIDAY"
	KindInvalidSlot     ErrorKind = "INVALID_SLOT"
	KindInvalidStatus   ErrorKind = "INVALID_STATUS"
	KindNoAvailability  ErrorKind = "NO_AVAILABILITY"
	KindSlotTaken       ErrorKind = "SLOT_TAKEN"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindValidationError ErrorKind = "VALIDATION_ERROR"
)

// Error is a structured booking failure. Every rejection the engine produces
// is one of these; raw storage errors never cross the package boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// internalError wraps an unexpected fault (storage unreachable, scan error)
// as VALIDATION_ERROR. The cause stays attached for server-side logging but
// the message shown to callers is generic.
func internalError(cause error) *Error {
	return &Error{
		Kind:    KindValidationError,
		Message: "validation failed due to an internal error",
		cause:   cause,
	}
}

// KindOf extracts the failure kind from err, or "" if err is not a booking
// failure.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
