package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Scheduling rule violations. All of these signal caller input problems and
// must never be retried by the core.
var (
	ErrMissingField     = New("MISSING_FIELD", http.StatusBadRequest, "required field is missing")
	ErrDuplicatePaper   = New("DUPLICATE_PAPER", http.StatusBadRequest, "paper appears more than once in the batch")
	ErrAlreadyScheduled = New("ALREADY_SCHEDULED", http.StatusConflict, "paper is already scheduled")
	ErrPaperNotFound    = New("PAPER_NOT_FOUND", http.StatusNotFound, "paper not found")
	ErrInvalidSession   = New("INVALID_SESSION", http.StatusBadRequest, "unknown session")
	ErrTrackMismatch    = New("TRACK_MISMATCH", http.StatusBadRequest, "track does not match session track")
	ErrTimeSlotMismatch = New("TIME_SLOT_MISMATCH", http.StatusBadRequest, "time slot does not match session time slot")
	ErrDateMismatch     = New("DATE_MISMATCH", http.StatusBadRequest, "date does not match session day")
	ErrSlotTaken        = New("SLOT_TAKEN", http.StatusConflict, "slot is already taken")
	ErrCapacityExceeded = New("CAPACITY_EXCEEDED", http.StatusConflict, "session capacity reached")
	ErrInvalidToken     = New("INVALID_TOKEN", http.StatusBadRequest, "invalid or expired confirmation token")
	ErrAlreadyResolved  = New("ALREADY_RESOLVED", http.StatusConflict, "confirmation already resolved")
)

// General purpose errors shared across services.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	// ErrUnavailable marks storage-layer transient failures. Unlike the
	// validation taxonomy above, these are safe for the caller to retry.
	ErrUnavailable = New("UNAVAILABLE", http.StatusServiceUnavailable, "storage temporarily unavailable")
	ErrCacheMiss   = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same code as target. Typed scheduling
// errors are matched by code, not by pointer identity, so cloned instances
// with contextual messages still compare equal.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
