package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by domain errors that know their HTTP status.
// Handlers check for it before falling back to the sentinel mapping.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors. Services wrap these with fmt.Errorf("...: %w", err) so
// handlers can classify failures with errors.Is().
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
)

type (
	// NotFoundError indicates a resource does not exist or is deleted.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates a request failed validation.
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates a missing or unverifiable identity.
	UnauthorizedError struct {
		Message string
	}

	// UnavailableError indicates an optional backing service (database,
	// cache) is not configured or not reachable.
	UnavailableError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *UnavailableError) Error() string  { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *UnavailableError) StatusCode() int  { return http.StatusServiceUnavailable }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *UnavailableError) Is(target error) bool  { return target == ErrUnavailable }

// ConflictError carries enough detail for the client to locate the
// resource that caused the conflict (duplicate slug, duplicate title).
type ConflictError struct {
	Message      string
	ResourceType string // guide, journey
	ResourceID   string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is(err, ErrConflict) to match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
