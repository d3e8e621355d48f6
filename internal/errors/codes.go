package errors

import "github.com/cockroachdb/errors"

// Sentinel errors used to classify failures across the codebase. Every error
// returned by a repository, service or the engine is marked with exactly one
// of these via the builder's Mark method so callers can branch on errors.Is.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrDatabase         = errors.New("database_error")
	ErrSystem           = errors.New("system_error")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrHTTPClient       = errors.New("http_client_error")
)

// Error code strings surfaced in API responses.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeDatabase         = "database_error"
	ErrCodeSystem           = "system_error"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeHTTPClient       = "http_client_error"
)

// ErrCodeOf returns the API error code for a marked error.
func ErrCodeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ErrCodeAlreadyExists
	case errors.Is(err, ErrDatabase):
		return ErrCodeDatabase
	case errors.Is(err, ErrPermissionDenied):
		return ErrCodePermissionDenied
	case errors.Is(err, ErrInvalidOperation):
		return ErrCodeInvalidOperation
	case errors.Is(err, ErrHTTPClient):
		return ErrCodeHTTPClient
	default:
		return ErrCodeSystem
	}
}

// IsNotFound returns true if the error is marked as a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is marked as a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAlreadyExists returns true if the error is marked as an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsDatabase returns true if the error is marked as a database error
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsInvalidOperation returns true if the error is marked as an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsSystem returns true if the error is marked as a system error
func IsSystem(err error) bool {
	return errors.Is(err, ErrSystem)
}
