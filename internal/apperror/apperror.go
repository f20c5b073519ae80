package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain failure classes. Services wrap these in an
// AppError; handlers match on them with errors.Is to pick an HTTP status.
//
// The taxonomy is deliberately small and stable:
//   - ErrValidation   → caller sent something malformed, fix and retry
//   - ErrNotFound     → record absent OR owned by someone else (we never
//     distinguish the two, so existence doesn't leak across accounts)
//   - ErrConflict     → uniqueness violated (duplicate category name) or a
//     mutation blocked by referencing records
//   - ErrUnauthorized → missing/invalid/expired token, or a token whose user
//     no longer exists or is no longer verified
//   - ErrInvalidCode  → OTP mismatch or already consumed
//   - ErrExpired      → OTP past its expiry; the client must request a new one
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidCode  = errors.New("invalid code")
	ErrExpired      = errors.New("expired")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s: %s", resource, message),
	}
}

// Unauthorized returns an AppError for a request that failed authentication.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InvalidCode is returned when a submitted verification code does not match
// the stored one (including codes that were already consumed).
func InvalidCode() *AppError {
	return &AppError{
		Err:     ErrInvalidCode,
		Message: "verification code is invalid",
	}
}

// Expired is returned when the stored verification code has passed its
// expiry. The client must request a fresh code.
func Expired() *AppError {
	return &AppError{
		Err:     ErrExpired,
		Message: "verification code has expired",
	}
}
