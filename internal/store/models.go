// models.go -- Shared domain types and sentinel errors for the store package.
package store

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
)

// ErrDuplicateEmail is returned by CreateUser when the normalized email
// already has an account. Callers use errors.Is to map it to a distinct
// conflict response instead of a generic failure.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrUserNotFound is returned by GetUserByEmail when no account matches.
// Callers use errors.Is to distinguish a miss from an infrastructure failure.
var ErrUserNotFound = errors.New("user not found")

// User represents a row in the users table.
// Email is stored case-folded; Role defaults to "user".
// Nullable columns are pointers -- nil means SQL NULL.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RateLimitPolicy is a fixed-window request budget: MaxAttempts requests per
// Window, counter resets when the window key expires.
type RateLimitPolicy struct {
	MaxAttempts int
	Window      time.Duration
}
