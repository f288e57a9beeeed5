// Package auth implements sign-up and sign-in on top of the user store.
//
// service.go -- the business logic, free of HTTP concerns.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/finora-app/finora/internal/store"
)

// ErrInvalidCredentials is returned by SignIn for a wrong password AND for a
// nonexistent account. The two cases are indistinguishable by design --
// message, error value, and (via the dummy hash) timing.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store defines the user store operations the service needs.
// Satisfied by *store.PostgresStore -- defined here (at consumer) per Go convention.
type Store interface {
	// CreateUser inserts a new user row. Returns store.ErrDuplicateEmail
	// when the normalized email already has an account.
	CreateUser(ctx context.Context, u *store.User) error

	// GetUserByEmail fetches a user by case-folded email.
	// Returns store.ErrUserNotFound when no row matches.
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

// User is the credential record as exposed to clients: everything except
// the password hash.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service holds the dependencies for sign-up and sign-in.
type Service struct {
	DB Store
}

// SignUp normalizes the email, hashes the password, and persists the user.
// Returns store.ErrDuplicateEmail when the address is taken; the unique
// index makes this hold even for two concurrent sign-ups of the same email.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating user id: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &store.User{
		ID:           id,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         "user",
	}
	if in.FirstName != "" {
		u.FirstName = &in.FirstName
	}
	if in.LastName != "" {
		u.LastName = &in.LastName
	}

	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return view(u), nil
}

// SignIn verifies credentials and returns the user minus the hash.
// Both failure paths -- unknown email and wrong password -- cost one bcrypt
// comparison and return the same ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (*User, error) {
	u, err := s.DB.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Burn a comparison against the dummy hash to equalise timing
			// with the found-user path.
			VerifyPassword(in.Password, dummyPasswordHash)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := VerifyPassword(in.Password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return view(u), nil
}

// HasRole reports whether the user holds exactly the given role.
func (u *User) HasRole(role string) bool {
	return u.Role == role
}

// normalizeEmail case-folds an address so lookups and the unique index
// agree on identity.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// view strips the password hash from a store row.
func view(u *store.User) *User {
	out := &User{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
	if u.FirstName != nil {
		out.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		out.LastName = *u.LastName
	}
	return out
}
