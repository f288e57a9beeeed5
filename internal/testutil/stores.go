// stores.go
//
// Shared mock implementations of auth.Store and httpx.RateLimiter.
// Imported by test files across packages to avoid duplicate mock definitions.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/finora-app/finora/internal/store"
)

// MockStore implements auth.Store for tests.
//
// Stateful: Users is a map keyed by case-folded email, like a real store.
// Use the *Err fields to inject failures for specific operations.
type MockStore struct {
	// Error injection -- zero value means no error.
	CreateUserErr     error
	GetUserByEmailErr error

	Users map[string]*store.User // keyed by email

	mu sync.Mutex
}

// NewMockStore returns a MockStore seeded with the given users, indexed by email.
func NewMockStore(users ...*store.User) *MockStore {
	ms := &MockStore{Users: make(map[string]*store.User)}
	for _, u := range users {
		ms.Users[u.Email] = u
	}
	return ms
}

func (m *MockStore) CreateUser(_ context.Context, u *store.User) error {
	if m.CreateUserErr != nil {
		return m.CreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Users[u.Email]; exists {
		return store.ErrDuplicateEmail
	}
	// Same contract as the real store: the insert assigns the timestamps.
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.Users[u.Email] = &cp
	return nil
}

func (m *MockStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	if m.GetUserByEmailErr != nil {
		return nil, m.GetUserByEmailErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// MockLimiter implements httpx.RateLimiter with a scripted verdict.
type MockLimiter struct {
	Blocked bool
	Err     error

	mu    sync.Mutex
	Calls []string
}

func (m *MockLimiter) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, key)
	return !m.Blocked, m.Err
}
