// service_test.go

// unit tests for SignUp/SignIn business logic over the shared mock store.
package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/finora-app/finora/internal/store"
	"github.com/finora-app/finora/internal/testutil"
)

// seedUser builds a store.User with a low-cost hash so tests stay fast;
// VerifyPassword reads the cost from the hash itself.
func seedUser(t *testing.T, email, password string) *store.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seeding hash: %v", err)
	}
	return &store.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        email,
		PasswordHash: string(hash),
		Role:         "user",
	}
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("persists case-folded email and strips the hash", func(t *testing.T) {
		ms := testutil.NewMockStore()
		svc := &Service{DB: ms}

		user, err := svc.SignUp(ctx, SignUpInput{
			Email:     "New.User@Example.COM",
			Password:  "longenough1",
			FirstName: "New",
			LastName:  "User",
		})
		if err != nil {
			t.Fatalf("SignUp: %v", err)
		}
		if user.Email != "new.user@example.com" {
			t.Errorf("email: expected case-folded, got %q", user.Email)
		}
		if user.Role != "user" {
			t.Errorf("role: expected user, got %q", user.Role)
		}
		if user.FirstName != "New" || user.LastName != "User" {
			t.Errorf("names: got %q %q", user.FirstName, user.LastName)
		}

		stored, ok := ms.Users["new.user@example.com"]
		if !ok {
			t.Fatal("user not stored under folded email")
		}
		if stored.PasswordHash == "" || stored.PasswordHash == "longenough1" {
			t.Error("password must be stored hashed")
		}
	})

	t.Run("case-differing duplicate fails with ErrDuplicateEmail", func(t *testing.T) {
		ms := testutil.NewMockStore()
		svc := &Service{DB: ms}

		if _, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "longenough1"}); err != nil {
			t.Fatalf("first SignUp: %v", err)
		}
		_, err := svc.SignUp(ctx, SignUpInput{Email: "A@B.com", Password: "otherpassword2"})
		if !errors.Is(err, store.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		boom := errors.New("db down")
		svc := &Service{DB: &testutil.MockStore{CreateUserErr: boom, Users: map[string]*store.User{}}}

		_, err := svc.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "longenough1"})
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("correct credentials return user without hash", func(t *testing.T) {
		ms := testutil.NewMockStore(seedUser(t, "a@b.com", "longenough1"))
		svc := &Service{DB: ms}

		user, err := svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "longenough1"})
		if err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		if user.Email != "a@b.com" {
			t.Errorf("email: got %q", user.Email)
		}
	})

	t.Run("email lookup is case-insensitive", func(t *testing.T) {
		ms := testutil.NewMockStore(seedUser(t, "a@b.com", "longenough1"))
		svc := &Service{DB: ms}

		if _, err := svc.SignIn(ctx, SignInInput{Email: "A@B.COM", Password: "longenough1"}); err != nil {
			t.Errorf("SignIn with case-differing email: %v", err)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		ms := testutil.NewMockStore(seedUser(t, "a@b.com", "longenough1"))
		svc := &Service{DB: ms}

		_, errWrongPwd := svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "wrongpassword"})
		_, errNoUser := svc.SignIn(ctx, SignInInput{Email: "ghost@b.com", Password: "whatever123"})

		if !errors.Is(errWrongPwd, ErrInvalidCredentials) {
			t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", errWrongPwd)
		}
		if !errors.Is(errNoUser, ErrInvalidCredentials) {
			t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", errNoUser)
		}
		if errWrongPwd.Error() != errNoUser.Error() {
			t.Error("both failures must carry the identical message")
		}
	})

	t.Run("store failure is not ErrInvalidCredentials", func(t *testing.T) {
		boom := errors.New("db down")
		svc := &Service{DB: &testutil.MockStore{GetUserByEmailErr: boom}}

		_, err := svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "longenough1"})
		if errors.Is(err, ErrInvalidCredentials) {
			t.Error("infrastructure failure must not masquerade as bad credentials")
		}
	})
}

func TestHasRole(t *testing.T) {
	u := &User{Role: "admin"}
	if !u.HasRole("admin") {
		t.Error("expected HasRole(admin) true")
	}
	if u.HasRole("user") {
		t.Error("expected HasRole(user) false")
	}
}
