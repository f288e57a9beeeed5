// password_test.go
package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("reading cost: %v", err)
	}
	if cost != bcryptCost {
		t.Errorf("cost: expected %d, got %d", bcryptCost, cost)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Errorf("verify round-trip: ok=%v err=%v", ok, err)
	}
}

func TestVerifyPassword(t *testing.T) {
	// Low cost keeps the table fast; VerifyPassword reads cost from the hash.
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("seeding hash: %v", err)
	}

	t.Run("mismatch is false without error", func(t *testing.T) {
		ok, err := VerifyPassword("hunter23", string(hash))
		if err != nil {
			t.Fatalf("VerifyPassword: %v", err)
		}
		if ok {
			t.Error("expected mismatch")
		}
	})

	t.Run("malformed hash is an error", func(t *testing.T) {
		_, err := VerifyPassword("hunter22", "not-a-bcrypt-hash")
		if err == nil {
			t.Error("expected error for malformed hash")
		}
	})

	t.Run("dummy hash is well-formed", func(t *testing.T) {
		// The timing-equalisation hash must parse, or the unknown-email path
		// would short-circuit and become distinguishable.
		if !strings.HasPrefix(dummyPasswordHash, "$2a$12$") {
			t.Fatalf("dummy hash prefix: %q", dummyPasswordHash)
		}
		ok, err := VerifyPassword("anything", dummyPasswordHash)
		if err != nil {
			t.Fatalf("VerifyPassword(dummy): %v", err)
		}
		if ok {
			t.Error("dummy hash must never match")
		}
	})
}

func TestCheckInput(t *testing.T) {
	t.Run("valid signup passes", func(t *testing.T) {
		errs := CheckInput(SignUpInput{Email: "a@b.com", Password: "longenough1"})
		if errs != nil {
			t.Errorf("expected nil, got %+v", errs)
		}
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		errs := CheckInput(SignUpInput{Email: "a@b.com", Password: "longenough1",
			FirstName: strings.Repeat("x", 101)})
		if len(errs) != 1 {
			t.Fatalf("expected one error, got %+v", errs)
		}
		if errs[0].Field != "firstName" {
			t.Errorf("field: expected firstName, got %q", errs[0].Field)
		}
	})

	t.Run("password bounds", func(t *testing.T) {
		if errs := CheckInput(SignUpInput{Email: "a@b.com", Password: "seven77"}); len(errs) == 0 {
			t.Error("expected error for 7-char password")
		}
		if errs := CheckInput(SignUpInput{Email: "a@b.com", Password: strings.Repeat("p", 129)}); len(errs) == 0 {
			t.Error("expected error for 129-char password")
		}
		if errs := CheckInput(SignUpInput{Email: "a@b.com", Password: strings.Repeat("p", 128)}); errs != nil {
			t.Errorf("128-char password should pass, got %+v", errs)
		}
	})

	t.Run("signin requires both fields", func(t *testing.T) {
		errs := CheckInput(SignInInput{})
		if len(errs) != 2 {
			t.Fatalf("expected two errors, got %+v", errs)
		}
	})
}
