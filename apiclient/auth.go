// auth.go -- typed wrappers over the auth endpoints.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignUpRequest is the payload for SignUp. Email and Password are required;
// the name fields are optional.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// SignUp registers a new account and returns it. A *Error with code
// DUPLICATE_EMAIL signals the address is taken; VALIDATION_ERROR carries
// field-level details.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*User, error) {
	data, err := c.Post(ctx, "/api/v1/auth/signup", req)
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

// SignIn verifies credentials and returns the account. Every credential
// failure is a *Error with code INVALID_CREDENTIALS and status 401.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := c.Post(ctx, "/api/v1/auth/signin", body)
	if err != nil {
		return nil, err
	}
	return decodeUser(data)
}

func decodeUser(data json.RawMessage) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &u, nil
}
