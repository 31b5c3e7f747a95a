// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tidemush/tidemush/internal/world"
)

// Credential policy. The password minimum applies to the plaintext before
// hashing; the stored value is always a salted hash.
const (
	MinPasswordLength = 12
	MaxUsernameLength = 40
)

// badUsernameChars are rejected anywhere in a username.
const badUsernameChars = `:'";%`

// Account is a human player's login identity. It is not itself an entity in
// the game world; it is anchored there through its single player avatar.
type Account struct {
	ID           ulid.ULID
	Username     string
	PasswordHash string
	Elevated     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Owner returns the account as a world-object owner.
func (a *Account) Owner() world.Owner {
	return world.Owner{ID: a.ID, Username: a.Username}
}

// ValidateUsername checks a username against the allowed-character policy.
// Uniqueness is the store's job, not this function's.
func ValidateUsername(username string) error {
	if username == "" {
		return &world.ValidationError{Field: "username", Message: "cannot be empty"}
	}
	if len(username) > MaxUsernameLength {
		return &world.ValidationError{Field: "username", Message: fmt.Sprintf("exceeds maximum length of %d", MaxUsernameLength)}
	}
	if i := strings.IndexAny(username, badUsernameChars); i >= 0 {
		return &world.ValidationError{Field: "username", Message: fmt.Sprintf("contains disallowed character %q", username[i])}
	}
	return nil
}

// ValidatePassword checks the plaintext password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &world.ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account. A username collision surfaces as a
	// ValidationError; the store's uniqueness constraint is authoritative, so
	// concurrent signups with one username cannot both succeed.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Update updates an existing account.
	Update(ctx context.Context, account *Account) error
}
