// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tidemush/tidemush/internal/world"
)

// dummyPasswordHash is verified against when an account doesn't exist, so
// lookup timing stays flat and usernames can't be enumerated. It can never
// match a real password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Directory is the account directory: signup, credential checks, and the
// account-to-avatar bridge. Stateless; safe for concurrent use.
type Directory struct {
	accounts   AccountRepository
	objects    world.ObjectRepository
	factory    *world.Factory
	hasher     PasswordHasher
	transactor world.Transactor
}

// NewDirectory creates a Directory.
func NewDirectory(accounts AccountRepository, objects world.ObjectRepository, factory *world.Factory, hasher PasswordHasher, transactor world.Transactor) *Directory {
	return &Directory{
		accounts:   accounts,
		objects:    objects,
		factory:    factory,
		hasher:     hasher,
		transactor: transactor,
	}
}

// CreateAccount signs up a new player. Within a single transaction it
// persists the account and creates its two bootstrap objects through the
// factory: the player avatar and the sanctum room. If any step fails,
// nothing is committed.
//
// The avatar is not placed inside the sanctum; linking them is left to the
// session layer.
func (d *Directory) CreateAccount(ctx context.Context, username, password string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	now := time.Now().UTC()
	account := &Account{
		ID:           ulid.Make(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = d.transactor.InTransaction(ctx, func(ctx context.Context) error {
		if err := d.accounts.Create(ctx, account); err != nil {
			return err
		}

		if _, err := d.factory.CreateScriptedObject(ctx, world.CreateParams{
			Kind:      "player",
			Owner:     account.Owner(),
			ShortName: username,
			Substitutions: map[string]string{
				"name":        username,
				"description": "a gaseous cloud",
			},
			PlayerAvatar: true,
		}); err != nil {
			return err
		}

		if _, err := d.factory.CreateScriptedObject(ctx, world.CreateParams{
			Kind:      "room",
			Owner:     account.Owner(),
			ShortName: username + "-sanctum",
			Substitutions: map[string]string{
				"name":        fmt.Sprintf("%s's sanctum", username),
				"description": "a quiet private room",
			},
			Sanctum: true,
		}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("account created", "username", username, "account_id", account.ID.String())
	return account, nil
}

// CheckPassword verifies a plaintext password against the account's stored
// hash. The plaintext is never compared to anything but the hash. A nil
// account still performs a verification (against a dummy hash) so callers
// get flat timing whether or not the account exists.
func (d *Directory) CheckPassword(_ context.Context, account *Account, password string) bool {
	targetHash := dummyPasswordHash
	if account != nil {
		targetHash = account.PasswordHash
	}
	valid, err := d.hasher.Verify(password, targetHash)
	if err != nil {
		return false
	}
	return valid && account != nil
}

// Authenticate looks up the account and checks the password in one call.
// Whether the username is unknown or the password wrong, the caller sees the
// same failure.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	account, err := d.accounts.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, world.ErrNotFound) {
		return nil, oops.Code("AUTH_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	if !d.CheckPassword(ctx, account, password) {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")
	}
	return account, nil
}

// PlayerObjectOf returns the account's player avatar, or nil when it has
// none. More than one avatar is a consistency violation and is surfaced,
// never silently reduced to one.
func (d *Directory) PlayerObjectOf(ctx context.Context, account *Account) (*world.Object, error) {
	obj, err := d.objects.GetPlayerObject(ctx, account.ID)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("AUTH_PLAYER_LOOKUP_FAILED").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	return obj, nil
}
