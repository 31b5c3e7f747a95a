// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidemush/tidemush/internal/auth"
	"github.com/tidemush/tidemush/internal/world"
)

// memWorld is an in-memory store backing a Directory plus a real Factory,
// implementing auth.AccountRepository, world.ObjectRepository,
// world.CodeRepository, world.Transactor, and world.Engine.
type memWorld struct {
	accounts map[string]*auth.Account
	objects  map[ulid.ULID]*world.Object
	assets   int
	revs     map[ulid.ULID]*world.CodeRevision

	// txDepth tracks transaction nesting: CreateAccount opens one and the
	// two factory calls must join it, not open their own.
	txDepth    int
	maxTxDepth int
	rolledBack bool
}

func newMemWorld() *memWorld {
	return &memWorld{
		accounts: map[string]*auth.Account{},
		objects:  map[ulid.ULID]*world.Object{},
		revs:     map[ulid.ULID]*world.CodeRevision{},
	}
}

func (m *memWorld) Create(_ context.Context, account *auth.Account) error {
	if _, taken := m.accounts[account.Username]; taken {
		return &world.ValidationError{Field: "username", Message: "already taken"}
	}
	m.accounts[account.Username] = account
	return nil
}

func (m *memWorld) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	for _, a := range m.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, world.ErrNotFound
}

func (m *memWorld) GetByUsername(_ context.Context, username string) (*auth.Account, error) {
	a, ok := m.accounts[username]
	if !ok {
		return nil, world.ErrNotFound
	}
	return a, nil
}

func (m *memWorld) Update(_ context.Context, account *auth.Account) error {
	m.accounts[account.Username] = account
	return nil
}

func (m *memWorld) Get(_ context.Context, id ulid.ULID) (*world.Object, error) {
	obj, ok := m.objects[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	return obj, nil
}

func (m *memWorld) GetByShortName(_ context.Context, shortName string) (*world.Object, error) {
	for _, obj := range m.objects {
		if obj.ShortName == shortName {
			return obj, nil
		}
	}
	return nil, world.ErrNotFound
}

func (m *memWorld) CreateObject(obj *world.Object) { m.objects[obj.ID] = obj }

func (m *memWorld) GetPlayerObject(_ context.Context, accountID ulid.ULID) (*world.Object, error) {
	var found *world.Object
	for _, obj := range m.objects {
		if obj.OwnerID == accountID && obj.IsPlayer {
			if found != nil {
				return nil, &world.ConsistencyError{Entity: "object", Message: "account has multiple player objects"}
			}
			found = obj
		}
	}
	if found == nil {
		return nil, world.ErrNotFound
	}
	return found, nil
}

func (m *memWorld) GetSanctum(_ context.Context, accountID ulid.ULID) (*world.Object, error) {
	for _, obj := range m.objects {
		if obj.OwnerID == accountID && obj.IsSanctum {
			return obj, nil
		}
	}
	return nil, world.ErrNotFound
}

func (m *memWorld) ListOwnedBy(_ context.Context, accountID ulid.ULID) ([]*world.Object, error) {
	var owned []*world.Object
	for _, obj := range m.objects {
		if obj.OwnerID == accountID {
			owned = append(owned, obj)
		}
	}
	return owned, nil
}

func (m *memWorld) CreateAsset(_ context.Context, _ *world.CodeAsset) error {
	m.assets++
	return nil
}

func (m *memWorld) CreateRevision(_ context.Context, rev *world.CodeRevision) error {
	m.revs[rev.ID] = rev
	return nil
}

func (m *memWorld) GetRevision(_ context.Context, id ulid.ULID) (*world.CodeRevision, error) {
	rev, ok := m.revs[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	return rev, nil
}

func (m *memWorld) ListRevisions(_ context.Context, _ ulid.ULID) ([]*world.CodeRevision, error) {
	return nil, nil
}

func (m *memWorld) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txDepth++
	if m.txDepth > m.maxTxDepth {
		m.maxTxDepth = m.txDepth
	}
	err := fn(ctx)
	m.txDepth--
	if err != nil && m.txDepth == 0 {
		m.rolledBack = true
	}
	return err
}

func (m *memWorld) TemplateFor(kind string) (string, error) {
	switch kind {
	case "player", "room":
		return "-- {{.name}}: {{.description}}\nfunction init()\nend", nil
	}
	return "", world.ErrNotFound
}

func (m *memWorld) InitializeScripting(_ context.Context, _ *world.Object) error { return nil }

// objectCreator routes Factory creates into the memWorld object map with a
// short-name uniqueness check.
type objectCreator struct{ *memWorld }

func (c objectCreator) Create(_ context.Context, obj *world.Object) error {
	for _, existing := range c.objects {
		if existing.ShortName == obj.ShortName {
			return &world.ValidationError{Field: "shortname", Message: "already taken"}
		}
	}
	c.objects[obj.ID] = obj
	return nil
}

func (c objectCreator) Update(_ context.Context, obj *world.Object) error {
	c.objects[obj.ID] = obj
	return nil
}

func newDirectoryFixture() (*auth.Directory, *memWorld) {
	m := newMemWorld()
	objects := objectCreator{m}
	factory := world.NewFactory(objects, m, m, m)
	directory := auth.NewDirectory(m, objects, factory, auth.NewArgon2idHasher(), m)
	return directory, m
}

func TestDirectory_CreateAccount(t *testing.T) {
	ctx := context.Background()
	directory, m := newDirectoryFixture()

	account, err := directory.CreateAccount(ctx, "alice", "supersecretpw1")
	require.NoError(t, err)
	require.NotNil(t, account)

	// Credential is hashed, never the plaintext.
	assert.NotEqual(t, "supersecretpw1", account.PasswordHash)
	assert.NotEmpty(t, account.PasswordHash)

	// Exactly one avatar and one sanctum, both owned by alice.
	avatar, err := directory.PlayerObjectOf(ctx, account)
	require.NoError(t, err)
	require.NotNil(t, avatar)
	assert.True(t, avatar.IsPlayer)
	assert.Equal(t, "alice", avatar.ShortName)
	assert.Equal(t, account.ID, avatar.OwnerID)

	sanctum, err := m.GetSanctum(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, sanctum.IsSanctum)
	assert.False(t, sanctum.IsPlayer)
	assert.Equal(t, "alice-sanctum", sanctum.ShortName)

	owned, err := m.ListOwnedBy(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	// Each bootstrap object got its own code asset and revision.
	assert.Equal(t, 2, m.assets)
	assert.Len(t, m.revs, 2)

	// The factory calls joined the signup transaction instead of
	// committing on their own.
	assert.Equal(t, 2, m.maxTxDepth)
	assert.Equal(t, 0, m.txDepth)
}

func TestDirectory_CreateAccount_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	directory, m := newDirectoryFixture()

	_, err := directory.CreateAccount(ctx, "alice", "supersecretpw1")
	require.NoError(t, err)

	_, err = directory.CreateAccount(ctx, "alice", "anotherpassword")
	var verr *world.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, m.rolledBack, "failed signup rolls back")
}

func TestDirectory_CreateAccount_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"bad character colon", "ali:ce", "supersecretpw1"},
		{"bad character percent", "ali%ce", "supersecretpw1"},
		{"short password", "alice", "elevenchars"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directory, m := newDirectoryFixture()
			_, err := directory.CreateAccount(ctx, tt.username, tt.password)

			var verr *world.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, m.accounts, "nothing is committed on validation failure")
			assert.Empty(t, m.objects)
		})
	}
}

func TestDirectory_CheckPassword(t *testing.T) {
	ctx := context.Background()
	directory, _ := newDirectoryFixture()

	account, err := directory.CreateAccount(ctx, "alice", "supersecretpw1")
	require.NoError(t, err)

	assert.True(t, directory.CheckPassword(ctx, account, "supersecretpw1"))
	assert.False(t, directory.CheckPassword(ctx, account, "wrong"))
	assert.False(t, directory.CheckPassword(ctx, nil, "supersecretpw1"))
}

func TestDirectory_Authenticate(t *testing.T) {
	ctx := context.Background()
	directory, _ := newDirectoryFixture()

	_, err := directory.CreateAccount(ctx, "alice", "supersecretpw1")
	require.NoError(t, err)

	account, err := directory.Authenticate(ctx, "alice", "supersecretpw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)

	_, wrongPass := directory.Authenticate(ctx, "alice", "wrong")
	_, unknownUser := directory.Authenticate(ctx, "mallory", "supersecretpw1")
	require.Error(t, wrongPass)
	require.Error(t, unknownUser)
	// Unknown user and bad password are indistinguishable to the caller.
	assert.Equal(t, wrongPass.Error(), unknownUser.Error())
}

func TestDirectory_PlayerObjectOf(t *testing.T) {
	ctx := context.Background()
	directory, m := newDirectoryFixture()

	// Absent avatar is nil, not an error.
	ghost := &auth.Account{ID: ulid.Make(), Username: "ghost"}
	obj, err := directory.PlayerObjectOf(ctx, ghost)
	require.NoError(t, err)
	assert.Nil(t, obj)

	// Two avatars is a consistency bug and must raise.
	accountID := ulid.Make()
	for _, name := range []string{"dupe-one", "dupe-two"} {
		m.CreateObject(&world.Object{
			ID: ulid.Make(), ShortName: name, OwnerID: accountID,
			OwnerUsername: "dupe", IsPlayer: true,
		})
	}
	dupe := &auth.Account{ID: accountID, Username: "dupe"}
	_, err = directory.PlayerObjectOf(ctx, dupe)
	var cerr *world.ConsistencyError
	require.ErrorAs(t, err, &cerr)
}
