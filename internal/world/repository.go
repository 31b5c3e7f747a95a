// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// ObjectRepository manages object persistence. Every object row is written
// together with its access-control row; an object without one is a
// consistency violation, never a valid intermediate state.
type ObjectRepository interface {
	// Get retrieves an object by ID, hydrating owner username and access.
	// Returns a ConsistencyError if the access record is missing.
	Get(ctx context.Context, id ulid.ULID) (*Object, error)

	// GetByShortName retrieves an object by its unique short name.
	GetByShortName(ctx context.Context, shortName string) (*Object, error)

	// Create persists a new object and its access record in one operation.
	// A short-name collision surfaces as a ValidationError.
	Create(ctx context.Context, obj *Object) error

	// Update modifies an existing object's mutable fields (data bag, access,
	// revision binding).
	Update(ctx context.Context, obj *Object) error

	// GetPlayerObject returns the account's player avatar. Returns
	// ErrNotFound when the account has none and a ConsistencyError when it
	// has more than one.
	GetPlayerObject(ctx context.Context, accountID ulid.ULID) (*Object, error)

	// GetSanctum returns the account's sanctum room, ErrNotFound if absent.
	GetSanctum(ctx context.Context, accountID ulid.ULID) (*Object, error)

	// ListOwnedBy returns all objects owned by an account.
	ListOwnedBy(ctx context.Context, accountID ulid.ULID) ([]*Object, error)
}

// ContainsRepository manages the containment edge table. The edge rows are
// owned here, not by either endpoint object.
type ContainsRepository interface {
	// PlaceInto atomically re-parents inner under outer: any existing inbound
	// edge for inner is removed and the new edge inserted in one transaction,
	// so concurrent readers never observe zero or two parents. Returns a
	// ConsistencyError if the edge would make an object its own ancestor.
	PlaceInto(ctx context.Context, outerID, innerID ulid.ULID) error

	// RemoveFrom deletes the (outer, inner) edge. Absence is a no-op.
	RemoveFrom(ctx context.Context, outerID, innerID ulid.ULID) error

	// ChildrenOf returns the objects directly contained by the given object.
	// Each call queries a fresh snapshot; order is not part of the contract.
	ChildrenOf(ctx context.Context, id ulid.ULID) ([]*Object, error)

	// ParentOf returns the object containing the given object, or nil when it
	// has no container. More than one inbound edge is a ConsistencyError.
	ParentOf(ctx context.Context, id ulid.ULID) (*Object, error)
}

// CodeRepository manages code assets and their append-only revisions.
type CodeRepository interface {
	// CreateAsset persists a new code asset.
	CreateAsset(ctx context.Context, asset *CodeAsset) error

	// CreateRevision appends a revision to an asset.
	CreateRevision(ctx context.Context, rev *CodeRevision) error

	// GetRevision retrieves a revision by ID.
	GetRevision(ctx context.Context, id ulid.ULID) (*CodeRevision, error)

	// ListRevisions returns an asset's revisions, oldest first.
	ListRevisions(ctx context.Context, assetID ulid.ULID) ([]*CodeRevision, error)
}

// Transactor runs a function inside a storage transaction. Implementations
// must join an ambient transaction already present in the context, so that
// multi-service sequences (account signup creating avatar and sanctum)
// commit or roll back as one unit.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Engine is the scripting-engine collaborator. The core calls it; it is
// implemented elsewhere (see internal/script for the reference engine).
type Engine interface {
	// TemplateFor returns the code template for a creation kind ("player",
	// "room", "item"). Unknown kinds return ErrNotFound.
	TemplateFor(kind string) (string, error)

	// InitializeScripting runs the object's scripting-initialization hook.
	// Called exactly once per object, after all of its rows are written and
	// before the creating transaction commits. The object value passed in is
	// fully populated; the engine must not re-read it from the store.
	InitializeScripting(ctx context.Context, obj *Object) error
}
