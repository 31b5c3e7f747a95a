// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world_test

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"

	"github.com/tidemush/tidemush/internal/world"
)

// memStore is an in-memory stand-in for the persistence layer, implementing
// the repository interfaces with the same semantics the Postgres
// implementations guarantee (single parent, cycle rejection, short-name
// uniqueness).
type memStore struct {
	objects   map[ulid.ULID]*world.Object
	parents   map[ulid.ULID]ulid.ULID // inner -> outer
	assets    map[ulid.ULID]*world.CodeAsset
	revisions map[ulid.ULID]*world.CodeRevision
}

func newMemStore() *memStore {
	return &memStore{
		objects:   map[ulid.ULID]*world.Object{},
		parents:   map[ulid.ULID]ulid.ULID{},
		assets:    map[ulid.ULID]*world.CodeAsset{},
		revisions: map[ulid.ULID]*world.CodeRevision{},
	}
}

func (s *memStore) add(obj *world.Object) *world.Object {
	s.objects[obj.ID] = obj
	return obj
}

// --- world.ObjectRepository ---

func (s *memStore) Get(_ context.Context, id ulid.ULID) (*world.Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	return obj, nil
}

func (s *memStore) GetByShortName(_ context.Context, shortName string) (*world.Object, error) {
	for _, obj := range s.objects {
		if obj.ShortName == shortName {
			return obj, nil
		}
	}
	return nil, world.ErrNotFound
}

func (s *memStore) Create(_ context.Context, obj *world.Object) error {
	for _, existing := range s.objects {
		if existing.ShortName == obj.ShortName {
			return &world.ValidationError{Field: "shortname", Message: "already taken"}
		}
	}
	s.objects[obj.ID] = obj
	return nil
}

func (s *memStore) Update(_ context.Context, obj *world.Object) error {
	if _, ok := s.objects[obj.ID]; !ok {
		return world.ErrNotFound
	}
	s.objects[obj.ID] = obj
	return nil
}

func (s *memStore) GetPlayerObject(_ context.Context, accountID ulid.ULID) (*world.Object, error) {
	var found *world.Object
	for _, obj := range s.objects {
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

func (s *memStore) GetSanctum(_ context.Context, accountID ulid.ULID) (*world.Object, error) {
	for _, obj := range s.objects {
		if obj.OwnerID == accountID && obj.IsSanctum {
			return obj, nil
		}
	}
	return nil, world.ErrNotFound
}

func (s *memStore) ListOwnedBy(_ context.Context, accountID ulid.ULID) ([]*world.Object, error) {
	var owned []*world.Object
	for _, obj := range s.objects {
		if obj.OwnerID == accountID {
			owned = append(owned, obj)
		}
	}
	return owned, nil
}

// --- world.ContainsRepository ---

func (s *memStore) PlaceInto(_ context.Context, outerID, innerID ulid.ULID) error {
	// Reject cycles: outer must not be inner or any descendant of inner.
	for cursor := outerID; ; {
		if cursor == innerID {
			return &world.ConsistencyError{Entity: "contains", Message: "object would become its own ancestor"}
		}
		parent, ok := s.parents[cursor]
		if !ok {
			break
		}
		cursor = parent
	}
	s.parents[innerID] = outerID
	return nil
}

func (s *memStore) RemoveFrom(_ context.Context, outerID, innerID ulid.ULID) error {
	if s.parents[innerID] == outerID {
		delete(s.parents, innerID)
	}
	return nil
}

func (s *memStore) ChildrenOf(_ context.Context, id ulid.ULID) ([]*world.Object, error) {
	var children []*world.Object
	for innerID, outerID := range s.parents {
		if outerID == id {
			children = append(children, s.objects[innerID])
		}
	}
	return children, nil
}

func (s *memStore) ParentOf(_ context.Context, id ulid.ULID) (*world.Object, error) {
	outerID, ok := s.parents[id]
	if !ok {
		return nil, nil
	}
	return s.objects[outerID], nil
}

// --- world.CodeRepository ---

func (s *memStore) CreateAsset(_ context.Context, asset *world.CodeAsset) error {
	s.assets[asset.ID] = asset
	return nil
}

func (s *memStore) CreateRevision(_ context.Context, rev *world.CodeRevision) error {
	s.revisions[rev.ID] = rev
	return nil
}

func (s *memStore) GetRevision(_ context.Context, id ulid.ULID) (*world.CodeRevision, error) {
	rev, ok := s.revisions[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	return rev, nil
}

func (s *memStore) ListRevisions(_ context.Context, assetID ulid.ULID) ([]*world.CodeRevision, error) {
	var revs []*world.CodeRevision
	for _, rev := range s.revisions {
		if rev.AssetID == assetID {
			revs = append(revs, rev)
		}
	}
	return revs, nil
}

// fakeTransactor records whether the wrapped function failed, standing in for
// a rollback.
type fakeTransactor struct {
	calls      int
	rolledBack bool
}

func (t *fakeTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if err := fn(ctx); err != nil {
		t.rolledBack = true
		return err
	}
	return nil
}

// fakeEngine serves canned templates and records init-hook invocations.
type fakeEngine struct {
	templates   map[string]string
	initialized []*world.Object
	initErr     error
}

func (e *fakeEngine) TemplateFor(kind string) (string, error) {
	tmpl, ok := e.templates[kind]
	if !ok {
		return "", world.ErrNotFound
	}
	return tmpl, nil
}

func (e *fakeEngine) InitializeScripting(_ context.Context, obj *world.Object) error {
	if e.initErr != nil {
		return e.initErr
	}
	e.initialized = append(e.initialized, obj)
	return nil
}

var errInitBoom = errors.New("init hook failed")
