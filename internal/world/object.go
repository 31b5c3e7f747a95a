// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

// Package world defines the persistent world-state model: objects, their
// containment graph, access control, versioned behavior code, and the
// services that mutate them.
package world

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// NoRevision is the identity sentinel for objects without behavior code.
const NoRevision = "no-revision"

// Key is the value identity of an object: owning-account username, short
// name, and current code revision. Two loads of the same logical object
// produce equal Keys, so audience sets and containment queries can be keyed
// by Key across repeated loads.
type Key struct {
	OwnerUsername string
	ShortName     string
	RevisionID    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s@%s", k.OwnerUsername, k.ShortName, k.RevisionID)
}

// Object is a node in the world graph: a room, an item, or a player avatar.
type Object struct {
	ID            ulid.ULID
	ShortName     string
	OwnerID       ulid.ULID
	OwnerUsername string
	RevisionID    *ulid.ULID
	IsPlayer      bool
	IsSanctum     bool
	Data          DataBag
	Access        Access
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the object's value identity.
func (o *Object) Key() Key {
	rev := NoRevision
	if o.RevisionID != nil {
		rev = o.RevisionID.String()
	}
	return Key{
		OwnerUsername: o.OwnerUsername,
		ShortName:     o.ShortName,
		RevisionID:    rev,
	}
}

// Equal reports whether two objects are the same logical object, regardless
// of which load produced them.
func (o *Object) Equal(other *Object) bool {
	if other == nil {
		return false
	}
	return o.Key() == other.Key()
}

// Validate checks that the object has required fields.
func (o *Object) Validate() error {
	if o.ID.IsZero() {
		return &ValidationError{Field: "id", Message: "cannot be zero"}
	}
	if o.OwnerID.IsZero() {
		return &ValidationError{Field: "owner_id", Message: "cannot be zero"}
	}
	return ValidateShortName(o.ShortName)
}

// DataBag is the object's key-value data. Values are restricted to a closed
// set of kinds: string, float64, and bool. It round-trips through JSONB.
type DataBag map[string]any

// SetData stores a value under key. Only string, float64, int, and bool
// values are accepted; ints are widened to float64 so the bag has a single
// numeric kind after a JSON round trip.
func (b DataBag) SetData(key string, value any) error {
	if key == "" {
		return &ValidationError{Field: "data", Message: "key cannot be empty"}
	}
	switch v := value.(type) {
	case string, float64, bool:
		b[key] = v
	case int:
		b[key] = float64(v)
	default:
		return &ValidationError{Field: "data", Message: fmt.Sprintf("unsupported value kind %T for key %q", value, key)}
	}
	return nil
}

// GetString returns the string stored under key, or def when the key is
// absent or holds a different kind.
func (b DataBag) GetString(key, def string) string {
	if v, ok := b[key].(string); ok {
		return v
	}
	return def
}

// GetNumber returns the number stored under key, or def.
func (b DataBag) GetNumber(key string, def float64) float64 {
	if v, ok := b[key].(float64); ok {
		return v
	}
	return def
}

// GetBool returns the boolean stored under key, or def.
func (b DataBag) GetBool(key string, def bool) bool {
	if v, ok := b[key].(bool); ok {
		return v
	}
	return def
}
