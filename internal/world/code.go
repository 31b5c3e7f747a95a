// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// CodeAsset is the named, account-owned container for an object's behavior
// code. Individual versions live in CodeRevision rows.
type CodeAsset struct {
	ID        ulid.ULID
	OwnerID   ulid.ULID
	Name      string
	CreatedAt time.Time
}

// NewCodeAsset creates a code asset with a generated ID.
func NewCodeAsset(ownerID ulid.ULID, name string) (*CodeAsset, error) {
	if ownerID.IsZero() {
		return nil, &ValidationError{Field: "owner_id", Message: "cannot be zero"}
	}
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	return &CodeAsset{
		ID:        ulid.Make(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// CodeRevision is one immutable version of an asset's code. Revisions are
// append-only: there is no update or delete path anywhere in the repository.
type CodeRevision struct {
	ID        ulid.ULID
	AssetID   ulid.ULID
	Code      string
	CreatedAt time.Time
}

// NewCodeRevision creates a revision for the given asset. The code text is
// trimmed of leading and trailing whitespace before it is stored.
func NewCodeRevision(assetID ulid.ULID, code string) (*CodeRevision, error) {
	if assetID.IsZero() {
		return nil, &ValidationError{Field: "asset_id", Message: "cannot be zero"}
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, &ValidationError{Field: "code", Message: "cannot be empty"}
	}
	return &CodeRevision{
		ID:        ulid.Make(),
		AssetID:   assetID,
		Code:      trimmed,
		CreatedAt: time.Now().UTC(),
	}, nil
}
