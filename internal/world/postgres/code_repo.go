// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
)

// CodeRepository implements world.CodeRepository using PostgreSQL.
// Revisions are append-only; there is deliberately no update or delete
// statement in this file.
type CodeRepository struct {
	pool store.Pool
}

// NewCodeRepository creates a CodeRepository.
func NewCodeRepository(pool store.Pool) *CodeRepository {
	return &CodeRepository{pool: pool}
}

// CreateAsset persists a new code asset.
func (r *CodeRepository) CreateAsset(ctx context.Context, asset *world.CodeAsset) error {
	q := store.QuerierFrom(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO code_assets (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		asset.ID.String(),
		asset.OwnerID.String(),
		asset.Name,
		asset.CreatedAt,
	)
	if err != nil {
		return oops.Code("CODE_ASSET_CREATE_FAILED").
			With("operation", "insert code asset").
			With("name", asset.Name).
			Wrap(err)
	}
	return nil
}

// CreateRevision appends a revision to an asset.
func (r *CodeRepository) CreateRevision(ctx context.Context, rev *world.CodeRevision) error {
	q := store.QuerierFrom(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO code_revisions (id, asset_id, code, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		rev.ID.String(),
		rev.AssetID.String(),
		rev.Code,
		rev.CreatedAt,
	)
	if err != nil {
		return oops.Code("CODE_REVISION_CREATE_FAILED").
			With("operation", "insert code revision").
			With("asset_id", rev.AssetID.String()).
			Wrap(err)
	}
	return nil
}

// GetRevision retrieves a revision by ID.
func (r *CodeRepository) GetRevision(ctx context.Context, id ulid.ULID) (*world.CodeRevision, error) {
	q := store.QuerierFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT id, asset_id, code, created_at
		FROM code_revisions
		WHERE id = $1
	`, id.String())

	rev, err := scanRevision(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("CODE_REVISION_GET_FAILED").
			With("operation", "get code revision").
			With("id", id.String()).
			Wrap(err)
	}
	return rev, nil
}

// ListRevisions returns an asset's revisions, oldest first. ULIDs sort
// lexicographically in creation order, so ordering by id is ordering by
// time.
func (r *CodeRepository) ListRevisions(ctx context.Context, assetID ulid.ULID) ([]*world.CodeRevision, error) {
	q := store.QuerierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT id, asset_id, code, created_at
		FROM code_revisions
		WHERE asset_id = $1
		ORDER BY id
	`, assetID.String())
	if err != nil {
		return nil, oops.Code("CODE_REVISION_LIST_FAILED").
			With("operation", "list code revisions").
			With("asset_id", assetID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var revs []*world.CodeRevision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, oops.Code("CODE_REVISION_LIST_FAILED").
				With("operation", "scan code revision").
				With("asset_id", assetID.String()).
				Wrap(err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CODE_REVISION_LIST_FAILED").
			With("operation", "iterate code revisions").
			With("asset_id", assetID.String()).
			Wrap(err)
	}
	return revs, nil
}

// scanRevision scans a single row into a CodeRevision. Callers handle
// pgx.ErrNoRows.
func scanRevision(row pgx.Row) (*world.CodeRevision, error) {
	var (
		idStr      string
		assetIDStr string
		code       string
		createdAt  time.Time
	)

	if err := row.Scan(&idStr, &assetIDStr, &code, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("CODE_REVISION_SCAN_FAILED").
			With("operation", "scan code revision").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("CODE_REVISION_INVALID_ID").
			With("operation", "parse revision id").
			With("id", idStr).
			Wrap(err)
	}
	assetID, err := ulid.Parse(assetIDStr)
	if err != nil {
		return nil, oops.Code("CODE_REVISION_INVALID_ASSET_ID").
			With("operation", "parse asset id").
			With("asset_id", assetIDStr).
			Wrap(err)
	}

	return &world.CodeRevision{
		ID:        id,
		AssetID:   assetID,
		Code:      code,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ world.CodeRepository = (*CodeRepository)(nil)
