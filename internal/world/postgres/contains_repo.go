// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package postgres

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
)

// ContainsRepository implements world.ContainsRepository using PostgreSQL.
// The UNIQUE constraint on contains.inner_id enforces the single-parent
// invariant at the store level.
type ContainsRepository struct {
	pool store.Pool
	tx   *store.Transactor
}

// NewContainsRepository creates a ContainsRepository.
func NewContainsRepository(pool store.Pool) *ContainsRepository {
	return &ContainsRepository{pool: pool, tx: store.NewTransactor(pool)}
}

// PlaceInto re-parents inner under outer. The cycle check, removal of any
// existing inbound edge, and the insert run in one transaction, so readers
// never observe an object with zero or two parents mid-move.
func (r *ContainsRepository) PlaceInto(ctx context.Context, outerID, innerID ulid.ULID) error {
	if outerID == innerID {
		return &world.ConsistencyError{
			Entity:  "contains",
			Message: "object cannot contain itself",
		}
	}

	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := store.QuerierFrom(ctx, r.pool)

		// Walk up from outer: if inner is already an ancestor of outer, the
		// new edge would close a loop.
		var cycles bool
		err := q.QueryRow(ctx, `
			WITH RECURSIVE ancestors AS (
				SELECT outer_id FROM contains WHERE inner_id = $1
				UNION ALL
				SELECT c.outer_id FROM contains c
				JOIN ancestors p ON c.inner_id = p.outer_id
			)
			SELECT EXISTS (SELECT 1 FROM ancestors WHERE outer_id = $2)
		`, outerID.String(), innerID.String()).Scan(&cycles)
		if err != nil {
			return oops.Code("CONTAINS_CYCLE_CHECK_FAILED").
				With("operation", "check containment cycle").
				With("outer_id", outerID.String()).
				With("inner_id", innerID.String()).
				Wrap(err)
		}
		if cycles {
			return &world.ConsistencyError{
				Entity:  "contains",
				Message: "placement would make an object its own ancestor",
			}
		}

		if _, err := q.Exec(ctx, `
			DELETE FROM contains WHERE inner_id = $1
		`, innerID.String()); err != nil {
			return oops.Code("CONTAINS_PLACE_FAILED").
				With("operation", "remove existing edge").
				With("inner_id", innerID.String()).
				Wrap(err)
		}

		if _, err := q.Exec(ctx, `
			INSERT INTO contains (outer_id, inner_id) VALUES ($1, $2)
		`, outerID.String(), innerID.String()); err != nil {
			return oops.Code("CONTAINS_PLACE_FAILED").
				With("operation", "insert edge").
				With("outer_id", outerID.String()).
				With("inner_id", innerID.String()).
				Wrap(err)
		}
		return nil
	})
}

// RemoveFrom deletes the (outer, inner) edge. A missing edge is a no-op.
func (r *ContainsRepository) RemoveFrom(ctx context.Context, outerID, innerID ulid.ULID) error {
	q := store.QuerierFrom(ctx, r.pool)
	if _, err := q.Exec(ctx, `
		DELETE FROM contains WHERE outer_id = $1 AND inner_id = $2
	`, outerID.String(), innerID.String()); err != nil {
		return oops.Code("CONTAINS_REMOVE_FAILED").
			With("operation", "delete edge").
			With("outer_id", outerID.String()).
			With("inner_id", innerID.String()).
			Wrap(err)
	}
	return nil
}

// ChildrenOf returns the objects directly contained by the given object.
// Every call hits a fresh snapshot; nothing is cached between calls.
func (r *ContainsRepository) ChildrenOf(ctx context.Context, id ulid.ULID) ([]*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT`+objectColumns+`
		FROM contains c
		JOIN objects o ON o.id = c.inner_id
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE c.outer_id = $1
	`, id.String())
	if err != nil {
		return nil, oops.Code("CONTAINS_CHILDREN_FAILED").
			With("operation", "query children").
			With("outer_id", id.String()).
			Wrap(err)
	}
	defer rows.Close()

	var children []*world.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, oops.Code("CONTAINS_CHILDREN_FAILED").
				With("operation", "scan child").
				With("outer_id", id.String()).
				Wrap(err)
		}
		children = append(children, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONTAINS_CHILDREN_FAILED").
			With("operation", "iterate children").
			With("outer_id", id.String()).
			Wrap(err)
	}
	return children, nil
}

// ParentOf returns the object containing the given object, or nil when it
// has none. Multiple inbound edges mean the store invariant was bypassed;
// that is surfaced, not resolved silently.
func (r *ContainsRepository) ParentOf(ctx context.Context, id ulid.ULID) (*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT`+objectColumns+`
		FROM contains c
		JOIN objects o ON o.id = c.outer_id
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE c.inner_id = $1
	`, id.String())
	if err != nil {
		return nil, oops.Code("CONTAINS_PARENT_FAILED").
			With("operation", "query parent").
			With("inner_id", id.String()).
			Wrap(err)
	}
	defer rows.Close()

	var parents []*world.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, oops.Code("CONTAINS_PARENT_FAILED").
				With("operation", "scan parent").
				With("inner_id", id.String()).
				Wrap(err)
		}
		parents = append(parents, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CONTAINS_PARENT_FAILED").
			With("operation", "iterate parents").
			With("inner_id", id.String()).
			Wrap(err)
	}

	switch len(parents) {
	case 0:
		return nil, nil
	case 1:
		return parents[0], nil
	default:
		return nil, &world.ConsistencyError{
			Entity:  "contains",
			Message: "object has multiple containers",
		}
	}
}

// Compile-time interface check.
var _ world.ContainsRepository = (*ContainsRepository)(nil)
