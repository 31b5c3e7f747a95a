// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

// Package postgres implements world repositories using PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
)

// objectColumns is the shared select list for hydrating an Object with its
// owner username and access record.
const objectColumns = `
	o.id, o.shortname, o.owner_id, a.username, o.revision_id,
	o.is_player, o.is_sanctum, o.data,
	acl.read_level, acl.write_level, acl.carry_level, acl.execute_level,
	o.created_at, o.updated_at`

// ObjectRepository implements world.ObjectRepository using PostgreSQL.
type ObjectRepository struct {
	pool store.Pool
	tx   *store.Transactor
}

// NewObjectRepository creates an ObjectRepository.
func NewObjectRepository(pool store.Pool) *ObjectRepository {
	return &ObjectRepository{pool: pool, tx: store.NewTransactor(pool)}
}

// Create persists the object and its access record in one transaction. When
// the context already carries a transaction (object creation inside account
// signup), both inserts join it.
func (r *ObjectRepository) Create(ctx context.Context, obj *world.Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	if err := obj.Access.Validate(); err != nil {
		return err
	}

	dataJSON, err := json.Marshal(obj.Data)
	if err != nil {
		return oops.Code("OBJECT_CREATE_FAILED").
			With("operation", "marshal data").
			Wrap(err)
	}

	var revisionID *string
	if obj.RevisionID != nil {
		s := obj.RevisionID.String()
		revisionID = &s
	}

	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := store.QuerierFrom(ctx, r.pool)

		_, err := q.Exec(ctx, `
			INSERT INTO objects (
				id, shortname, owner_id, revision_id,
				is_player, is_sanctum, data, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			obj.ID.String(),
			obj.ShortName,
			obj.OwnerID.String(),
			revisionID,
			obj.IsPlayer,
			obj.IsSanctum,
			dataJSON,
			obj.CreatedAt,
			obj.UpdatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return &world.ValidationError{Field: "shortname", Message: "already taken"}
			}
			return oops.Code("OBJECT_CREATE_FAILED").
				With("operation", "insert object").
				With("shortname", obj.ShortName).
				Wrap(err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO object_acl (object_id, read_level, write_level, carry_level, execute_level)
			VALUES ($1, $2, $3, $4, $5)
		`,
			obj.ID.String(),
			string(obj.Access.Read),
			string(obj.Access.Write),
			string(obj.Access.Carry),
			string(obj.Access.Execute),
		)
		if err != nil {
			return oops.Code("OBJECT_CREATE_FAILED").
				With("operation", "insert object acl").
				With("object_id", obj.ID.String()).
				Wrap(err)
		}
		return nil
	})
}

// Get retrieves an object by ID.
func (r *ObjectRepository) Get(ctx context.Context, id ulid.ULID) (*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT`+objectColumns+`
		FROM objects o
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE o.id = $1
	`, id.String())

	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("OBJECT_GET_FAILED").
			With("operation", "get object by id").
			With("id", id.String()).
			Wrap(err)
	}
	return obj, nil
}

// GetByShortName retrieves an object by its unique short name.
func (r *ObjectRepository) GetByShortName(ctx context.Context, shortName string) (*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT`+objectColumns+`
		FROM objects o
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE o.shortname = $1
	`, shortName)

	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("OBJECT_GET_BY_SHORTNAME_FAILED").
			With("operation", "get object by shortname").
			With("shortname", shortName).
			Wrap(err)
	}
	return obj, nil
}

// Update modifies an object's mutable fields and its access record.
func (r *ObjectRepository) Update(ctx context.Context, obj *world.Object) error {
	if err := obj.Access.Validate(); err != nil {
		return err
	}

	dataJSON, err := json.Marshal(obj.Data)
	if err != nil {
		return oops.Code("OBJECT_UPDATE_FAILED").
			With("operation", "marshal data").
			Wrap(err)
	}

	var revisionID *string
	if obj.RevisionID != nil {
		s := obj.RevisionID.String()
		revisionID = &s
	}

	return r.tx.InTransaction(ctx, func(ctx context.Context) error {
		q := store.QuerierFrom(ctx, r.pool)

		result, err := q.Exec(ctx, `
			UPDATE objects SET
				revision_id = $2,
				data = $3,
				updated_at = $4
			WHERE id = $1
		`,
			obj.ID.String(),
			revisionID,
			dataJSON,
			obj.UpdatedAt,
		)
		if err != nil {
			return oops.Code("OBJECT_UPDATE_FAILED").
				With("operation", "update object").
				With("id", obj.ID.String()).
				Wrap(err)
		}
		if result.RowsAffected() == 0 {
			return world.ErrNotFound
		}

		_, err = q.Exec(ctx, `
			UPDATE object_acl SET
				read_level = $2,
				write_level = $3,
				carry_level = $4,
				execute_level = $5
			WHERE object_id = $1
		`,
			obj.ID.String(),
			string(obj.Access.Read),
			string(obj.Access.Write),
			string(obj.Access.Carry),
			string(obj.Access.Execute),
		)
		if err != nil {
			return oops.Code("OBJECT_UPDATE_FAILED").
				With("operation", "update object acl").
				With("id", obj.ID.String()).
				Wrap(err)
		}
		return nil
	})
}

// GetPlayerObject returns the account's player avatar. No avatar is
// ErrNotFound; more than one is a consistency violation and is surfaced,
// never reduced to an arbitrary winner.
func (r *ObjectRepository) GetPlayerObject(ctx context.Context, accountID ulid.ULID) (*world.Object, error) {
	objs, err := r.queryObjects(ctx, `
		SELECT`+objectColumns+`
		FROM objects o
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE o.owner_id = $1 AND o.is_player
	`, accountID.String())
	if err != nil {
		return nil, oops.Code("OBJECT_GET_PLAYER_FAILED").
			With("operation", "get player object").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	switch len(objs) {
	case 0:
		return nil, world.ErrNotFound
	case 1:
		return objs[0], nil
	default:
		return nil, &world.ConsistencyError{
			Entity:  "object",
			Message: "account has multiple player objects",
		}
	}
}

// GetSanctum returns the account's sanctum room.
func (r *ObjectRepository) GetSanctum(ctx context.Context, accountID ulid.ULID) (*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		SELECT`+objectColumns+`
		FROM objects o
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE o.owner_id = $1 AND o.is_sanctum
	`, accountID.String())

	obj, err := scanObject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, world.ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("OBJECT_GET_SANCTUM_FAILED").
			With("operation", "get sanctum").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return obj, nil
}

// ListOwnedBy returns all objects owned by an account.
func (r *ObjectRepository) ListOwnedBy(ctx context.Context, accountID ulid.ULID) ([]*world.Object, error) {
	objs, err := r.queryObjects(ctx, `
		SELECT`+objectColumns+`
		FROM objects o
		JOIN accounts a ON a.id = o.owner_id
		LEFT JOIN object_acl acl ON acl.object_id = o.id
		WHERE o.owner_id = $1
	`, accountID.String())
	if err != nil {
		return nil, oops.Code("OBJECT_LIST_OWNED_FAILED").
			With("operation", "list owned objects").
			With("account_id", accountID.String()).
			Wrap(err)
	}
	return objs, nil
}

// queryObjects runs a multi-row object query and scans each row.
func (r *ObjectRepository) queryObjects(ctx context.Context, sql string, args ...any) ([]*world.Object, error) {
	q := store.QuerierFrom(ctx, r.pool)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	defer rows.Close()

	var objs []*world.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return objs, nil
}

// scanObject scans one row of the objectColumns select list. A missing
// access record (NULL acl columns from the LEFT JOIN) is reported as a
// ConsistencyError: an object without one is never a valid state.
func scanObject(row pgx.Row) (*world.Object, error) {
	var (
		idStr         string
		shortName     string
		ownerIDStr    string
		ownerUsername string
		revisionIDStr *string
		isPlayer      bool
		isSanctum     bool
		dataJSON      []byte
		readLevel     *string
		writeLevel    *string
		carryLevel    *string
		executeLevel  *string
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(
		&idStr, &shortName, &ownerIDStr, &ownerUsername, &revisionIDStr,
		&isPlayer, &isSanctum, &dataJSON,
		&readLevel, &writeLevel, &carryLevel, &executeLevel,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("OBJECT_SCAN_FAILED").
			With("operation", "scan object").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("OBJECT_INVALID_ID").
			With("operation", "parse object id").
			With("id", idStr).
			Wrap(err)
	}
	ownerID, err := ulid.Parse(ownerIDStr)
	if err != nil {
		return nil, oops.Code("OBJECT_INVALID_OWNER_ID").
			With("operation", "parse owner id").
			With("owner_id", ownerIDStr).
			Wrap(err)
	}

	var revisionID *ulid.ULID
	if revisionIDStr != nil {
		parsed, err := ulid.Parse(*revisionIDStr)
		if err != nil {
			return nil, oops.Code("OBJECT_INVALID_REVISION_ID").
				With("operation", "parse revision id").
				With("revision_id", *revisionIDStr).
				Wrap(err)
		}
		revisionID = &parsed
	}

	if readLevel == nil || writeLevel == nil || carryLevel == nil || executeLevel == nil {
		return nil, &world.ConsistencyError{
			Entity:  "object_acl",
			Message: "object " + idStr + " has no access record",
		}
	}

	data := world.DataBag{}
	if len(dataJSON) > 0 {
		if err := json.Unmarshal(dataJSON, &data); err != nil {
			return nil, oops.Code("OBJECT_INVALID_DATA").
				With("operation", "unmarshal data").
				With("id", idStr).
				Wrap(err)
		}
	}

	return &world.Object{
		ID:            id,
		ShortName:     shortName,
		OwnerID:       ownerID,
		OwnerUsername: ownerUsername,
		RevisionID:    revisionID,
		IsPlayer:      isPlayer,
		IsSanctum:     isSanctum,
		Data:          data,
		Access: world.Access{
			Read:    world.Level(*readLevel),
			Write:   world.Level(*writeLevel),
			Carry:   world.Level(*carryLevel),
			Execute: world.Level(*executeLevel),
		},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Compile-time interface check.
var _ world.ObjectRepository = (*ObjectRepository)(nil)
