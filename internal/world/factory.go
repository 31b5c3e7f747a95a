// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Owner identifies the account a new object belongs to. The username is part
// of the object's value identity, so the factory needs both.
type Owner struct {
	ID       ulid.ULID
	Username string
}

// CreateParams describes one scripted-object creation.
type CreateParams struct {
	// Kind names the creation template ("player", "room", "item").
	Kind string
	// Owner is the authoring account.
	Owner Owner
	// ShortName is the object's unique short name.
	ShortName string
	// Substitutions are rendered into the kind's code template.
	Substitutions map[string]string
	// PlayerAvatar marks the object as the owner's in-world avatar.
	PlayerAvatar bool
	// Sanctum marks the object as the owner's private room.
	Sanctum bool
}

// Factory orchestrates atomic creation of scripted objects: a code asset,
// its initial revision, the object bound to that revision, and the object's
// access record, committed together or not at all.
type Factory struct {
	objects    ObjectRepository
	code       CodeRepository
	engine     Engine
	transactor Transactor
}

// NewFactory creates a Factory.
func NewFactory(objects ObjectRepository, code CodeRepository, engine Engine, transactor Transactor) *Factory {
	return &Factory{
		objects:    objects,
		code:       code,
		engine:     engine,
		transactor: transactor,
	}
}

// CreateScriptedObject creates a new world object of the given kind. The
// kind's template is rendered with the substitutions, the rendered code
// becomes the object's initial revision, and the object's scripting hook is
// invoked once everything is written. A failure at any step, the init hook
// included, leaves no trace of any of the four entities.
func (f *Factory) CreateScriptedObject(ctx context.Context, p CreateParams) (*Object, error) {
	if err := ValidateShortName(p.ShortName); err != nil {
		return nil, err
	}
	if p.Owner.ID.IsZero() || p.Owner.Username == "" {
		return nil, &ValidationError{Field: "owner", Message: "owner account is required"}
	}

	tmpl, err := f.engine.TemplateFor(p.Kind)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Field: "kind", Message: "unknown creation kind " + p.Kind}
		}
		return nil, oops.Code("FACTORY_TEMPLATE_FAILED").With("kind", p.Kind).Wrap(err)
	}

	code, err := renderTemplate(p.Kind, tmpl, p.Substitutions)
	if err != nil {
		return nil, oops.Code("FACTORY_RENDER_FAILED").With("kind", p.Kind).Wrap(err)
	}

	var obj *Object
	err = f.transactor.InTransaction(ctx, func(ctx context.Context) error {
		asset, err := NewCodeAsset(p.Owner.ID, p.ShortName)
		if err != nil {
			return err
		}
		if err := f.code.CreateAsset(ctx, asset); err != nil {
			return oops.Code("FACTORY_ASSET_FAILED").With("shortname", p.ShortName).Wrap(err)
		}

		rev, err := NewCodeRevision(asset.ID, code)
		if err != nil {
			return err
		}
		if err := f.code.CreateRevision(ctx, rev); err != nil {
			return oops.Code("FACTORY_REVISION_FAILED").With("asset_id", asset.ID.String()).Wrap(err)
		}

		now := time.Now().UTC()
		obj = &Object{
			ID:            ulid.Make(),
			ShortName:     p.ShortName,
			OwnerID:       p.Owner.ID,
			OwnerUsername: p.Owner.Username,
			RevisionID:    &rev.ID,
			IsPlayer:      p.PlayerAvatar,
			IsSanctum:     p.Sanctum,
			Data:          DataBag{},
			Access:        DefaultAccess(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := f.objects.Create(ctx, obj); err != nil {
			return err
		}

		if err := f.engine.InitializeScripting(ctx, obj); err != nil {
			return oops.Code("FACTORY_INIT_FAILED").
				With("shortname", p.ShortName).
				With("object_id", obj.ID.String()).
				Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("scripted object created",
		"kind", p.Kind,
		"shortname", obj.ShortName,
		"owner", p.Owner.Username,
		"player", obj.IsPlayer,
		"sanctum", obj.IsSanctum,
	)
	return obj, nil
}

// renderTemplate renders a creation template with the substitution values as
// the dot. Missing keys are an error rather than "<no value>" so a bad
// template is caught at creation time.
func renderTemplate(kind, tmpl string, subs map[string]string) (string, error) {
	t, err := template.New(kind).Funcs(sprig.FuncMap()).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}
	if subs == nil {
		subs = map[string]string{}
	}
	var sb strings.Builder
	if err := t.Execute(&sb, subs); err != nil {
		return "", err
	}
	return sb.String(), nil
}
