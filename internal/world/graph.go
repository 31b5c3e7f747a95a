// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Graph is the containment-graph service. It holds no state of its own; the
// single-parent invariant and cycle rejection live in the edge repository so
// they hold under concurrent movers.
type Graph struct {
	contains ContainsRepository
}

// NewGraph creates a Graph over the given edge repository.
func NewGraph(contains ContainsRepository) *Graph {
	return &Graph{contains: contains}
}

// PlaceInto puts inner into outer, displacing any previous container.
func (g *Graph) PlaceInto(ctx context.Context, outer, inner *Object) error {
	if outer.ID == inner.ID {
		return &ConsistencyError{Entity: "contains", Message: "object cannot contain itself"}
	}
	if err := g.contains.PlaceInto(ctx, outer.ID, inner.ID); err != nil {
		return oops.Code("GRAPH_PLACE_FAILED").
			With("outer_id", outer.ID.String()).
			With("inner_id", inner.ID.String()).
			Wrap(err)
	}
	slog.Debug("object placed",
		"outer", outer.Key().String(),
		"inner", inner.Key().String(),
	)
	return nil
}

// RemoveFrom removes inner from outer. Removing an edge that does not exist
// is a no-op, not an error.
func (g *Graph) RemoveFrom(ctx context.Context, outer, inner *Object) error {
	if err := g.contains.RemoveFrom(ctx, outer.ID, inner.ID); err != nil {
		return oops.Code("GRAPH_REMOVE_FAILED").
			With("outer_id", outer.ID.String()).
			With("inner_id", inner.ID.String()).
			Wrap(err)
	}
	return nil
}

// ChildrenOf returns a fresh snapshot of the objects directly inside obj.
func (g *Graph) ChildrenOf(ctx context.Context, obj *Object) ([]*Object, error) {
	children, err := g.contains.ChildrenOf(ctx, obj.ID)
	if err != nil {
		return nil, oops.Code("GRAPH_CHILDREN_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	return children, nil
}

// ParentOf returns the object containing obj, or nil when obj has no
// container.
func (g *Graph) ParentOf(ctx context.Context, obj *Object) (*Object, error) {
	parent, err := g.contains.ParentOf(ctx, obj.ID)
	if err != nil {
		return nil, oops.Code("GRAPH_PARENT_FAILED").With("id", obj.ID.String()).Wrap(err)
	}
	return parent, nil
}
