// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package world

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Audience computes which objects witness events originating from a player.
type Audience struct {
	objects ObjectRepository
	graph   *Graph
}

// NewAudience creates an Audience resolver.
func NewAudience(objects ObjectRepository, graph *Graph) *Audience {
	return &Audience{objects: objects, graph: graph}
}

// AudienceOf returns the set of objects that must witness an event from the
// account's player avatar P: the union of {P}, P's inventory, the object
// containing P, and everything else directly inside that container. The set
// is keyed by value identity so repeated loads of one logical object
// collapse to a single member.
//
// The resolver deliberately stops at P's immediate container: whatever holds
// THAT container hears nothing. Stuffing a player into a box removes them
// from the room's audience while keeping them in the box's.
func (a *Audience) AudienceOf(ctx context.Context, accountID ulid.ULID) (map[Key]*Object, error) {
	player, err := a.objects.GetPlayerObject(ctx, accountID)
	if err != nil {
		return nil, oops.Code("AUDIENCE_NO_PLAYER").With("account_id", accountID.String()).Wrap(err)
	}

	audience := map[Key]*Object{player.Key(): player}

	inventory, err := a.graph.ChildrenOf(ctx, player)
	if err != nil {
		return nil, err
	}
	for _, obj := range inventory {
		audience[obj.Key()] = obj
	}

	room, err := a.graph.ParentOf(ctx, player)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return audience, nil
	}
	audience[room.Key()] = room

	siblings, err := a.graph.ChildrenOf(ctx, room)
	if err != nil {
		return nil, err
	}
	for _, obj := range siblings {
		audience[obj.Key()] = obj
	}

	return audience, nil
}
