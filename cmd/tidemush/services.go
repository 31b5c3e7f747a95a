// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"github.com/tidemush/tidemush/internal/auth"
	authpg "github.com/tidemush/tidemush/internal/auth/postgres"
	"github.com/tidemush/tidemush/internal/script"
	"github.com/tidemush/tidemush/internal/store"
	"github.com/tidemush/tidemush/internal/world"
	worldpg "github.com/tidemush/tidemush/internal/world/postgres"
)

// Services bundles the wired account and world services.
type Services struct {
	Accounts  *authpg.AccountRepository
	Objects   *worldpg.ObjectRepository
	Contains  *worldpg.ContainsRepository
	Code      *worldpg.CodeRepository
	Factory   *world.Factory
	Graph     *world.Graph
	Audience  *world.Audience
	Directory *auth.Directory
}

// buildServices wires the repositories and services onto a connection pool.
func buildServices(pool store.Pool) *Services {
	transactor := store.NewTransactor(pool)
	accounts := authpg.NewAccountRepository(pool)
	objects := worldpg.NewObjectRepository(pool)
	contains := worldpg.NewContainsRepository(pool)
	code := worldpg.NewCodeRepository(pool)

	engine := script.NewLuaEngine(code)
	factory := world.NewFactory(objects, code, engine, transactor)
	graph := world.NewGraph(contains)
	audience := world.NewAudience(objects, graph)
	directory := auth.NewDirectory(accounts, objects, factory, auth.NewArgon2idHasher(), transactor)

	return &Services{
		Accounts:  accounts,
		Objects:   objects,
		Contains:  contains,
		Code:      code,
		Factory:   factory,
		Graph:     graph,
		Audience:  audience,
		Directory: directory,
	}
}
