// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

// Package script provides the sandboxed Lua engine behind scripted world
// objects.
package script

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/tidemush/tidemush/internal/world"
)

//go:embed templates/*.lua
var templatesFS embed.FS

// safeLibrary is a Lua library safe to load in a sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math. Blocked: os, io, debug, package.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// unsafeBaseFunctions are base-library functions that allow filesystem
// access and must be blocked.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// LuaEngine implements world.Engine with sandboxed gopher-lua states. Each
// initialization runs in a fresh state; nothing leaks between objects.
type LuaEngine struct {
	code      world.CodeRepository
	libraries []safeLibrary
}

// NewLuaEngine creates a LuaEngine reading revision code from the given
// repository.
func NewLuaEngine(code world.CodeRepository) *LuaEngine {
	return &LuaEngine{
		code:      code,
		libraries: defaultSafeLibraries(),
	}
}

// TemplateFor returns the embedded code template for a creation kind.
func (e *LuaEngine) TemplateFor(kind string) (string, error) {
	b, err := templatesFS.ReadFile("templates/" + kind + ".lua")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", world.ErrNotFound
		}
		return "", oops.Code("SCRIPT_TEMPLATE_FAILED").With("kind", kind).Wrap(err)
	}
	return string(b), nil
}

// InitializeScripting loads the object's revision code into a fresh
// sandboxed state and calls its init function, if it defines one. Runs
// inside the creating transaction, so a failing hook unwinds the whole
// creation.
func (e *LuaEngine) InitializeScripting(ctx context.Context, obj *world.Object) error {
	if obj.RevisionID == nil {
		return nil
	}

	rev, err := e.code.GetRevision(ctx, *obj.RevisionID)
	if err != nil {
		return oops.Code("SCRIPT_REVISION_FAILED").
			With("revision_id", obj.RevisionID.String()).
			Wrap(err)
	}

	L, err := e.newState(ctx)
	if err != nil {
		return err
	}
	defer L.Close()

	L.SetGlobal("self", objectTable(L, obj))

	if err := L.DoString(rev.Code); err != nil {
		return oops.Code("SCRIPT_LOAD_FAILED").
			With("shortname", obj.ShortName).
			Wrap(err)
	}

	init := L.GetGlobal("init")
	if init == lua.LNil {
		slog.Debug("object code defines no init hook", "shortname", obj.ShortName)
		return nil
	}
	if err := L.CallByParam(lua.P{Fn: init, NRet: 0, Protect: true}); err != nil {
		return oops.Code("SCRIPT_INIT_FAILED").
			With("shortname", obj.ShortName).
			Wrap(err)
	}
	return nil
}

// newState creates a fresh Lua state with only safe libraries loaded.
func (e *LuaEngine) newState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	L.SetContext(ctx)

	for _, lib := range e.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.Code("SCRIPT_STATE_FAILED").
				With("library", lib.name).
				Wrap(err)
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	return L, nil
}

// objectTable exposes the object to its code as a read-only-by-convention
// table.
func objectTable(L *lua.LState, obj *world.Object) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "shortname", lua.LString(obj.ShortName))
	L.SetField(t, "owner", lua.LString(obj.OwnerUsername))
	L.SetField(t, "is_player", lua.LBool(obj.IsPlayer))
	L.SetField(t, "is_sanctum", lua.LBool(obj.IsSanctum))
	return t
}

// Compile-time interface check.
var _ world.Engine = (*LuaEngine)(nil)
