// Package scripting runs content-supplied Lua functions in a sandboxed
// GopherLua VM and exposes them as formulas and event triggers.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of a single script call
// when none is configured.
const DefaultInstructionLimit = 100_000

// BlockedGlobals are base-library globals removed from every sandbox:
// they load code from disk or strings, or reach the collector.
var BlockedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// safeLibs are the only standard libraries opened in a sandbox.
var safeLibs = []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath}

// opBudget cancels itself once Done has been polled limit times.
// GopherLua polls Done once per opcode when a context is set.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// armBudget gives L a fresh opcode budget; limit <= 0 uses
// DefaultInstructionLimit. The returned func releases the budget.
func armBudget(L *lua.LState, limit int) context.CancelFunc {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	L.SetContext(b)
	return cancel
}

// NewSandboxedState returns a VM with only the base, table, string and
// math libraries, BlockedGlobals removed, and an initial budget of
// instLimit opcodes.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range safeLibs {
		open(L)
	}
	for _, name := range BlockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	armBudget(L, instLimit)
	return L
}
