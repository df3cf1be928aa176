package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/dice"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

// ErrUndefinedFunction is returned when a named Lua global is not a function.
var ErrUndefinedFunction = errors.New("lua function not defined")

// Manager owns one sandboxed VM. Every call gets a fresh instruction
// budget. Manager is safe for concurrent use; calls are serialised.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager with an empty VM.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the engine global is defined; Close must be called.
func NewManager(instLimit int, roller *dice.Roller, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if roller == nil {
		roller = dice.NewRoller(dice.NewCryptoSource(), logger)
	}
	m := &Manager{L: NewSandboxedState(instLimit), limit: instLimit, roller: roller, logger: logger}
	m.registerModules(m.L)
	return m
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}

// LoadDir executes every *.lua file in dir in lexical order.
//
// Postcondition: returns an error naming the first file that fails.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range files {
		cancel := armBudget(m.L, m.limit)
		err := m.L.DoFile(path)
		cancel()
		if err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		m.logger.Debug("script loaded", zap.String("file", path))
	}
	return nil
}

// LoadString executes src as a chunk named name.
func (m *Manager) LoadString(name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel := armBudget(m.L, m.limit)
	defer cancel()
	fn, err := m.L.Load(strings.NewReader(src), name)
	if err != nil {
		return fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	m.L.Push(fn)
	if err := m.L.PCall(0, lua.MultRet, nil); err != nil {
		return fmt.Errorf("scripting: running %q: %w", name, err)
	}
	return nil
}

// Has reports whether fn names a global Lua function.
func (m *Manager) Has(fn string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.L.GetGlobal(fn).Type() == lua.LTFunction
}

// call invokes global fn with args built by build, under a fresh budget.
//
// Precondition: m.mu is held.
func (m *Manager) call(fn string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	f := m.L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return lua.LNil, fmt.Errorf("scripting: %q: %w", fn, ErrUndefinedFunction)
	}
	cancel := armBudget(m.L, m.limit)
	defer cancel()
	if err := m.L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, build(m.L)...); err != nil {
		return lua.LNil, fmt.Errorf("scripting: %q: %w", fn, err)
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// Formula returns a formula.Formula backed by the Lua function fn, called
// as fn(ctx) with
//
//	ctx = {attribute=, ability=, target=, caster=, recipient=,
//	       target_name=, caster_name=, recipient_name=}
//
// where target, caster and recipient are read-only stat views. Runtime
// errors and non-numeric results are logged at Warn and yield 0.
//
// Postcondition: returns ErrUndefinedFunction when fn is not defined.
func (m *Manager) Formula(fn string) (formula.Formula, error) {
	if !m.Has(fn) {
		return nil, fmt.Errorf("scripting: formula %q: %w", fn, ErrUndefinedFunction)
	}
	return scriptFormula{m: m, fn: fn}, nil
}

type scriptFormula struct {
	m  *Manager
	fn string
}

func (f scriptFormula) Calculate(ctx formula.Context) float64 {
	m := f.m
	m.mu.Lock()
	defer m.mu.Unlock()
	ret, err := m.call(f.fn, func(L *lua.LState) []lua.LValue {
		t := L.NewTable()
		L.SetField(t, "attribute", lua.LString(ctx.Attribute))
		L.SetField(t, "ability", lua.LString(ctx.Ability))
		L.SetField(t, "target_name", lua.LString(ctx.TargetName))
		L.SetField(t, "caster_name", lua.LString(ctx.CasterName))
		L.SetField(t, "recipient_name", lua.LString(ctx.RecipientName))
		setStatView(L, t, "target", ctx.Target)
		setStatView(L, t, "caster", ctx.Caster)
		setStatView(L, t, "recipient", ctx.Recipient)
		return []lua.LValue{readOnly(L, t)}
	})
	if err != nil {
		m.logger.Warn("scripting: formula failed", zap.String("function", f.fn), zap.Error(err))
		return 0
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		m.logger.Warn("scripting: formula returned non-number",
			zap.String("function", f.fn),
			zap.String("type", ret.Type().String()),
		)
		return 0
	}
	return float64(n)
}

// setStatView sets t[name] to a read-only view of r, or leaves it nil.
func setStatView(L *lua.LState, t *lua.LTable, name string, r stats.Reader) {
	if r == nil {
		return
	}
	view := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		v, ok := r.Get(L.CheckString(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	}))
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("attempt to modify read-only stats")
		return 0
	}))
	L.SetMetatable(view, mt)
	L.SetField(t, name, view)
}

// Trigger returns an event.Trigger backed by the Lua function fn, called
// as fn(args, world). world is read-only and exposes
//
//	world.health(id) -> number
//	world.location() -> string
//	world.quest_complete(id) -> boolean
//
// Lookup failures and Lua runtime errors are returned from Evaluate.
//
// Postcondition: returns ErrUndefinedFunction when fn is not defined.
func (m *Manager) Trigger(fn string, args map[string]any) (event.Trigger, error) {
	if !m.Has(fn) {
		return nil, fmt.Errorf("scripting: trigger %q: %w", fn, ErrUndefinedFunction)
	}
	return scriptTrigger{m: m, fn: fn, args: args}, nil
}

type scriptTrigger struct {
	m    *Manager
	fn   string
	args map[string]any
}

func (t scriptTrigger) Evaluate(st event.State) (bool, error) {
	m := t.m
	m.mu.Lock()
	defer m.mu.Unlock()
	var lookupErr error
	fail := func(L *lua.LState, err error) int {
		if lookupErr == nil {
			lookupErr = err
		}
		L.RaiseError("%s", err.Error())
		return 0
	}
	ret, err := m.call(t.fn, func(L *lua.LState) []lua.LValue {
		w := L.NewTable()
		L.SetField(w, "health", L.NewFunction(func(L *lua.LState) int {
			c, err := st.Character(L.CheckString(1))
			if err != nil {
				return fail(L, err)
			}
			L.Push(lua.LNumber(c.Stats().Value(stats.Health)))
			return 1
		}))
		L.SetField(w, "location", L.NewFunction(func(L *lua.LState) int {
			id, err := st.CurrentLocationID()
			if err != nil {
				return fail(L, err)
			}
			L.Push(lua.LString(id))
			return 1
		}))
		L.SetField(w, "quest_complete", L.NewFunction(func(L *lua.LState) int {
			done, err := st.QuestComplete(L.CheckString(1))
			if err != nil {
				return fail(L, err)
			}
			L.Push(lua.LBool(done))
			return 1
		}))
		return []lua.LValue{toLValue(L, t.args), readOnly(L, w)}
	})
	if lookupErr != nil {
		return false, fmt.Errorf("scripting: trigger %q: %w", t.fn, lookupErr)
	}
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(ret), nil
}

// toLValue converts decoded YAML or JSON data into a Lua value.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t := L.NewTable()
		for _, e := range x {
			t.Append(toLValue(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range x {
			L.SetField(t, k, toLValue(L, e))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(x))
	}
}
