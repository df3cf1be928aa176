package scripting_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/rpgworld/internal/game/dice"
	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/formula"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
	"github.com/cory-johannsen/rpgworld/internal/scripting"
)

func newTestManager(t testing.TB, limit int) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(limit, roller, logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}
	return dir
}

func TestLoadDir_LexicalOrder(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	dir := writeTempLua(t, map[string]string{
		"a.lua":     `base = 10`,
		"b.lua":     `function bonus(ctx) return base * 2 end`,
		"notes.txt": `not lua`,
	})
	require.NoError(t, mgr.LoadDir(dir))
	assert.True(t, mgr.Has("bonus"))
	assert.False(t, mgr.Has("base"))

	f, err := mgr.Formula("bonus")
	require.NoError(t, err)
	assert.Equal(t, 20.0, f.Calculate(formula.Context{}))
}

func TestLoadDir_Errors(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	assert.Error(t, mgr.LoadDir(filepath.Join(t.TempDir(), "missing")))
	dir := writeTempLua(t, map[string]string{"bad.lua": `function (`})
	assert.Error(t, mgr.LoadDir(dir))
}

func TestFormula_ReadsContext(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("f", `
		function drain(ctx)
			assert(ctx.attribute == "health")
			assert(ctx.ability == "Drain")
			assert(ctx.recipient == nil)
			return -(ctx.caster.focus * 0.5) + (ctx.target.armor or 0)
		end
	`))
	f, err := mgr.Formula("drain")
	require.NoError(t, err)
	got := f.Calculate(formula.Context{
		Target:    stats.New(map[string]float64{"armor": 3}),
		Caster:    stats.New(map[string]float64{"focus": 40}),
		Attribute: stats.Health,
		Ability:   "Drain",
	})
	assert.Equal(t, -17.0, got)
}

func TestFormula_RuntimeErrorYieldsZero(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("f", `
		function broken(ctx) error("intentional") end
		function wordy(ctx) return "ten" end
		function scribble(ctx) ctx.target.health = 1 return 5 end
	`))
	for _, fn := range []string{"broken", "wordy", "scribble"} {
		f, err := mgr.Formula(fn)
		require.NoError(t, err)
		assert.Equal(t, 0.0, f.Calculate(formula.Context{Target: stats.New(nil)}), fn)
	}
	assert.Equal(t, 2, logs.FilterMessage("scripting: formula failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("scripting: formula returned non-number").Len())
}

func TestFormula_BudgetResetsPerCall(t *testing.T) {
	mgr, _ := newTestManager(t, 2000)
	require.NoError(t, mgr.LoadString("f", `
		function loop(ctx)
			local n = 0
			for i = 1, 100 do n = n + 1 end
			return n
		end
		function forever(ctx) while true do end end
	`))
	loop, err := mgr.Formula("loop")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		require.Equal(t, 100.0, loop.Calculate(formula.Context{}), "call %d", i)
	}
	forever, err := mgr.Formula("forever")
	require.NoError(t, err)
	assert.Equal(t, 0.0, forever.Calculate(formula.Context{}))
	assert.Equal(t, 100.0, loop.Calculate(formula.Context{}), "VM usable after a budget overrun")
}

func TestFormula_Undefined(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	_, err := mgr.Formula("nope")
	assert.ErrorIs(t, err, scripting.ErrUndefinedFunction)
	_, err = mgr.Trigger("nope", nil)
	assert.ErrorIs(t, err, scripting.ErrUndefinedFunction)
}

func TestFormula_BuildThroughRegistry(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("f", `function seven(ctx) return 7 end`))
	f, err := formula.Build(formula.Spec{Kind: formula.KindScript, Script: "seven"}, mgr)
	require.NoError(t, err)
	assert.Equal(t, 7.0, f.Calculate(formula.Context{}))
}

type subject struct {
	id string
	t  *stats.Table
}

func (s subject) ID() string          { return s.id }
func (s subject) Name() string        { return s.id }
func (s subject) Stats() *stats.Table { return s.t }

type worldState struct{}

func (worldState) Character(id string) (effect.Subject, error) {
	if id == "hero" {
		return subject{id: "hero", t: stats.NewCharacter(30, 0, 0, 0, nil)}, nil
	}
	return nil, fmt.Errorf("character %q: %w", id, event.ErrNotFound)
}
func (worldState) CurrentLocationID() (string, error) { return "cave", nil }
func (worldState) QuestComplete(id string) (bool, error) {
	return id == "done", nil
}

func TestTrigger_Evaluates(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("t", `
		function weak_in(args, world)
			return world.location() == args.location and world.health(args.who) < args.below
		end
		function finished(args, world) return world.quest_complete(args.quest) end
	`))
	trig, err := mgr.Trigger("weak_in", map[string]any{"location": "cave", "who": "hero", "below": 50})
	require.NoError(t, err)
	ok, err := trig.Evaluate(worldState{})
	require.NoError(t, err)
	assert.True(t, ok)

	trig, err = event.BuildTrigger(event.TriggerSpec{
		Kind: event.KindScript, Script: "finished", Args: map[string]any{"quest": "open"},
	}, mgr)
	require.NoError(t, err)
	ok, err = trig.Evaluate(worldState{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrigger_LookupErrorsSurface(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("t", `
		function ghost(args, world) return world.health("ghost") < 10 end
		function vandal(args, world) world.location = nil return true end
	`))
	trig, err := mgr.Trigger("ghost", nil)
	require.NoError(t, err)
	_, err = trig.Evaluate(worldState{})
	assert.ErrorIs(t, err, event.ErrNotFound)

	trig, err = mgr.Trigger("vandal", nil)
	require.NoError(t, err)
	_, err = trig.Evaluate(worldState{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, event.ErrNotFound))
}
