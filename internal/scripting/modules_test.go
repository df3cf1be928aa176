package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgworld/internal/game/formula"
)

func TestEngineLog_AllLevels(t *testing.T) {
	mgr, logs := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("log", `
		engine.log.debug("d")
		engine.log.info("i")
		engine.log.warn("w")
		engine.log.error("e")
	`))
	for msg, level := range map[string]zapcore.Level{
		"d": zap.DebugLevel,
		"i": zap.InfoLevel,
		"w": zap.WarnLevel,
		"e": zap.ErrorLevel,
	} {
		entries := logs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		assert.Equal(t, level, entries[0].Level)
	}
}

func TestEngineDice_RollWithinBounds(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	require.NoError(t, mgr.LoadString("dice", `function roll(ctx) return engine.dice.roll("2d6+1") end`))
	f, err := mgr.Formula("roll")
	require.NoError(t, err)
	rapid.Check(t, func(rt *rapid.T) {
		v := f.Calculate(formula.Context{})
		if v < 3 || v > 13 {
			rt.Fatalf("2d6+1 rolled %v", v)
		}
	})
}

func TestEngineDice_BadExpressionErrors(t *testing.T) {
	mgr, _ := newTestManager(t, 0)
	assert.Error(t, mgr.LoadString("dice", `engine.dice.roll("banana")`))
}
