package event_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

func TestHealthBelow(t *testing.T) {
	st := newFakeState()
	trig := event.HealthBelow{CharacterID: "hero", Threshold: 50}

	ok, err := trig.Evaluate(st)
	require.NoError(t, err)
	assert.False(t, ok)

	st.chars["hero"].stats.Set(stats.Health, 40)
	ok, err = trig.Evaluate(st)
	require.NoError(t, err)
	assert.True(t, ok)

	st.chars["hero"].stats.Set(stats.Health, 50)
	ok, _ = trig.Evaluate(st)
	assert.False(t, ok, "threshold is strict")
}

func TestHealthBelow_UnknownCharacterIsFatal(t *testing.T) {
	_, err := event.HealthBelow{CharacterID: "ghost", Threshold: 1}.Evaluate(newFakeState())
	assert.ErrorIs(t, err, event.ErrNotFound)
}

func TestInLocation(t *testing.T) {
	st := newFakeState()
	st.location = "forest"
	ok, err := event.InLocation{LocationID: "forest"}.Evaluate(st)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = event.InLocation{LocationID: "cave"}.Evaluate(st)
	assert.False(t, ok)
}

func TestQuestCompleted(t *testing.T) {
	st := newFakeState()
	st.quests["q1"] = true
	ok, err := event.QuestCompleted{QuestID: "q1"}.Evaluate(st)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = event.QuestCompleted{QuestID: "missing"}.Evaluate(st)
	assert.ErrorIs(t, err, event.ErrNotFound, "unknown quest must not be silently false")
}

func TestAll_ShortCircuits(t *testing.T) {
	calls := 0
	counting := event.TriggerFunc(func(event.State) (bool, error) { calls++; return true, nil })
	never := event.TriggerFunc(func(event.State) (bool, error) { return false, nil })

	ok, err := event.All(newFakeState(), []event.Trigger{never, counting})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, calls)

	ok, _ = event.All(newFakeState(), nil)
	assert.True(t, ok)
}

type stubScripts struct{}

func (stubScripts) Trigger(fn string, _ map[string]any) (event.Trigger, error) {
	if fn != "always" {
		return nil, errors.New("no such function")
	}
	return event.TriggerFunc(func(event.State) (bool, error) { return true, nil }), nil
}

func TestBuildTrigger(t *testing.T) {
	cases := []struct {
		spec event.TriggerSpec
		want event.Trigger
	}{
		{event.TriggerSpec{Kind: event.KindHealthBelow, Character: "hero", Threshold: 10}, event.HealthBelow{CharacterID: "hero", Threshold: 10}},
		{event.TriggerSpec{Kind: event.KindInLocation, Location: "cave"}, event.InLocation{LocationID: "cave"}},
		{event.TriggerSpec{Kind: event.KindQuestCompleted, Quest: "q"}, event.QuestCompleted{QuestID: "q"}},
	}
	for _, tc := range cases {
		got, err := event.BuildTrigger(tc.spec, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	scripted, err := event.BuildTrigger(event.TriggerSpec{Kind: event.KindScript, Script: "always"}, stubScripts{})
	require.NoError(t, err)
	ok, _ := scripted.Evaluate(newFakeState())
	assert.True(t, ok)
}

func TestBuildTrigger_Errors(t *testing.T) {
	_, err := event.BuildTrigger(event.TriggerSpec{Kind: "weather"}, nil)
	assert.ErrorIs(t, err, event.ErrUnknownTrigger)

	for _, spec := range []event.TriggerSpec{
		{Kind: event.KindHealthBelow},
		{Kind: event.KindInLocation},
		{Kind: event.KindQuestCompleted},
		{Kind: event.KindScript, Script: "always"},
	} {
		_, err := event.BuildTrigger(spec, nil)
		assert.Error(t, err, spec.Kind)
	}

	_, err = event.BuildTriggers([]event.TriggerSpec{{Kind: event.KindScript, Script: "nope"}}, stubScripts{})
	assert.Error(t, err)
}
