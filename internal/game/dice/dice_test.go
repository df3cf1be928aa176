package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgworld/internal/game/dice"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"3D8-1", dice.Expression{Raw: "3D8-1", Count: 3, Sides: 8, Modifier: -1}},
	}
	for _, tc := range cases {
		got, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "20", "0d6", "xd6", "d1", "d6+x"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, in)
	}
	assert.Panics(t, func() { dice.MustParse("nope") })
}

func TestRoller_Roll_InRange_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(2, 100).Draw(rt, "sides")
		seed := rapid.Uint64().Draw(rt, "seed")
		r := dice.NewRoller(dice.NewSeededSource(seed), nil)
		res := r.Roll(dice.Expression{Raw: "x", Count: count, Sides: sides})
		if len(res.Dice) != count {
			rt.Fatalf("got %d dice, want %d", len(res.Dice), count)
		}
		for _, d := range res.Dice {
			if d < 1 || d > sides {
				rt.Fatalf("die %d out of [1, %d]", d, sides)
			}
		}
	})
}

func TestSeededSource_Deterministic(t *testing.T) {
	a, b := dice.NewSeededSource(42), dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestSources_PanicOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
	assert.Panics(t, func() { dice.NewSeededSource(1).Intn(0) })
}

func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 200; i++ {
		v := src.Intn(6)
		assert.True(t, v >= 0 && v < 6)
	}
}

func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, 12, r.Total())
	assert.Equal(t, "2d6+3 → [4 5] +3 = 12", r.String())
}
