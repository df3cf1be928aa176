package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_DistanceTo(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	assert.Equal(t, 5.0, a.DistanceTo(b))
	assert.Equal(t, 5.0, b.DistanceTo(a))
	assert.True(t, a.Equals(Position{Name: "other", X: 0, Y: 0}))
}

func TestNewLocation(t *testing.T) {
	_, err := NewLocation("", "Nowhere", "")
	assert.ErrorIs(t, err, ErrMissingID)

	loc, err := NewLocation("inn", "", "Warm.", "square")
	assert.NoError(t, err)
	assert.Equal(t, "inn", loc.Name)
	assert.True(t, loc.IsConnected("square"))
	loc.Connect("square")
	assert.Len(t, loc.Connected, 1)
}
