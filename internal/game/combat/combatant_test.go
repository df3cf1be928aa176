package combat_test

import (
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

type fighter struct {
	id    string
	stats *stats.Table
}

func (f *fighter) ID() string          { return f.id }
func (f *fighter) Name() string        { return f.id }
func (f *fighter) Stats() *stats.Table { return f.stats }
func (f *fighter) IsAlive() bool       { return f.stats.IsAlive() }

func newFighter(id string, health, focus float64) *fighter {
	return &fighter{id: id, stats: stats.NewCharacter(health, 0, focus, 0, nil)}
}
