package event_test

import (
	"fmt"

	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
)

type hero struct {
	id    string
	stats *stats.Table
}

func (h *hero) ID() string          { return h.id }
func (h *hero) Name() string        { return h.id }
func (h *hero) Stats() *stats.Table { return h.stats }

type fakeState struct {
	chars    map[string]*hero
	location string
	quests   map[string]bool
}

func newFakeState() *fakeState {
	return &fakeState{
		chars:  map[string]*hero{"hero": {id: "hero", stats: stats.NewCharacter(100, 50, 50, 0, nil)}},
		quests: map[string]bool{},
	}
}

func (s *fakeState) Character(id string) (effect.Subject, error) {
	c, ok := s.chars[id]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", id, event.ErrNotFound)
	}
	return c, nil
}

func (s *fakeState) CurrentLocationID() (string, error) { return s.location, nil }

func (s *fakeState) QuestComplete(id string) (bool, error) {
	done, ok := s.quests[id]
	if !ok {
		return false, fmt.Errorf("quest %q: %w", id, event.ErrNotFound)
	}
	return done, nil
}
