// Package session holds the live game state and drives it forward in time:
// characters, the world, quests, world events and scheduled actions.
package session

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/effect"
	"github.com/cory-johannsen/rpgworld/internal/game/event"
	"github.com/cory-johannsen/rpgworld/internal/game/quest"
	"github.com/cory-johannsen/rpgworld/internal/game/world"
)

// ErrMissingID is returned when a lookup is made with an empty identifier.
var ErrMissingID = errors.New("id must not be empty")

// ErrDuplicateCharacter is returned by AddCharacter for an ID already present.
var ErrDuplicateCharacter = errors.New("character already present")

// State is the shared game state consulted by triggers and mutated by
// actions. Lookups are strict: unknown IDs are errors wrapping
// event.ErrNotFound, never silent defaults.
// State is not safe for concurrent use.
type State struct {
	world      *world.World
	characters map[string]*character.Character
	quests     *quest.Manager
	logger     *zap.Logger
}

// NewState creates a State over w and quests.
//
// Precondition: w and quests are non-nil.
func NewState(w *world.World, quests *quest.Manager, logger *zap.Logger) *State {
	if w == nil || quests == nil {
		panic("session.NewState: world and quests must be non-nil: precondition violated")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{
		world:      w,
		characters: make(map[string]*character.Character),
		quests:     quests,
		logger:     logger,
	}
}

// World returns the world.
func (s *State) World() *world.World { return s.world }

// Quests returns the quest manager.
func (s *State) Quests() *quest.Manager { return s.quests }

// AddCharacter registers c.
//
// Postcondition: returns ErrDuplicateCharacter when c.ID() is already present.
func (s *State) AddCharacter(c *character.Character) error {
	if _, ok := s.characters[c.ID()]; ok {
		return fmt.Errorf("character %q: %w", c.ID(), ErrDuplicateCharacter)
	}
	s.characters[c.ID()] = c
	s.logger.Debug("character added", zap.String("character", c.ID()))
	return nil
}

// RemoveCharacter drops the character with id. It reports whether one was removed.
func (s *State) RemoveCharacter(id string) bool {
	if _, ok := s.characters[id]; !ok {
		return false
	}
	delete(s.characters, id)
	return true
}

// Player returns the character with id.
func (s *State) Player(id string) (*character.Character, error) {
	if id == "" {
		return nil, fmt.Errorf("character lookup: %w", ErrMissingID)
	}
	c, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %q: %w", id, event.ErrNotFound)
	}
	return c, nil
}

// Character implements event.State.
func (s *State) Character(id string) (effect.Subject, error) {
	c, err := s.Player(id)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Characters returns every character sorted by ID.
func (s *State) Characters() []*character.Character {
	ids := make([]string, 0, len(s.characters))
	for id := range s.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*character.Character, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.characters[id])
	}
	return out
}

// CurrentLocationID implements event.State.
//
// Postcondition: returns an error wrapping world.ErrNoCurrentLocation
// before a start location is set.
func (s *State) CurrentLocationID() (string, error) {
	id := s.world.CurrentLocationID()
	if id == "" {
		return "", fmt.Errorf("world %q: %w", s.world.ID, world.ErrNoCurrentLocation)
	}
	return id, nil
}

// QuestComplete implements event.State.
func (s *State) QuestComplete(id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("quest lookup: %w", ErrMissingID)
	}
	done, err := s.quests.IsComplete(id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", event.ErrNotFound, err)
	}
	return done, nil
}
