package session

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/character"
	"github.com/cory-johannsen/rpgworld/internal/game/combat"
	"github.com/cory-johannsen/rpgworld/internal/game/quest"
	"github.com/cory-johannsen/rpgworld/internal/game/stats"
	"github.com/cory-johannsen/rpgworld/internal/game/world"
)

// SnapshotVersion is the current persisted snapshot format.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when restoring a snapshot of an
// unsupported format.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// Snapshot is the serialisable form of a Session. It holds every stat
// entry, spell cooldown, inventory item, world event flag and quest
// objective flag.
type Snapshot struct {
	Version    int                    `json:"version" yaml:"version"`
	Time       time.Duration          `json:"time" yaml:"time"`
	World      world.State            `json:"world" yaml:"world"`
	Characters []character.State      `json:"characters" yaml:"characters"`
	Events     map[string]bool        `json:"events,omitempty" yaml:"events,omitempty"`
	Quests     map[string]quest.State `json:"quests,omitempty" yaml:"quests,omitempty"`
}

// Snapshot captures the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Version: SnapshotVersion,
		Time:    s.clock.Now(),
		World:   s.state.world.Snapshot(),
		Events:  s.events.Snapshot(),
		Quests:  s.state.quests.Snapshot(),
	}
	for _, c := range s.state.Characters() {
		snap.Characters = append(snap.Characters, c.Snapshot())
	}
	return snap
}

// Restore replaces the session's characters and progress with snap.
// The world, events and quests must come from the same content the
// snapshot was taken against; characters are rebuilt through cat.
// Scheduled actions are not persisted and are dropped.
//
// Postcondition: on error the session may be partially restored.
func (s *Session) Restore(snap Snapshot, cat character.Catalog, opts ...stats.Option) error {
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d: %w", snap.Version, ErrSnapshotVersion)
	}
	chars := make(map[string]*character.Character, len(snap.Characters))
	for _, cs := range snap.Characters {
		c, err := character.FromState(cs, cat, opts, s.logger.Named("character"))
		if err != nil {
			return fmt.Errorf("restoring snapshot: %w", err)
		}
		chars[c.ID()] = c
	}
	if err := s.state.world.Restore(snap.World); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	if err := s.events.Restore(snap.Events); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	if err := s.state.quests.Restore(snap.Quests); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	s.state.characters = chars
	s.clock.Set(snap.Time)
	s.actions = combat.NewActionQueue()
	s.logger.Info("session restored",
		zap.Duration("time", snap.Time),
		zap.Int("characters", len(chars)),
	)
	return nil
}
