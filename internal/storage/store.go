// Package storage persists session snapshots in named save slots.
//
// The Store interface is implemented here by an in-memory store and a YAML
// file store, and by the sqlite, postgres and redis subpackages.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
)

// ErrSlotNotFound is returned when loading or deleting a slot that has no save.
var ErrSlotNotFound = errors.New("save slot not found")

// ErrInvalidSlot is returned for slot names outside [A-Za-z0-9_-]{1,64}.
var ErrInvalidSlot = errors.New("invalid save slot name")

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateSlot checks that slot is usable as a key and a file name.
func ValidateSlot(slot string) error {
	if !slotPattern.MatchString(slot) {
		return fmt.Errorf("slot %q: %w", slot, ErrInvalidSlot)
	}
	return nil
}

// SlotInfo describes the save currently held in a slot.
type SlotInfo struct {
	// Slot is the slot name.
	Slot string `json:"slot" yaml:"slot"`
	// ID uniquely identifies this save; every Save assigns a new one.
	ID string `json:"id" yaml:"id"`
	// SavedAt is the wall-clock time of the save, UTC, millisecond precision.
	SavedAt time.Time `json:"saved_at" yaml:"saved_at"`
	// GameTime is the session's game clock at the save.
	GameTime time.Duration `json:"game_time" yaml:"game_time"`
}

// Record is a saved snapshot with its slot metadata.
type Record struct {
	SlotInfo `yaml:",inline"`
	Snapshot session.Snapshot `json:"snapshot" yaml:"snapshot"`
}

// Store persists snapshots by slot. Implementations are safe for concurrent use.
type Store interface {
	// Save writes snap to slot, replacing any previous save.
	//
	// Postcondition: returns ErrInvalidSlot for a malformed slot name.
	Save(ctx context.Context, slot string, snap session.Snapshot) (SlotInfo, error)
	// Load returns the snapshot saved in slot.
	//
	// Postcondition: returns ErrSlotNotFound when slot is empty.
	Load(ctx context.Context, slot string) (session.Snapshot, error)
	// Delete removes the save in slot.
	//
	// Postcondition: returns ErrSlotNotFound when slot is empty.
	Delete(ctx context.Context, slot string) error
	// List returns every occupied slot, sorted by name.
	List(ctx context.Context) ([]SlotInfo, error)
	// Close releases the store's resources.
	Close() error
}

// Options configures record construction shared by all stores.
type Options struct {
	Now   func() time.Time
	NewID func() string
}

// Option customizes Options.
type Option func(*Options)

// WithClock overrides the wall clock used for SavedAt.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.Now = now }
}

// WithIDGenerator overrides the save ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *Options) { o.NewID = newID }
}

// NewOptions applies opts over the defaults: time.Now and random UUIDs.
func NewOptions(opts ...Option) Options {
	o := Options{Now: time.Now, NewID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewRecord validates slot and stamps a new record for snap.
func (o Options) NewRecord(slot string, snap session.Snapshot) (Record, error) {
	if err := ValidateSlot(slot); err != nil {
		return Record{}, err
	}
	return Record{
		SlotInfo: SlotInfo{
			Slot:     slot,
			ID:       o.NewID(),
			SavedAt:  o.Now().UTC().Truncate(time.Millisecond),
			GameTime: snap.Time,
		},
		Snapshot: snap,
	}, nil
}
