package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
)

// MemoryStore keeps saves in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	opts    Options
	records map[string]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: NewOptions(opts...), records: make(map[string]Record)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, slot string, snap session.Snapshot) (SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return SlotInfo{}, err
	}
	rec, err := m.opts.NewRecord(slot, snap)
	if err != nil {
		return SlotInfo{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[slot] = rec
	return rec.SlotInfo, nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, slot string) (session.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return session.Snapshot{}, err
	}
	if err := ValidateSlot(slot); err != nil {
		return session.Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[slot]
	if !ok {
		return session.Snapshot{}, fmt.Errorf("slot %q: %w", slot, ErrSlotNotFound)
	}
	return rec.Snapshot, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[slot]; !ok {
		return fmt.Errorf("slot %q: %w", slot, ErrSlotNotFound)
	}
	delete(m.records, slot)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context) ([]SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SlotInfo, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.SlotInfo)
	}
	SortSlots(out)
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

// SortSlots orders infos by slot name.
func SortSlots(infos []SlotInfo) {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Slot < infos[j].Slot })
}
