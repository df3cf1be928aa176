// Package redis provides a Redis-backed save store.
//
// Each save is a JSON record under <prefix><slot>; the set <prefix>slots
// indexes occupied slots.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/storage"
)

// Store persists saves in Redis.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	opts   storage.Options
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// New returns a Store over client. A zero ttl keeps saves forever.
//
// Precondition: client is non-nil.
func New(client *goredis.Client, prefix string, ttl time.Duration, logger *zap.Logger, opts ...storage.Option) *Store {
	if client == nil {
		panic("redis.New: client must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, opts: storage.NewOptions(opts...), logger: logger}
}

// Save keys and the index key live in separate namespaces; slot names
// cannot contain ':'.
func (s *Store) key(slot string) string { return s.prefix + "slot:" + slot }

func (s *Store) indexKey() string { return s.prefix + "index" }

// Save implements storage.Store.
func (s *Store) Save(ctx context.Context, slot string, snap session.Snapshot) (storage.SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.SlotInfo{}, err
	}
	rec, err := s.opts.NewRecord(slot, snap)
	if err != nil {
		return storage.SlotInfo{}, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("encoding slot %q: %w", slot, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(slot), string(data), s.ttl)
	pipe.SAdd(ctx, s.indexKey(), slot)
	if _, err := pipe.Exec(ctx); err != nil {
		return storage.SlotInfo{}, fmt.Errorf("saving slot %q: %w", slot, err)
	}
	s.logger.Debug("slot saved", zap.String("slot", slot), zap.String("id", rec.ID))
	return rec.SlotInfo, nil
}

func (s *Store) get(ctx context.Context, slot string) (storage.Record, error) {
	if err := storage.ValidateSlot(slot); err != nil {
		return storage.Record{}, err
	}
	data, err := s.client.Get(ctx, s.key(slot)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return storage.Record{}, fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	if err != nil {
		return storage.Record{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return storage.Record{}, fmt.Errorf("decoding slot %q: %w", slot, err)
	}
	return rec, nil
}

// Load implements storage.Store.
func (s *Store) Load(ctx context.Context, slot string) (session.Snapshot, error) {
	rec, err := s.get(ctx, slot)
	if err != nil {
		return session.Snapshot{}, err
	}
	return rec.Snapshot, nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, slot string) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	del := pipe.Del(ctx, s.key(slot))
	pipe.SRem(ctx, s.indexKey(), slot)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	return nil
}

// List implements storage.Store. Index entries whose save has expired are
// pruned from the index.
func (s *Store) List(ctx context.Context) ([]storage.SlotInfo, error) {
	slots, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}

	infos := make([]*storage.SlotInfo, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range slots {
		g.Go(func() error {
			rec, err := s.get(gctx, slot)
			if errors.Is(err, storage.ErrSlotNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			infos[i] = &rec.SlotInfo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]storage.SlotInfo, 0, len(infos))
	var stale []any
	for i, info := range infos {
		if info == nil {
			stale = append(stale, slots[i])
			continue
		}
		out = append(out, *info)
	}
	if len(stale) > 0 {
		if err := s.client.SRem(ctx, s.indexKey(), stale...).Err(); err != nil {
			s.logger.Warn("pruning expired slots failed", zap.Error(err))
		}
	}
	storage.SortSlots(out)
	return out, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
