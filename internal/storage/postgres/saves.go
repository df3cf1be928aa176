package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/storage"
)

// SaveRepository persists saves in the saves table as JSONB.
// The schema lives in the repository's migrations directory.
type SaveRepository struct {
	pool   *Pool
	opts   storage.Options
	logger *zap.Logger
}

var _ storage.Store = (*SaveRepository)(nil)

// NewSaveRepository returns a SaveRepository over pool. Record IDs must be UUIDs.
//
// Precondition: pool is non-nil and migrated.
func NewSaveRepository(pool *Pool, logger *zap.Logger, opts ...storage.Option) *SaveRepository {
	if pool == nil {
		panic("postgres.NewSaveRepository: pool must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaveRepository{pool: pool, opts: storage.NewOptions(opts...), logger: logger}
}

// Save implements storage.Store.
func (r *SaveRepository) Save(ctx context.Context, slot string, snap session.Snapshot) (storage.SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.SlotInfo{}, err
	}
	rec, err := r.opts.NewRecord(slot, snap)
	if err != nil {
		return storage.SlotInfo{}, err
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("save id %q: %w", rec.ID, err)
	}
	data, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("encoding slot %q: %w", slot, err)
	}
	_, err = r.pool.DB().Exec(ctx, `
		INSERT INTO saves (slot, id, saved_at, game_time, snapshot)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slot) DO UPDATE SET
			id = EXCLUDED.id,
			saved_at = EXCLUDED.saved_at,
			game_time = EXCLUDED.game_time,
			snapshot = EXCLUDED.snapshot`,
		rec.Slot, id, rec.SavedAt, int64(rec.GameTime), data,
	)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("saving slot %q: %w", slot, err)
	}
	r.logger.Debug("slot saved", zap.String("slot", slot), zap.String("id", rec.ID))
	return rec.SlotInfo, nil
}

// Load implements storage.Store.
func (r *SaveRepository) Load(ctx context.Context, slot string) (session.Snapshot, error) {
	if err := storage.ValidateSlot(slot); err != nil {
		return session.Snapshot{}, err
	}
	var data []byte
	err := r.pool.DB().QueryRow(ctx, `SELECT snapshot FROM saves WHERE slot = $1`, slot).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Snapshot{}, fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("decoding slot %q: %w", slot, err)
	}
	return snap, nil
}

// Delete implements storage.Store.
func (r *SaveRepository) Delete(ctx context.Context, slot string) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}
	tag, err := r.pool.DB().Exec(ctx, `DELETE FROM saves WHERE slot = $1`, slot)
	if err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	return nil
}

// List implements storage.Store.
func (r *SaveRepository) List(ctx context.Context) ([]storage.SlotInfo, error) {
	rows, err := r.pool.DB().Query(ctx, `SELECT slot, id, saved_at, game_time FROM saves ORDER BY slot COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []storage.SlotInfo
	for rows.Next() {
		var (
			info     storage.SlotInfo
			id       uuid.UUID
			savedAt  time.Time
			gameTime int64
		)
		if err := rows.Scan(&info.Slot, &id, &savedAt, &gameTime); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		info.ID = id.String()
		info.SavedAt = savedAt.UTC()
		info.GameTime = time.Duration(gameTime)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (r *SaveRepository) Close() error {
	r.pool.Close()
	return nil
}
