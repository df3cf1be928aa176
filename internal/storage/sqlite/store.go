// Package sqlite provides a SQLite-backed save store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
	"github.com/cory-johannsen/rpgworld/internal/storage"
	"github.com/cory-johannsen/rpgworld/internal/storage/sqlite/migrations"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Store persists saves in a SQLite database.
type Store struct {
	db     *sql.DB
	opts   storage.Options
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at path and applies embedded migrations.
//
// Precondition: path is non-empty; ":memory:" is not supported across connections.
// Postcondition: Returns a migrated Store or a non-nil error.
func Open(ctx context.Context, path string, logger *zap.Logger, opts ...storage.Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("sqlite save store opened", zap.String("path", path))
	return &Store{db: db, opts: storage.NewOptions(opts...), logger: logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Save implements storage.Store.
func (s *Store) Save(ctx context.Context, slot string, snap session.Snapshot) (storage.SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.SlotInfo{}, err
	}
	rec, err := s.opts.NewRecord(slot, snap)
	if err != nil {
		return storage.SlotInfo{}, err
	}
	data, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("encoding slot %q: %w", slot, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, id, saved_at, game_time, snapshot)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			saved_at = excluded.saved_at,
			game_time = excluded.game_time,
			snapshot = excluded.snapshot`,
		rec.Slot, rec.ID, rec.SavedAt.UnixMilli(), int64(rec.GameTime), string(data),
	)
	if err != nil {
		return storage.SlotInfo{}, fmt.Errorf("saving slot %q: %w", slot, err)
	}
	s.logger.Debug("slot saved", zap.String("slot", slot), zap.String("id", rec.ID))
	return rec.SlotInfo, nil
}

// Load implements storage.Store.
func (s *Store) Load(ctx context.Context, slot string) (session.Snapshot, error) {
	if err := storage.ValidateSlot(slot); err != nil {
		return session.Snapshot{}, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM saves WHERE slot = ?`, slot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("loading slot %q: %w", slot, err)
	}
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("decoding slot %q: %w", slot, err)
	}
	return snap, nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, slot string) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	if err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	if n == 0 {
		return fmt.Errorf("slot %q: %w", slot, storage.ErrSlotNotFound)
	}
	return nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context) ([]storage.SlotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slot, id, saved_at, game_time FROM saves ORDER BY slot COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	defer rows.Close()

	var out []storage.SlotInfo
	for rows.Next() {
		var (
			info     storage.SlotInfo
			savedAt  int64
			gameTime int64
		)
		if err := rows.Scan(&info.Slot, &info.ID, &savedAt, &gameTime); err != nil {
			return nil, fmt.Errorf("scanning save row: %w", err)
		}
		info.SavedAt = time.UnixMilli(savedAt).UTC()
		info.GameTime = time.Duration(gameTime)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing saves: %w", err)
	}
	return out, nil
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
