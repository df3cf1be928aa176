package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rpgworld/internal/game/session"
)

const saveExt = ".yaml"

// FileStore keeps one YAML file per slot in a directory.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	opts   Options
	logger *zap.Logger
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
//
// Precondition: dir is non-empty.
func NewFileStore(dir string, logger *zap.Logger, opts ...Option) (*FileStore, error) {
	if dir == "" {
		panic("storage.NewFileStore: dir must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating save dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, opts: NewOptions(opts...), logger: logger}, nil
}

func (f *FileStore) path(slot string) string {
	return filepath.Join(f.dir, slot+saveExt)
}

// Save implements Store. The file is written to a temporary name and renamed
// into place.
func (f *FileStore) Save(ctx context.Context, slot string, snap session.Snapshot) (SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return SlotInfo{}, err
	}
	rec, err := f.opts.NewRecord(slot, snap)
	if err != nil {
		return SlotInfo{}, err
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return SlotInfo{}, fmt.Errorf("encoding slot %q: %w", slot, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	tmp, err := os.CreateTemp(f.dir, "."+slot+"-*")
	if err != nil {
		return SlotInfo{}, fmt.Errorf("writing slot %q: %w", slot, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return SlotInfo{}, fmt.Errorf("writing slot %q: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return SlotInfo{}, fmt.Errorf("writing slot %q: %w", slot, err)
	}
	if err := os.Rename(tmp.Name(), f.path(slot)); err != nil {
		_ = os.Remove(tmp.Name())
		return SlotInfo{}, fmt.Errorf("writing slot %q: %w", slot, err)
	}
	f.logger.Debug("slot saved", zap.String("slot", slot), zap.String("id", rec.ID))
	return rec.SlotInfo, nil
}

func (f *FileStore) read(slot string) (Record, error) {
	if err := ValidateSlot(slot); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(f.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, fmt.Errorf("slot %q: %w", slot, ErrSlotNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("reading slot %q: %w", slot, err)
	}
	var rec Record
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decoding slot %q: %w", slot, err)
	}
	return rec, nil
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context, slot string) (session.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return session.Snapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, err := f.read(slot)
	if err != nil {
		return session.Snapshot{}, err
	}
	return rec.Snapshot, nil
}

// Delete implements Store.
func (f *FileStore) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("slot %q: %w", slot, ErrSlotNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting slot %q: %w", slot, err)
	}
	return nil
}

// List implements Store. Files that fail to decode are skipped with a warning.
func (f *FileStore) List(ctx context.Context) ([]SlotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading save dir %s: %w", f.dir, err)
	}
	var out []SlotInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, saveExt) {
			continue
		}
		rec, err := f.read(strings.TrimSuffix(name, saveExt))
		if err != nil {
			f.logger.Warn("skipping unreadable save", zap.String("file", name), zap.Error(err))
			continue
		}
		out = append(out, rec.SlotInfo)
	}
	SortSlots(out)
	return out, nil
}

// Close implements Store.
func (f *FileStore) Close() error { return nil }
