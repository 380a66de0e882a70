// Package store owns the inventory collection: a single JSON document on
// disk that is the only source of truth for items. Every mutation reads the
// whole document, changes it in memory and atomically replaces the file,
// all inside one critical section. Nothing is cached between calls.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/erazemk/inventar/internal/atomicfile"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/photos"
)

// Recorder receives an event after every successful mutation.
type Recorder interface {
	Record(ctx context.Context, e model.Event) error
}

// Store is the inventory store. It is safe for concurrent use.
type Store struct {
	path     string
	assets   *photos.Manager
	recorder Recorder

	// mu serializes mutations; readers share it so they never load a
	// snapshot while a mutation is between its read and write phases.
	// Photo intake happens before it is taken.
	mu sync.RWMutex

	// write replaces the collection file; tests swap it to inject failures.
	write func(path string, r io.Reader, perm os.FileMode) error
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder reports mutations to r. Recorder failures are logged and
// never fail the mutation.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// Open opens the collection file at path, creating an empty collection if
// it does not exist, and removes photo assets no item references.
func Open(path string, assets *photos.Manager, opts ...Option) (*Store, error) {
	s := &Store{path: path, assets: assets, write: atomicfile.Write}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", ErrStorage, err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := s.save(&model.Collection{Items: []model.Item{}}); err != nil {
			return nil, err
		}
		slog.Info("collection initialized", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("%w: checking collection file: %v", ErrStorage, err)
	}

	c, err := s.load()
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		if item.HasPhoto() {
			referenced[item.Photo] = true
		}
	}
	removed, err := assets.Sweep(func(name string) bool { return referenced[name] })
	if err != nil {
		slog.Warn("failed to sweep orphaned photos", "error", err)
	} else if removed > 0 {
		slog.Info("orphaned photos removed", "count", removed)
	}

	return s, nil
}

// load reads the full collection from disk.
func (s *Store) load() (*model.Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading collection: %v", ErrStorage, err)
	}

	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: decoding collection: %v", ErrStorage, err)
	}
	if c.Items == nil {
		c.Items = []model.Item{}
	}
	return &c, nil
}

// save atomically replaces the collection file.
func (s *Store) save(c *model.Collection) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding collection: %v", ErrStorage, err)
	}
	if err := s.write(s.path, bytes.NewReader(data), 0o644); err != nil {
		return fmt.Errorf("%w: writing collection: %v", ErrStorage, err)
	}
	return nil
}

// record forwards a successful mutation to the recorder, if any. The
// mutation is already committed, so the event outlives a cancelled request.
func (s *Store) record(ctx context.Context, action string, item model.Item) {
	if s.recorder == nil {
		return
	}
	e := model.Event{ItemID: item.ID, Action: action, Name: item.Name, Photo: item.Photo}
	if err := s.recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("failed to record item event", "item", item.ID, "action", action, "error", err)
	}
}

// discard removes an asset that was stored but never committed.
func (s *Store) discard(name string) {
	if name == "" {
		return
	}
	if err := s.assets.Remove(name); err != nil {
		slog.Warn("failed to discard uncommitted photo", "photo", name, "error", err)
	}
}

// storePhoto persists an upload, mapping content rejections to
// ErrValidation. It must be called without holding mu.
func (s *Store) storePhoto(upload photos.Upload) (string, error) {
	name, err := s.assets.Store(upload)
	if err != nil {
		if errors.Is(err, photos.ErrUpload) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return name, nil
}
