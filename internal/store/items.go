package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/photos"
)

// Create registers a new item. A non-nil upload is stored as the item's
// photo before the record is committed; if the commit fails the stored
// photo is removed again.
func (s *Store) Create(ctx context.Context, name, description string, upload *photos.Upload) (*model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	var photo string
	if upload != nil && upload.Path != "" {
		var err error
		if photo, err = s.storePhoto(*upload); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		s.discard(photo)
		return nil, err
	}

	item := model.Item{Name: name, Description: strings.TrimSpace(description), Photo: photo}
	item.ID = c.Allocate()
	c.Items = append(c.Items, item)
	if err := s.save(c); err != nil {
		s.discard(photo)
		return nil, err
	}

	s.record(ctx, model.ActionCreated, item)
	return &item, nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id int64) (*model.Item, error) {
	s.mu.RLock()
	c, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	i := c.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	item := c.Items[i]
	return &item, nil
}

// List returns all items in creation order.
func (s *Store) List(ctx context.Context) ([]model.Item, error) {
	s.mu.RLock()
	c, err := s.load()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return c.Items, nil
}

// Update applies a partial update. Only fields present in the patch are
// changed; an explicitly empty description clears it, an explicitly empty
// name is rejected.
func (s *Store) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}

	i := c.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	var name string
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
	}
	if patch.Empty() {
		item := c.Items[i]
		return &item, nil
	}

	if patch.Name != nil {
		c.Items[i].Name = name
	}
	if patch.Description != nil {
		c.Items[i].Description = strings.TrimSpace(*patch.Description)
	}

	if err := s.save(c); err != nil {
		return nil, err
	}

	item := c.Items[i]
	s.record(ctx, model.ActionUpdated, item)
	return &item, nil
}

// Delete removes an item and then its photo. Once the smaller collection is
// persisted the delete has happened; a failure removing the photo is only
// logged.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		return 0, err
	}

	i := c.Index(id)
	if i < 0 {
		return 0, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	item := c.Remove(i)

	if err := s.save(c); err != nil {
		return 0, err
	}

	if item.HasPhoto() {
		if err := s.assets.Remove(item.Photo); err != nil {
			slog.Warn("failed to remove photo of deleted item", "item", id, "photo", item.Photo, "error", err)
		}
	}

	s.record(ctx, model.ActionDeleted, item)
	return id, nil
}

// ReplacePhoto stores a new photo for an item. The previous photo is only
// removed after the new reference has been persisted, so the item always
// points at a readable file.
func (s *Store) ReplacePhoto(ctx context.Context, id int64, upload *photos.Upload) (*model.Item, error) {
	// Unknown ids are reported before the upload is looked at or stored.
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if upload == nil || upload.Path == "" {
		return nil, fmt.Errorf("%w: photo required", ErrValidation)
	}

	name, err := s.storePhoto(*upload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.load()
	if err != nil {
		s.discard(name)
		return nil, err
	}

	// The item may have been deleted while the photo was being stored.
	i := c.Index(id)
	if i < 0 {
		s.discard(name)
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}

	previous := c.Items[i].Photo
	c.Items[i].Photo = name
	if err := s.save(c); err != nil {
		s.discard(name)
		return nil, err
	}

	if previous != "" {
		if err := s.assets.Remove(previous); err != nil {
			slog.Warn("failed to remove replaced photo", "item", id, "photo", previous, "error", err)
		}
	}

	item := c.Items[i]
	s.record(ctx, model.ActionPhotoReplaced, item)
	return &item, nil
}

// GetPhoto opens the photo of an item. The caller must close the returned
// content. A reference to a file that cannot be opened is reported as
// ErrAssetMissing rather than repaired.
func (s *Store) GetPhoto(ctx context.Context, id int64) (*photos.Photo, error) {
	// The file is opened under the read lock so a concurrent replace cannot
	// remove it between lookup and open; streaming happens after release.
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := s.load()
	if err != nil {
		return nil, err
	}

	i := c.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	item := c.Items[i]
	if !item.HasPhoto() {
		return nil, fmt.Errorf("%w: item %d has no photo", ErrNotFound, id)
	}

	photo, err := s.assets.Open(item.Photo)
	if err != nil {
		return nil, fmt.Errorf("opening photo of item %d: %w", id, err)
	}
	return photo, nil
}
