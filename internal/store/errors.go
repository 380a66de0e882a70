package store

import (
	"errors"

	"github.com/erazemk/inventar/internal/photos"
)

// Failure kinds returned by the store. Match them with errors.Is; the
// returned errors carry extra context.
var (
	// ErrValidation marks client input the store refuses (blank name,
	// missing or non-image upload).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an id that does not resolve to an item, or an item
	// without a photo when a photo was asked for.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks a failure reading or writing the collection file.
	// The operation had no effect.
	ErrStorage = errors.New("storage failure")

	ErrUpload       = photos.ErrUpload
	ErrAssetMissing = photos.ErrAssetMissing
)
