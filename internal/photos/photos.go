// Package photos manages the photo files that inventory items point at.
// Assets are named independently of item ids, so replacing a photo never
// needs a rename; the item record is the only place the mapping lives.
package photos

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/atomicfile"
	"github.com/erazemk/inventar/internal/imaging"
)

var (
	// ErrUpload is returned when an uploaded file cannot be persisted.
	ErrUpload = errors.New("storing upload failed")
	// ErrAssetMissing is returned when a referenced asset cannot be opened.
	ErrAssetMissing = errors.New("photo asset missing")
)

// Upload is an uploaded file already materialized on disk by the transport
// layer.
type Upload struct {
	// Path is the temporary file holding the uploaded bytes.
	Path string
	// Filename is the name the client sent; only its extension is kept.
	Filename string
}

// Photo is an opened asset. Callers must close Content.
type Photo struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReadSeekCloser
}

// Manager stores, opens and removes photo assets in a single directory.
type Manager struct {
	dir          string
	requireImage bool
	maxDimension int
	maxPixels    int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithRequireImage rejects uploads that are not JPEG, PNG or WebP images.
func WithRequireImage(require bool) Option {
	return func(m *Manager) { m.requireImage = require }
}

// WithMaxDimension downscales JPEG and PNG uploads larger than n pixels on
// either side. Zero disables downscaling.
func WithMaxDimension(n int) Option {
	return func(m *Manager) { m.maxDimension = n }
}

// WithMaxPixels rejects images declaring more than n pixels before they
// are decoded. Zero disables the limit.
func WithMaxPixels(n int64) Option {
	return func(m *Manager) { m.maxPixels = n }
}

// New creates the asset directory if needed and returns a Manager for it.
func New(dir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}
	m := &Manager{dir: dir, maxPixels: imaging.DefaultMaxPixels}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the asset directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Store persists the upload under a fresh extension-preserving name and
// returns that name. It never touches any item.
func (m *Manager) Store(upload Upload) (string, error) {
	src, err := os.Open(upload.Path)
	if err != nil {
		return "", fmt.Errorf("%w: opening upload: %v", ErrUpload, err)
	}
	defer src.Close()

	var body io.Reader = src
	ext := strings.ToLower(filepath.Ext(upload.Filename))

	if m.requireImage || m.maxDimension > 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return "", fmt.Errorf("%w: reading upload: %v", ErrUpload, err)
		}

		info, err := imaging.Inspect(data)
		if err == nil {
			err = info.CheckPixels(m.maxPixels)
		}
		switch {
		case errors.Is(err, imaging.ErrTooLarge), err != nil && m.requireImage:
			return "", err
		case err == nil:
			shrunk, changed, err := imaging.Shrink(data, info, m.maxDimension)
			if err != nil {
				return "", contentError(err)
			}
			if changed {
				slog.Info("photo downscaled", "from", fmt.Sprintf("%dx%d", info.Width, info.Height), "max", m.maxDimension)
			} else if m.requireImage {
				// The header alone does not prove the rest of the file is intact.
				if _, err := imaging.Decode(data); err != nil {
					return "", err
				}
			}
			data = shrunk
			if ext == "" {
				ext = imaging.Extension(info.MIME)
			}
		}
		body = bytes.NewReader(data)
	}

	if ext == "" {
		ext = ".jpg"
	}

	name := uuid.NewString() + ext
	if err := atomicfile.Write(filepath.Join(m.dir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return name, nil
}

// contentError keeps content rejections recognizable and reports anything
// else as an upload failure.
func contentError(err error) error {
	if errors.Is(err, imaging.ErrUnsupported) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUpload, err)
}

// Remove deletes an asset. An already absent asset counts as removed.
func (m *Manager) Remove(name string) error {
	path, ok := m.path(name)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing photo %s: %w", name, err)
	}
	return nil
}

// Open opens an asset for reading. The content type comes from the stored
// extension only.
func (m *Manager) Open(name string) (*Photo, error) {
	path, ok := m.path(name)
	if !ok {
		return nil, fmt.Errorf("%w: invalid asset name %q", ErrAssetMissing, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrAssetMissing, err)
	}

	return &Photo{
		Name:        name,
		ContentType: ContentType(name),
		Size:        st.Size(),
		ModTime:     st.ModTime(),
		Content:     f,
	}, nil
}

// Sweep removes every file in the asset directory for which keep returns
// false, including temp files left behind by interrupted writes. It must
// only run while no mutation is in flight. Returns the number removed.
func (m *Manager) Sweep(keep func(name string) bool) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("reading photo directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || keep(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing orphan %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// ContentType maps a stored asset name to its MIME type.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// path resolves an asset name inside the directory, refusing anything
// that is not a plain file name.
func (m *Manager) path(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(m.dir, name), true
}
