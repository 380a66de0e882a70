package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/erazemk/inventar/internal/photos"
)

// multipartMemory is how much of a multipart body is held in memory before
// net/http spills parts to disk.
const multipartMemory = 1 << 20

// errUploadTooLarge is returned when the request body exceeds the limit.
var errUploadTooLarge = errors.New("upload too large")

// parseMultipart limits and parses a multipart form.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errUploadTooLarge
		}
		return fmt.Errorf("invalid multipart form: %w", err)
	}
	return nil
}

// multipartError writes the response for a parseMultipart failure.
func multipartError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	jsonError(w, http.StatusBadRequest, "invalid multipart form")
}

// saveUpload copies the file part named field into a temporary file in
// dir, so the store only ever sees a fully materialized file. It returns a
// nil upload when the part is absent or empty. The returned cleanup
// removes the temporary file and is always safe to call.
func saveUpload(r *http.Request, field, dir string) (*photos.Upload, func(), error) {
	noop := func() {}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	if header.Size == 0 && header.Filename == "" {
		return nil, noop, nil
	}

	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return nil, noop, fmt.Errorf("creating upload file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		cleanup()
		return nil, noop, fmt.Errorf("writing upload file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("closing upload file: %w", err)
	}

	return &photos.Upload{Path: tmp.Name(), Filename: header.Filename}, cleanup, nil
}
