// Package images is the Upload Handler: it decides whether an uploaded file
// is an acceptable image, derives a collision-resistant name for it and hands
// the bytes to a storage Backend.
package images

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"
)

// ErrExists is returned by a Backend when the target name is already taken.
var ErrExists = errors.New("image already exists")

// maxNameAttempts bounds the retries on a name collision.
const maxNameAttempts = 5

// Backend persists image bytes under a flat file name.
type Backend interface {
	// Put writes r under name. It must not overwrite: an existing name
	// yields ErrExists.
	Put(ctx context.Context, name string, r io.Reader, size int64) error

	// URL is where a browser can fetch the stored image.
	URL(name string) string
}

// Uploader validates and stores uploaded images.
type Uploader struct {
	backend Backend
	allowed map[string]struct{}
	now     func() time.Time
}

// NewUploader builds an Uploader accepting the given lower-case extensions.
func NewUploader(backend Backend, extensions []string) *Uploader {
	allowed := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		allowed[strings.ToLower(e)] = struct{}{}
	}
	return &Uploader{backend: backend, allowed: allowed, now: time.Now}
}

// Allowed reports whether filename carries an accepted extension and returns
// it lower-cased. The extension is everything after the last '.'.
func (u *Uploader) Allowed(filename string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	_, ok := u.allowed[ext]
	return ext, ok
}

// StoredName derives the stored file name from the original name and a
// timestamp: lowercase hex SHA-256 of both, plus the extension.
func StoredName(original string, at time.Time, ext string) string {
	sum := sha256.Sum256([]byte(original + strconv.FormatInt(at.UnixNano(), 10)))
	return hex.EncodeToString(sum[:]) + "." + ext
}

// URL resolves a stored name through the backend.
func (u *Uploader) URL(name string) string {
	return u.backend.URL(name)
}

// Store persists fh and returns the stored file name. A missing file or a
// name without an accepted extension returns (nil, nil) and writes nothing.
// Backend failures are returned as is.
func (u *Uploader) Store(ctx context.Context, fh *multipart.FileHeader) (*string, error) {
	if fh == nil || fh.Filename == "" {
		return nil, nil
	}

	ext, ok := u.Allowed(fh.Filename)
	if !ok {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	at := u.now()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := StoredName(fh.Filename, at, ext)

		err := u.backend.Put(ctx, name, f, fh.Size)
		if err == nil {
			return &name, nil
		}
		if !errors.Is(err, ErrExists) {
			return nil, fmt.Errorf("store image: %w", err)
		}

		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind upload: %w", err)
		}
		if next := u.now(); next.After(at) {
			at = next
		} else {
			at = at.Add(time.Nanosecond)
		}
	}

	return nil, fmt.Errorf("store image: %w", ErrExists)
}
