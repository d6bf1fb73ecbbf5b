package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/swapboard/internal/filex"
)

// LocalBackend stores images as files in a single directory that the web
// layer serves under urlPrefix.
type LocalBackend struct {
	dir       string
	urlPrefix string
}

// NewLocalBackend creates dir if needed.
func NewLocalBackend(dir, urlPrefix string) (*LocalBackend, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalBackend{dir: abs, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (b *LocalBackend) URL(name string) string {
	return b.urlPrefix + "/" + url.PathEscape(name)
}

// Dir is the absolute upload directory, for static serving.
func (b *LocalBackend) Dir() string {
	return b.dir
}

func (b *LocalBackend) Put(_ context.Context, name string, r io.Reader, _ int64) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	path := filepath.Join(b.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
