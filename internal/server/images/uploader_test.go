package images

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultExts = []string{"png", "jpg", "jpeg", "gif"}

func newLocalUploader(t *testing.T) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	b, err := NewLocalBackend(dir, "/static/uploads/")
	require.NoError(t, err)
	return NewUploader(b, defaultExts), dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range es {
		names = append(names, e.Name())
	}
	return names
}

func TestAllowed(t *testing.T) {
	u := NewUploader(nil, defaultExts)

	tests := []struct {
		name    string
		wantExt string
		wantOK  bool
	}{
		{"photo.png", "png", true},
		{"PHOTO.JPG", "jpg", true},
		{"archive.tar.gif", "gif", true},
		{"pic.jpeg", "jpeg", true},
		{".png", "png", true},
		{"photo", "", false},
		{"photo.", "", false},
		{"photo.bmp", "bmp", false},
		{"photo.png.exe", "exe", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := u.Allowed(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantExt, ext)
			}
		})
	}
}

func TestStoredName_Format(t *testing.T) {
	at := time.Unix(1700000000, 123)
	name := StoredName("cat.PNG", at, "png")

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}\.png$`), name)
	assert.Equal(t, name, StoredName("cat.PNG", at, "png"), "deterministic for the same inputs")
	assert.NotEqual(t, name, StoredName("cat.PNG", at.Add(time.Nanosecond), "png"))
	assert.NotEqual(t, name, StoredName("dog.PNG", at, "png"))
}

func TestStore_WritesFileAndReturnsName(t *testing.T) {
	u, dir := newLocalUploader(t)
	content := []byte("\x89PNG fake bytes")

	name, err := u.Store(context.Background(), fileHeader(t, "Shoe.PNG", content))
	require.NoError(t, err)
	require.NotNil(t, name)
	assert.Regexp(t, `^[0-9a-f]{64}\.png$`, *name)

	got, err := os.ReadFile(filepath.Join(dir, *name))
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, "/static/uploads/"+*name, u.URL(*name))
}

func TestStore_RejectedInputsWriteNothing(t *testing.T) {
	for _, filename := range []string{"notes.txt", "noext", "trailingdot.", "evil.php"} {
		t.Run(filename, func(t *testing.T) {
			u, dir := newLocalUploader(t)

			name, err := u.Store(context.Background(), fileHeader(t, filename, []byte("data")))
			require.NoError(t, err)
			assert.Nil(t, name)
			assert.Empty(t, dirEntries(t, dir))
		})
	}
}

func TestStore_NilFile(t *testing.T) {
	u, dir := newLocalUploader(t)

	name, err := u.Store(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, name)
	assert.Empty(t, dirEntries(t, dir))
}

func TestStore_SameNameTwiceGivesDistinctFiles(t *testing.T) {
	u, dir := newLocalUploader(t)
	fixed := time.Unix(1700000000, 0)
	u.now = func() time.Time { return fixed }

	first, err := u.Store(context.Background(), fileHeader(t, "same.jpg", []byte("one")))
	require.NoError(t, err)
	second, err := u.Store(context.Background(), fileHeader(t, "same.jpg", []byte("two")))
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEqual(t, *first, *second)
	assert.Len(t, dirEntries(t, dir), 2)

	b1, err := os.ReadFile(filepath.Join(dir, *first))
	require.NoError(t, err)
	b2, err := os.ReadFile(filepath.Join(dir, *second))
	require.NoError(t, err)
	assert.Equal(t, "one", string(b1), "first upload is not overwritten")
	assert.Equal(t, "two", string(b2))
}

func TestStore_SameNameWithRealClock(t *testing.T) {
	u, _ := newLocalUploader(t)

	first, err := u.Store(context.Background(), fileHeader(t, "same.gif", []byte("a")))
	require.NoError(t, err)
	second, err := u.Store(context.Background(), fileHeader(t, "same.gif", []byte("b")))
	require.NoError(t, err)

	assert.NotEqual(t, *first, *second)
}

type failingBackend struct {
	err   error
	calls int
}

func (f *failingBackend) Put(context.Context, string, io.Reader, int64) error {
	f.calls++
	return f.err
}

func (f *failingBackend) URL(name string) string { return name }

func TestStore_BackendErrorPropagates(t *testing.T) {
	b := &failingBackend{err: errors.New("disk full")}
	u := NewUploader(b, defaultExts)

	name, err := u.Store(context.Background(), fileHeader(t, "a.png", []byte("x")))
	require.Error(t, err)
	assert.Nil(t, name)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, b.calls, "no retry on write failure")
}

func TestStore_GivesUpAfterRepeatedCollisions(t *testing.T) {
	b := &failingBackend{err: ErrExists}
	u := NewUploader(b, defaultExts)

	_, err := u.Store(context.Background(), fileHeader(t, "a.png", []byte("x")))
	require.ErrorIs(t, err, ErrExists)
	assert.Equal(t, maxNameAttempts, b.calls)
}
