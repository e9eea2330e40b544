package assets

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	root := t.TempDir()
	work := filepath.Join(root, "saved_faces")
	asset := filepath.Join(root, "assets")
	return NewStore(work, asset), work, asset
}

func TestStore_SaveWritesBothCopies(t *testing.T) {
	s, work, asset := newTestStore(t)

	path, err := s.Save([]byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, asset, filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "face_"))
	assert.True(t, strings.HasSuffix(base, ".png"))

	for _, p := range []string{path, filepath.Join(work, base)} {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	}
}

func TestStore_SaveUsesUniqueNames(t *testing.T) {
	s, _, _ := newTestStore(t)

	a, err := s.Save([]byte("a"))
	require.NoError(t, err)
	b, err := s.Save([]byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestStore_Remove(t *testing.T) {
	s, work, _ := newTestStore(t)

	path, err := s.Save([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(path))

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(work, filepath.Base(path)))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestStore_RemoveMissingIsNotAnError(t *testing.T) {
	s, _, asset := newTestStore(t)

	assert.NoError(t, s.Remove(filepath.Join(asset, "face_missing.png")))
	assert.NoError(t, s.Remove(""))
}

func TestStore_RemoveReportsFailure(t *testing.T) {
	s, _, asset := newTestStore(t)

	// a non-empty directory in place of the file cannot be removed
	blocker := filepath.Join(asset, "face_dir.png")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "child"), 0o755))

	assert.Error(t, s.Remove(blocker))
}

func TestStore_Open(t *testing.T) {
	s, _, _ := newTestStore(t)

	path, err := s.Save([]byte("image"))
	require.NoError(t, err)

	f, err := s.Open(path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))

	_, err = s.Open("/etc/passwd")
	assert.ErrorIs(t, err, fs.ErrPermission)
}
