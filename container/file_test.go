package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/vfs"
)

func TestFileBackend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "store.vfs")
	b := NewFileBackend(path, 0o600)
	assert.Equal(t, path, b.Path())

	exists, err := b.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = b.ReadContainer()
	var ioErr *vfs.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, b.WriteContainer([]byte("first")))
	require.NoError(t, b.WriteContainer([]byte("second")))

	exists, err = b.Exists()
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := b.ReadContainer()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileBackend_WriteFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "store.vfs")
	b := NewFileBackend(path, 0o600)
	require.NoError(t, b.WriteContainer([]byte("good")))

	// a directory at the target makes the final rename fail
	blocked := NewFileBackend(dir, 0o600)
	err := blocked.WriteContainer([]byte("bad"))
	var ioErr *vfs.IOError
	require.ErrorAs(t, err, &ioErr)

	got, err := b.ReadContainer()
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), got)
}
