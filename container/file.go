package container

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/facebookgo/atomicfile"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/internal/util"
)

// FileBackend keeps a container in a single host file. Writes go to a temp
// file in the same directory which is renamed over the target on success.
type FileBackend struct {
	path string
	perm os.FileMode
}

var _ vfs.Backend = (*FileBackend)(nil)

func NewFileBackend(path string, perm os.FileMode) *FileBackend {
	return &FileBackend{path: path, perm: perm}
}

// Path returns the host path of the container
func (b *FileBackend) Path() string {
	return b.path
}

// Exists reports whether the container file is present on the host
func (b *FileBackend) Exists() (bool, error) {
	_, err := os.Stat(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, vfs.NewIOError("stat", b.path, err)
	}
	return true, nil
}

func (b *FileBackend) ReadContainer() ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, vfs.NewIOError("read", b.path, err)
	}
	return data, nil
}

func (b *FileBackend) WriteContainer(data []byte) error {
	logger := util.GetLogger("FileBackend.WriteContainer")

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return vfs.NewIOError("mkdir", dir, err)
		}
	}
	f, err := atomicfile.New(b.path, b.perm)
	if err != nil {
		return vfs.NewIOError("create", b.path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Abort()
		return vfs.NewIOError("write", b.path, err)
	}
	if err := f.Close(); err != nil {
		_ = f.Abort()
		return vfs.NewIOError("rename", b.path, err)
	}
	logger.Debug().Str("path", b.path).Int("bytes", len(data)).Msg("Wrote container")
	return nil
}
