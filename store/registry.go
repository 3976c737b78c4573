package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/container"
	"github.com/brettbedarf/vfs/internal/util"
)

// openStores holds every Store opened by path in this process, keyed by
// absolute container path
var openStores = xsync.NewMap[string, *Store]()

// Open opens the container file at path. A missing file yields an empty tree
// that is created on the first Save. Only one Store per container path may be
// open at a time; a second Open fails with ErrContainerInUse until Close.
func Open(path string, cfg *config.Config, opts ...Option) (*Store, error) {
	logger := util.GetLogger("Store.Open")

	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, vfs.NewIOError("abs", path, err)
	}

	backend := container.NewFileBackend(abs, os.FileMode(cfg.ContainerPerms))
	s := New(backend, cfg, opts...)
	s.path = abs
	if _, loaded := openStores.LoadOrStore(abs, s); loaded {
		return nil, fmt.Errorf("%w: %s", vfs.ErrContainerInUse, abs)
	}

	exists, err := backend.Exists()
	if err == nil && exists {
		err = s.Load()
	}
	if err != nil {
		openStores.Delete(abs)
		return nil, err
	}
	logger.Debug().Str("path", abs).Bool("existed", exists).Msg("Opened container")
	return s, nil
}

// Path returns the container path the Store was opened with, or "" for a
// Store created with [New]
func (s *Store) Path() string {
	return s.path
}

// Close releases the container path for another Open. It does not save.
func (s *Store) Close() error {
	if s.path == "" {
		return nil
	}
	if cur, ok := openStores.Load(s.path); ok && cur == s {
		openStores.Delete(s.path)
	}
	logger := util.GetLogger("Store.Close")
	logger.Debug().Str("path", s.path).Msg("Closed container")
	return nil
}
