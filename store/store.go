// Package store ties a node tree to its persisted container. A Store embeds
// the tree, so every tree operation is available on it directly, and adds
// save/load through the change gate plus host import/export.
package store

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/container"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/internal/metrics"
	"github.com/brettbedarf/vfs/internal/util"
)

// Store is not safe for concurrent use. Callers sharing one must serialize
// access themselves.
type Store struct {
	*filesystem.FileSystem
	cfg     *config.Config
	backend vfs.Backend
	host    afero.Fs
	gate    *container.Gate
	metrics *metrics.Metrics
	path    string // registry key, set by Open
}

type Option func(*Store)

// WithHostFs sets the host file system used by import and export.
// The default is the OS file system.
func WithHostFs(host afero.Fs) Option {
	return func(s *Store) {
		s.host = host
	}
}

// WithMetrics sets the counters updated by Save and Load
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates a Store with an empty tree persisted through backend.
// Nothing is read until [Store.Load] is called.
func New(backend vfs.Backend, cfg *config.Config, opts ...Option) *Store {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	s := &Store{
		FileSystem: filesystem.NewFS(cfg),
		cfg:        cfg,
		backend:    backend,
		host:       afero.NewOsFs(),
		gate:       container.NewGate(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	return s
}

// Backend returns the backend the container is persisted through
func (s *Store) Backend() vfs.Backend {
	return s.backend
}

// Save encodes the tree and writes it if it differs from what was last
// written or loaded. It reports whether a write happened.
func (s *Store) Save() (bool, error) {
	logger := util.GetLogger("Store.Save")

	data, err := container.Encode(s.Root())
	if err != nil {
		return false, err
	}
	if !s.gate.ShouldWrite(data) {
		logger.Debug().Str("digest", s.gate.Digest()).Msg("Container unchanged, skipping write")
		s.metrics.IncSavesSkipped()
		return false, nil
	}
	if err := s.backend.WriteContainer(data); err != nil {
		logger.Error().Err(err).Msg("Failed to write container")
		return false, err
	}
	s.gate.Record(data)
	s.metrics.IncSaves(len(data))
	logger.Info().Int("bytes", len(data)).Str("digest", s.gate.Digest()).Msg("Saved container")
	return true, nil
}

// Load replaces the tree with the persisted container. The current tree is
// kept if reading or decoding fails.
func (s *Store) Load() error {
	logger := util.GetLogger("Store.Load")

	data, err := s.backend.ReadContainer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read container")
		return err
	}
	fs, err := container.Decode(data, s.cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to decode container")
		return err
	}
	s.SetRoot(fs.Root())
	s.gate.Record(data)
	s.metrics.IncLoads()
	logger.Info().Int("bytes", len(data)).Str("digest", s.gate.Digest()).Msg("Loaded container")
	return nil
}

// splitDest validates an absolute destination path and returns its final component
func splitDest(dest string) (string, error) {
	if !strings.HasPrefix(dest, filesystem.Separator) {
		return "", fmt.Errorf("%w: %q is not absolute", vfs.ErrInvalidName, dest)
	}
	name := dest[strings.LastIndex(dest, filesystem.Separator)+1:]
	if err := filesystem.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// ImportBytes creates a file at dest holding a copy of data, creating missing
// parent directories. Nothing changes if a node already exists at dest.
func (s *Store) ImportBytes(data []byte, dest string) (*filesystem.File, error) {
	logger := util.GetLogger("Store.ImportBytes")

	name, err := splitDest(dest)
	if err != nil {
		return nil, err
	}
	if s.Resolve(dest) != nil {
		logger.Warn().Str("dest", dest).Msg("Destination already exists")
		return nil, fmt.Errorf("%w: %s", vfs.ErrDuplicateName, dest)
	}
	parent, err := s.CreateParents(dest)
	if err != nil {
		return nil, err
	}
	f, err := s.NewFile(parent, name)
	if err != nil {
		return nil, err
	}
	f.SetData(data)
	logger.Debug().Str("dest", f.Path()).Int("bytes", len(data)).Msg("Imported")
	return f, nil
}

// ImportFile reads hostPath from the host file system into a new file at dest
func (s *Store) ImportFile(hostPath, dest string) (*filesystem.File, error) {
	data, err := afero.ReadFile(s.host, hostPath)
	if err != nil {
		return nil, vfs.NewIOError("read", hostPath, err)
	}
	return s.ImportBytes(data, dest)
}

// ExportFile writes f's payload to hostPath. An existing destination is only
// replaced when overwrite is set, and a directory is never replaced.
func (s *Store) ExportFile(f *filesystem.File, hostPath string, overwrite bool) error {
	logger := util.GetLogger("Store.ExportFile")

	info, err := s.host.Stat(hostPath)
	switch {
	case err == nil && info.IsDir():
		return fmt.Errorf("%w: %s", vfs.ErrIsDirectory, hostPath)
	case err == nil && !overwrite:
		logger.Warn().Str("dest", hostPath).Msg("Destination exists and overwrite is off")
		return fmt.Errorf("%w: %s", vfs.ErrExists, hostPath)
	case err != nil && !errors.Is(err, iofs.ErrNotExist):
		return vfs.NewIOError("stat", hostPath, err)
	}

	if err := afero.WriteFile(s.host, hostPath, f.Data(), os.FileMode(s.cfg.ExportPerms)); err != nil {
		return vfs.NewIOError("write", hostPath, err)
	}
	logger.Debug().Str("src", f.Path()).Str("dest", hostPath).Int64("bytes", f.Size()).Msg("Exported")
	return nil
}

// Apply creates the directories and files a manifest describes. A failing
// request does not stop the rest; all failures are returned together.
func (s *Store) Apply(ctx context.Context, m *vfs.Manifest) error {
	logger := util.GetLogger("Store.Apply")

	var errs error
	dirCnt, fileCnt := 0, 0
	for _, req := range m.Dirs {
		if _, err := s.MkdirAll(req.Path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", req.Path, err))
			continue
		}
		dirCnt++
	}
	for _, req := range m.Files {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := s.applyFile(ctx, req); err != nil {
			logger.Debug().Err(err).Str("path", req.Path).Msg("Failed to add file request")
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", req.Path, err))
			continue
		}
		fileCnt++
	}
	logger.Info().Int("directories", dirCnt).Int("files", fileCnt).Msg("Applied manifest")
	return errs
}

func (s *Store) applyFile(ctx context.Context, req *vfs.FileCreateRequest) error {
	if _, err := splitDest(req.Path); err != nil {
		return err
	}
	if s.Resolve(req.Path) != nil {
		return vfs.ErrDuplicateName
	}
	data, err := s.fetch(ctx, req.Sources)
	if err != nil {
		return err
	}
	f, err := s.ImportBytes(data, req.Path)
	if err != nil {
		return err
	}
	for k, v := range req.Meta {
		f.SetMeta(k, v)
	}
	return nil
}

// fetch tries sources in priority order and returns the first payload
// retrieved. No sources means an empty file.
func (s *Store) fetch(ctx context.Context, sources []vfs.FileSource) ([]byte, error) {
	logger := util.GetLogger("Store.fetch")

	ordered := slices.Clone(sources)
	slices.SortStableFunc(ordered, func(a, b vfs.FileSource) int {
		return a.Priority - b.Priority
	})

	var errs error
	for _, src := range ordered {
		data, err := s.fetchOne(ctx, src)
		if err == nil {
			return data, nil
		}
		logger.Debug().Err(err).Int("priority", src.Priority).Msg("Source failed, trying next")
		errs = multierr.Append(errs, err)
	}
	return nil, errs
}

func (s *Store) fetchOne(ctx context.Context, src vfs.FileSource) ([]byte, error) {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.FetchTimeout*float64(time.Second)))
		defer cancel()
	}
	return src.Fetch(ctx)
}
