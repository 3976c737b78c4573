// Package server mounts a read-only snapshot of a tree with FUSE
package server

import (
	"errors"
	"time"

	gofs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/internal/util"
)

// Server serves a snapshot of a directory tree over FUSE
type Server struct {
	cfg    *config.Config
	root   *rootNode
	server *fuse.Server
}

// New snapshots dir. Changes made to the tree afterwards are not visible
// through the mount.
func New(dir *filesystem.Directory, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	attrs := &attrSource{cfg: cfg, mounted: time.Now()}
	return &Server{
		cfg:  cfg,
		root: &rootNode{dirNode{e: snapshot(dir), attrs: attrs}},
	}
}

func seconds(s float64) *time.Duration {
	d := time.Duration(s * float64(time.Second))
	return &d
}

func (s *Server) options() *gofs.Options {
	opts := s.cfg.MountOptions
	return &gofs.Options{
		MountOptions: fuse.MountOptions{
			Name:       opts.Name,
			FsName:     opts.FsName,
			AllowOther: opts.AllowOther,
			Options:    opts.KernelOptions(),
			Debug:      opts.Debug || s.cfg.LogLvl == util.TraceLevel,
			Logger:     util.NewLogLogger("FuseServer", util.DebugLevel),
		},
		AttrTimeout:  seconds(s.cfg.AttrTimeout),
		EntryTimeout: seconds(s.cfg.EntryTimeout),
		Logger:       util.NewLogLogger("FuseNodes", util.DebugLevel),
	}
}

// Serve mounts and serves the snapshot at mountPoint. It returns once the
// mount is ready; use [Server.Wait] to block until it is unmounted.
func (s *Server) Serve(mountPoint string) error {
	logger := util.GetLogger("Server.Serve")

	if s.server != nil {
		return errors.New("already mounted")
	}
	opts := s.options()
	raw := gofs.NewNodeFS(s.root, opts)
	srv, err := fuse.NewServer(raw, mountPoint, &opts.MountOptions)
	if err != nil {
		return err
	}
	s.server = srv

	go srv.Serve()
	if err := srv.WaitMount(); err != nil {
		return err
	}
	logger.Info().Str("mountpoint", mountPoint).Msg("Mounted read-only")
	return nil
}

func (s *Server) ServeAsync(mountPoint string) <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve(mountPoint)
		close(done)
	}()

	return done
}

// Wait blocks until the file system is unmounted
func (s *Server) Wait() {
	if s.server != nil {
		s.server.Wait()
	}
}

// Unmount cleanly unmounts the filesystem.
func (s *Server) Unmount() error {
	if s.server == nil {
		return nil
	}
	return s.server.Unmount()
}
