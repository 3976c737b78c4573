package adapters

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/spf13/afero"

	"github.com/brettbedarf/vfs"
)

// LocalSourceConfig contains fields of a "local" source
type LocalSourceConfig struct {
	Path string `json:"path"`
}

// LocalProvider implements [vfs.SourceProvider] for files on the host
type LocalProvider struct {
	host afero.Fs
}

var _ vfs.SourceProvider = (*LocalProvider)(nil)

// NewLocalProvider reads through host, or the OS file system if host is nil
func NewLocalProvider(host afero.Fs) *LocalProvider {
	if host == nil {
		host = afero.NewOsFs()
	}
	return &LocalProvider{host: host}
}

func (p *LocalProvider) NewSource(raw []byte) (vfs.Source, error) {
	var cfg LocalSourceConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	return &LocalSource{host: p.host, path: cfg.Path}, nil
}

// LocalSource implements [vfs.Source] for one host file
type LocalSource struct {
	host afero.Fs
	path string
}

func (s *LocalSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.host, s.path)
	if err != nil {
		return nil, vfs.NewIOError("read", s.path, err)
	}
	return data, nil
}
