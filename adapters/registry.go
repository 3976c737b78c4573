// Package adapters turns raw source configs from manifests into [vfs.Source]
// implementations through a registry keyed by the config's "type" field.
package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/internal/util"
)

// ErrUnknownSourceType is returned for a "type" with no registered provider
var ErrUnknownSourceType = errors.New("unknown source type")

// Registry maps source types to providers. It is safe for concurrent use.
type Registry struct {
	providers *xsync.Map[string, vfs.SourceProvider]
}

func NewRegistry() *Registry {
	return &Registry{providers: xsync.NewMap[string, vfs.SourceProvider]()}
}

// Register ties a provider to a "type" key. The first registration for a
// type wins; later ones are ignored and reported with false.
func (r *Registry) Register(sourceType string, provider vfs.SourceProvider) bool {
	_, loaded := r.providers.LoadOrStore(sourceType, provider)
	if loaded {
		logger := util.GetLogger("Registry.Register")
		logger.Warn().Str("type", sourceType).Msg("Provider already registered")
	}
	return !loaded
}

// GetProvider returns the provider registered for sourceType
func (r *Registry) GetProvider(sourceType string) (vfs.SourceProvider, error) {
	p, ok := r.providers.Load(sourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, sourceType)
	}
	return p, nil
}

// Types returns the registered source types in ascending order
func (r *Registry) Types() []string {
	var types []string
	r.providers.Range(func(k string, _ vfs.SourceProvider) bool {
		types = append(types, k)
		return true
	})
	slices.Sort(types)
	return types
}

// NewSource picks the provider based on raw's "type" field and hands it the
// complete raw config.
func (r *Registry) NewSource(raw []byte) (vfs.Source, error) {
	var meta struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	if meta.Type == "" {
		return nil, fmt.Errorf("%w: missing \"type\"", ErrUnknownSourceType)
	}
	p, err := r.GetProvider(meta.Type)
	if err != nil {
		return nil, err
	}
	return p.NewSource(raw)
}
