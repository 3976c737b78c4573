package adapters

import (
	"net/http"

	"github.com/spf13/afero"
)

// NOTE: If build bloat becomes a concern for unused sources
// look into build tags i.e. +build !nohttp

type BuiltInSourceType = string

const (
	HTTPSourceType  BuiltInSourceType = "http"
	LocalSourceType BuiltInSourceType = "local"
)

// RegisterBuiltins registers all built-in providers by default
// or only the specific ones if types are provided.
// Local sources read through host.
func RegisterBuiltins(r *Registry, host afero.Fs, types ...BuiltInSourceType) {
	if len(types) == 0 {
		// Include all built-in sources here when adding implementations
		types = append(types, HTTPSourceType, LocalSourceType)
	}

	for _, key := range types {
		switch key {
		case HTTPSourceType:
			r.Register(HTTPSourceType, NewHTTPProvider(http.DefaultClient))
		case LocalSourceType:
			r.Register(LocalSourceType, NewLocalProvider(host))
		}
	}
}

// NewDefaultRegistry returns a registry with every built-in provider
func NewDefaultRegistry(host afero.Fs) *Registry {
	r := NewRegistry()
	RegisterBuiltins(r, host)
	return r
}
