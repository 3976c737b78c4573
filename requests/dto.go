package requests

import (
	"github.com/brettbedarf/vfs"
)

// NodeRequestDTO is the JSON representation of [vfs.NodeRequest]
type NodeRequestDTO struct {
	Path string                    `json:"path"`
	Type vfs.NodeCreateRequestType `json:"type"`
}

// FileRequestDTO is the JSON representation of [vfs.FileCreateRequest]
type FileRequestDTO struct {
	NodeRequestDTO
	Meta    map[string]string `json:"meta,omitempty"`
	Sources []SourceConfigDTO `json:"sources,omitempty"`
}

type DirRequestDTO struct {
	NodeRequestDTO
}

// SourceConfigDTO is the JSON representation of static [vfs.FileSource] fields
//
// Additional fields depend on the "type" value:
//
// Ex. For type="http" (see [adapters.HTTPSourceConfig]):
//
//	URL     string            `json:"url"`
//	Method  *string           `json:"method,omitempty"`
//	Headers map\[string\]string `json:"headers,omitempty"`
//
// Ex. For type="local" (see [adapters.LocalSourceConfig]):
//
//	Path string `json:"path"`
//
// See adapters package for built-ins complete field specifications.
type SourceConfigDTO struct {
	Type     string `json:"type"`
	Priority *int   `json:"priority,omitempty"` // Lower number = higher priority, defaults to array index
}
