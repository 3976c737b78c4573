// Package requests decodes create requests and manifests from JSON or YAML
package requests

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/adapters"
	"github.com/brettbedarf/vfs/internal/util"
)

// GetNodeType extracts the node type from JSON without full unmarshaling
func GetNodeType(data []byte) (vfs.NodeCreateRequestType, error) {
	var meta struct {
		Type vfs.NodeCreateRequestType `json:"type"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", err
	}
	return meta.Type, nil
}

// UnmarshalFileRequest handles file-specific unmarshaling with sources.
// Each source is built by the provider registered for its "type".
func UnmarshalFileRequest(data []byte, reg *adapters.Registry) (*vfs.FileCreateRequest, error) {
	var dto FileRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	node, err := convertNodeDTO(dto.NodeRequestDTO, vfs.FileNodeType)
	if err != nil {
		return nil, err
	}

	sources, err := unmarshalSources(dto.Sources, data, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", node.Path, err)
	}

	return &vfs.FileCreateRequest{
		NodeRequest: node,
		Meta:        dto.Meta,
		Sources:     sources,
	}, nil
}

// UnmarshalDirRequest handles explicit directory unmarshaling (no sources)
func UnmarshalDirRequest(data []byte) (*vfs.DirCreateRequest, error) {
	var dto DirRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	node, err := convertNodeDTO(dto.NodeRequestDTO, vfs.DirNodeType)
	if err != nil {
		return nil, err
	}
	return &vfs.DirCreateRequest{NodeRequest: node}, nil
}

// UnmarshalManifest decodes a JSON array of file and dir requests
func UnmarshalManifest(data []byte, reg *adapters.Registry) (*vfs.Manifest, error) {
	logger := util.GetLogger("UnmarshalManifest")

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("manifest must be a list of requests: %w", err)
	}

	m := &vfs.Manifest{}
	for i, raw := range raws {
		typ, err := GetNodeType(raw)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		switch typ {
		case vfs.FileNodeType:
			req, err := UnmarshalFileRequest(raw, reg)
			if err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			m.Files = append(m.Files, req)
		case vfs.DirNodeType:
			req, err := UnmarshalDirRequest(raw)
			if err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			m.Dirs = append(m.Dirs, req)
		default:
			return nil, fmt.Errorf("request %d: unknown type %q", i, typ)
		}
	}
	logger.Debug().Int("dirs", len(m.Dirs)).Int("files", len(m.Files)).Msg("Parsed manifest")
	return m, nil
}

// LoadManifestFile reads a manifest from host. Files ending in .yaml or .yml
// are YAML, anything else is JSON.
func LoadManifestFile(host afero.Fs, path string, reg *adapters.Registry) (*vfs.Manifest, error) {
	data, err := afero.ReadFile(host, path)
	if err != nil {
		return nil, vfs.NewIOError("read", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	m, err := UnmarshalManifest(data, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// yamlToJSON re-encodes YAML so the JSON DTOs and source providers see a
// single format
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Helper function to process sources array
func unmarshalSources(sourceDTOs []SourceConfigDTO, rawData []byte, reg *adapters.Registry) ([]vfs.FileSource, error) {
	if len(sourceDTOs) == 0 {
		return nil, nil
	}
	if reg == nil {
		return nil, fmt.Errorf("no source registry for %d sources", len(sourceDTOs))
	}

	// Extract raw sources array from JSON for the registry
	var rawMessage struct {
		Sources []json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(rawData, &rawMessage); err != nil {
		return nil, err
	}

	sources := make([]vfs.FileSource, 0, len(rawMessage.Sources))
	for i, rawSource := range rawMessage.Sources {
		src, err := reg.NewSource(rawSource)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}

		sources = append(sources, vfs.FileSource{
			Source:   src,
			Priority: util.ValueOrDefault(sourceDTOs[i].Priority, i),
		})
	}

	return sources, nil
}

func convertNodeDTO(dto NodeRequestDTO, want vfs.NodeCreateRequestType) (vfs.NodeRequest, error) {
	if dto.Type != "" && dto.Type != want {
		return vfs.NodeRequest{}, fmt.Errorf("type %q, expected %q", dto.Type, want)
	}
	if !strings.HasPrefix(dto.Path, "/") || dto.Path == "/" {
		return vfs.NodeRequest{}, fmt.Errorf("%w: path %q must be absolute and not the root", vfs.ErrInvalidName, dto.Path)
	}
	return vfs.NodeRequest{Path: dto.Path, Type: want}, nil
}
