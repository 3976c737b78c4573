package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/brettbedarf/vfs/internal/util"
	"gopkg.in/yaml.v3"
)

// Tree dump styles
const (
	TreeStyleASCII   = "ascii"
	TreeStyleUnicode = "unicode"
)

// CLI verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultFsName = "vfs"
	DefaultName   = "vfs"
	DefaultLogLvl = util.InfoLevel

	// DefaultTreeStyle is the box drawing style used by tree dumps
	DefaultTreeStyle = TreeStyleUnicode

	// DefaultContainerPerms is the host mode of container files
	DefaultContainerPerms = 0o600

	// DefaultExportPerms is the host mode of exported files
	DefaultExportPerms = 0o644

	// DefaultFilePerms and DefaultDirPerms are the modes reported by read-only mounts
	DefaultFilePerms = 0o444
	DefaultDirPerms  = 0o555

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultFetchTimeout bounds a single source fetch in seconds
	DefaultFetchTimeout = 30.0
)

// Config contains runtime configuration values for the container filesystem.
type Config struct {
	MountOptions
	LogLvl         util.LogLevel
	TreeStyle      string  // "ascii" or "unicode" (Default unicode)
	ContainerPerms uint32  // Host mode for container files (Default 0600)
	ExportPerms    uint32  // Host mode for exported files (Default 0644)
	FilePerms      uint32  // Mode reported for files in mounts (Default 0444)
	DirPerms       uint32  // Mode reported for directories in mounts (Default 0555)
	AttrTimeout    float64 // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout   float64 // Directory entry cache timeout in seconds (Default 1.0)
	FetchTimeout   float64 // Source fetch timeout in seconds (Default 30)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	FsName         *string  `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name           *string  `yaml:"name,omitempty" json:"name,omitempty"`
	Debug          *bool    `yaml:"debug,omitempty" json:"debug,omitempty"`
	AllowOther     *bool    `yaml:"allow_other,omitempty" json:"allow_other,omitempty"`
	// MountExtra replaces the extra kernel mount options; nil keeps the current list
	MountExtra     []string `yaml:"mount_options,omitempty" json:"mount_options,omitempty"`
	LogLvl         *int     `yaml:"verbose,omitempty" json:"verbose,omitempty"` // CLI verbosity 1 (error) .. 5 (trace)
	TreeStyle      *string  `yaml:"tree_style,omitempty" json:"tree_style,omitempty"`
	ContainerPerms *uint32  `yaml:"container_perms,omitempty" json:"container_perms,omitempty"`
	ExportPerms    *uint32  `yaml:"export_perms,omitempty" json:"export_perms,omitempty"`
	FilePerms      *uint32  `yaml:"file_perms,omitempty" json:"file_perms,omitempty"`
	DirPerms       *uint32  `yaml:"dir_perms,omitempty" json:"dir_perms,omitempty"`
	AttrTimeout    *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout   *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	FetchTimeout   *float64 `yaml:"fetch_timeout,omitempty" json:"fetch_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:         DefaultLogLvl,
		TreeStyle:      DefaultTreeStyle,
		ContainerPerms: DefaultContainerPerms,
		ExportPerms:    DefaultExportPerms,
		FilePerms:      DefaultFilePerms,
		DirPerms:       DefaultDirPerms,
		AttrTimeout:    DefaultAttrTimeout,
		EntryTimeout:   DefaultEntryTimeout,
		FetchTimeout:   DefaultFetchTimeout,
	}
}

// NewConfig creates a Config from defaults with override applied on top.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.AllowOther != nil {
		c.AllowOther = *override.AllowOther
	}
	if override.MountExtra != nil {
		c.Extra = slices.Clone(override.MountExtra)
	}
	if override.LogLvl != nil {
		c.LogLvl = util.VerbosityToLevel(*override.LogLvl)
	}
	if override.TreeStyle != nil {
		c.TreeStyle = *override.TreeStyle
	}
	if override.ContainerPerms != nil {
		c.ContainerPerms = *override.ContainerPerms
	}
	if override.ExportPerms != nil {
		c.ExportPerms = *override.ExportPerms
	}
	if override.FilePerms != nil {
		c.FilePerms = *override.FilePerms
	}
	if override.DirPerms != nil {
		c.DirPerms = *override.DirPerms
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.FetchTimeout != nil {
		c.FetchTimeout = *override.FetchTimeout
	}
}

// Validate reports settings that cannot be used
func (c *Config) Validate() error {
	switch c.TreeStyle {
	case TreeStyleASCII, TreeStyleUnicode:
	default:
		return fmt.Errorf("unknown tree style %q", c.TreeStyle)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative")
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg := NewConfig(override)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
