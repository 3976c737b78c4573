package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/vfs/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestNewConfig_WithNilOverride tests that NewConfig creates a config with all default values
// when no override is provided.
func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, createDefaultCfg(), cfg, "must use default values when no config provided")
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_WithAllOverride(t *testing.T) {
	t.Parallel()

	override := createOverride()
	cfg := NewConfig(override)

	expCfg := &Config{
		MountOptions: MountOptions{
			Debug:      true,
			FsName:     "test_fs",
			Name:       "test_name",
			AllowOther: true,
			Extra:      []string{"noexec"},
		},
		LogLvl:         util.VerbosityToLevel(*override.LogLvl),
		TreeStyle:      TreeStyleASCII,
		ContainerPerms: *override.ContainerPerms,
		ExportPerms:    *override.ExportPerms,
		FilePerms:      *override.FilePerms,
		DirPerms:       *override.DirPerms,
		AttrTimeout:    *override.AttrTimeout,
		EntryTimeout:   *override.EntryTimeout,
		FetchTimeout:   *override.FetchTimeout,
	}
	require.NotNil(t, cfg)
	assert.Equal(t, expCfg, cfg, "must override all provided fields")
}

func TestConfig_Merge_LogLvlConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		verboseValue  int
		expectedLevel util.LogLevel
	}{
		{"verbose_1_error", ErrorVerbose, util.ErrorLevel},
		{"verbose_2_warn", WarnVerbose, util.WarnLevel},
		{"verbose_3_info", InfoVerbose, util.InfoLevel},
		{"verbose_4_debug", DebugVerbose, util.DebugLevel},
		{"verbose_5_trace", TraceVerbose, util.TraceLevel},
		{"verbose_0_clamped_to_1", 0, util.ErrorLevel},
		{"verbose_100_clamped_to_5", 100, util.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(&ConfigOverride{LogLvl: &tt.verboseValue})

			assert.Equal(t, tt.expectedLevel, cfg.LogLvl,
				"CLI verbose %d should map to util.LogLevel %v", tt.verboseValue, tt.expectedLevel)
		})
	}
}

func TestConfig_Merge_PartialOverride(t *testing.T) {
	t.Parallel()

	override := &ConfigOverride{
		FsName:      util.Pointer("test_fs"),
		ExportPerms: util.Pointer(uint32(0o600)),
	}
	cfg := NewConfig(override)

	expCfg := createDefaultCfg()
	expCfg.FsName = "test_fs"
	expCfg.ExportPerms = 0o600

	assert.Equal(t, expCfg, cfg, "must override all provided fields and leave rest default")
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("unknown tree style", func(t *testing.T) {
		cfg := NewConfig(&ConfigOverride{TreeStyle: util.Pointer("fancy")})
		assert.Error(t, cfg.Validate())
	})
	t.Run("negative fetch timeout", func(t *testing.T) {
		cfg := NewConfig(&ConfigOverride{FetchTimeout: util.Pointer(-1.0)})
		assert.Error(t, cfg.Validate())
	})
}

func TestLoadConfigOverrideFile_Valid(t *testing.T) {
	t.Parallel()

	cases := map[string]func(o *ConfigOverride) ([]byte, error){
		".yaml": func(o *ConfigOverride) ([]byte, error) { return yaml.Marshal(o) },
		".yml":  func(o *ConfigOverride) ([]byte, error) { return yaml.Marshal(o) },
		".json": func(o *ConfigOverride) ([]byte, error) { return json.Marshal(o) },
	}

	for ext, marshal := range cases {
		t.Run("valid"+ext, func(t *testing.T) {
			t.Parallel()
			override := createOverride()
			data, err := marshal(override)
			require.NoError(t, err)
			path := filepath.Join(t.TempDir(), "override"+ext)
			require.NoError(t, os.WriteFile(path, data, 0o600))

			loaded, err := LoadConfigOverrideFile(path)

			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, *override, *loaded)
		})
	}
}

func TestLoadConfigOverrideFile_NonExistentFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "does_not_exist.yaml")

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "expected not exist error, got %v", err)
}

func TestLoadConfigOverrideFile_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "override.txt")
	require.NoError(t, os.WriteFile(path, []byte("tree_style: ascii"), 0o600))

	_, err := LoadConfigOverrideFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config file extension")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
	})
	t.Run("merges onto defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tree_style: ascii\nexport_perms: 384\n"), 0o600))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)

		exp := createDefaultCfg()
		exp.TreeStyle = TreeStyleASCII
		exp.ExportPerms = 0o600
		assert.Equal(t, exp, cfg)
	})
	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tree_style":"fancy"}`), 0o600))

		_, err := NewConfigFromFile(path)
		require.Error(t, err)
	})
}

func createDefaultCfg() *Config {
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

// createOverride makes a ConfigOverride with all non-default values
func createOverride() *ConfigOverride {
	testLogVerbose := TraceVerbose
	if DefaultLogLvl == util.TraceLevel {
		testLogVerbose = DebugVerbose
	}
	return &ConfigOverride{
		FsName:         util.Pointer("test_fs"),
		Name:           util.Pointer("test_name"),
		Debug:          util.Pointer(true),
		AllowOther:     util.Pointer(true),
		MountExtra:     []string{"noexec"},
		LogLvl:         util.Pointer(testLogVerbose),
		TreeStyle:      util.Pointer(TreeStyleASCII),
		ContainerPerms: util.Pointer(uint32(0o640)),
		ExportPerms:    util.Pointer(uint32(0o600)),
		FilePerms:      util.Pointer(uint32(0o400)),
		DirPerms:       util.Pointer(uint32(0o500)),
		AttrTimeout:    util.Pointer(float64(DefaultAttrTimeout + 1)),
		EntryTimeout:   util.Pointer(float64(DefaultEntryTimeout + 1)),
		FetchTimeout:   util.Pointer(float64(DefaultFetchTimeout + 1)),
	}
}
