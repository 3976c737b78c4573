package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/vfs"
)

// run executes the CLI in process. Logging goes through the global logger,
// so these tests do not run in parallel.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := run(t, args...)
	require.NoError(t, err, "vfs %v", args)
	return out
}

func setup(t *testing.T) (container, hostDir string) {
	t.Helper()

	hostDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, "settings.conf"), []byte("a=1"), 0o644))
	return filepath.Join(t.TempDir(), "store.vfs"), hostDir
}

func TestCLI_ImportTreeCat(t *testing.T) {
	c, host := setup(t)

	mustRun(t, "-c", c, "import", filepath.Join(host, "settings.conf"), "/etc/settings.conf")
	mustRun(t, "-c", c, "mkdir", "-p", "/var/log", "/usr")
	mustRun(t, "-c", c, "touch", "/etc/misc/test.txt")

	_, err := os.Stat(c)
	require.NoError(t, err, "mutations save the container")

	out := mustRun(t, "-c", c, "tree")
	want := "/\n" +
		"├── etc/\n" +
		"│   ├── misc/\n" +
		"│   │   └── test.txt\n" +
		"│   └── settings.conf\n" +
		"├── usr/\n" +
		"└── var/\n" +
		"    └── log/\n"
	assert.Equal(t, want, out)

	out = mustRun(t, "-c", c, "tree", "/etc", "--ascii", "--sizes")
	assert.Equal(t, "etc/ (3 B)\n|-- misc/ (0 B)\n|   `-- test.txt (0 B)\n`-- settings.conf (3 B)\n", out)

	assert.Equal(t, "a=1", mustRun(t, "-c", c, "cat", "/etc/settings.conf"))
	assert.Equal(t, "misc/\nsettings.conf\n", mustRun(t, "-c", c, "ls", "/etc"))
	assert.Equal(t, "3 B\t/etc\n", mustRun(t, "-c", c, "du", "/etc"))
	assert.Contains(t, mustRun(t, "-c", c, "ls", "-l", "/etc"), "d  0 B  misc/")

	stat := mustRun(t, "-c", c, "stat", "/etc/settings.conf")
	assert.Contains(t, stat, "Type:     file")
	assert.Contains(t, stat, "Size:     3 (3 B)")
}

func TestCLI_Errors(t *testing.T) {
	c, host := setup(t)
	mustRun(t, "-c", c, "import", filepath.Join(host, "settings.conf"), "/etc/settings.conf")

	_, err := run(t, "tree")
	assert.ErrorContains(t, err, "--container is required")

	_, err = run(t, "-c", c, "cat", "/nope")
	assert.ErrorIs(t, err, vfs.ErrNotFound)

	_, err = run(t, "-c", c, "import", filepath.Join(host, "settings.conf"), "/etc/settings.conf")
	assert.ErrorIs(t, err, vfs.ErrDuplicateName)

	_, err = run(t, "-c", c, "mkdir", "/a/b")
	assert.ErrorIs(t, err, vfs.ErrNotFound)

	_, err = run(t, "-c", c, "rm", "/etc")
	assert.ErrorContains(t, err, "not empty")

	_, err = run(t, "-c", c, "rm", "/")
	assert.ErrorIs(t, err, vfs.ErrInvalidName)

	_, err = run(t, "-c", c, "find", "[", "--mode", "regex")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(c, []byte("not a container"), 0o600))
	_, err = run(t, "-c", c, "tree")
	assert.ErrorIs(t, err, vfs.ErrCorruptContainer)
}

func TestCLI_ExportOverwrite(t *testing.T) {
	c, host := setup(t)
	mustRun(t, "-c", c, "touch", "/empty")
	dest := filepath.Join(host, "settings.conf")

	_, err := run(t, "-c", c, "export", "/empty", dest)
	assert.ErrorIs(t, err, vfs.ErrExists)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "a=1", string(got), "destination unchanged")

	mustRun(t, "-c", c, "export", "/empty", dest, "--force")
	got, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = run(t, "-c", c, "export", "/empty", host, "--force")
	assert.ErrorIs(t, err, vfs.ErrIsDirectory)
}

func TestCLI_RmMvMetaFind(t *testing.T) {
	c, _ := setup(t)
	mustRun(t, "-c", c, "touch", "/docs/a.md", "/docs/b.txt", "/tmp/x")

	mustRun(t, "-c", c, "mv", "/docs/b.txt", "README.TXT")
	assert.Equal(t, "README.TXT\na.md\n", mustRun(t, "-c", c, "ls", "/docs"))

	_, err := run(t, "-c", c, "mv", "/docs/a.md", "README.TXT")
	assert.ErrorIs(t, err, vfs.ErrDuplicateName)

	mustRun(t, "-c", c, "meta", "/docs/a.md", "owner=alice", "lang=en")
	assert.Equal(t, "lang=en\nowner=alice\n", mustRun(t, "-c", c, "meta", "/docs/a.md"))
	mustRun(t, "-c", c, "meta", "/docs/a.md", "--unset", "lang")
	assert.Equal(t, "owner=alice\n", mustRun(t, "-c", c, "meta", "/docs/a.md"))
	_, err = run(t, "-c", c, "meta", "/docs/a.md", "novalue")
	assert.Error(t, err)

	assert.Equal(t, "/docs/README.TXT\n", mustRun(t, "-c", c, "find", "readme", "--mode", "contains-fold"))
	assert.Equal(t, "/docs/a.md\n", mustRun(t, "-c", c, "find", `.*\.md`, "-m", "regex", "--in", "/docs"))

	mustRun(t, "-c", c, "rm", "-r", "/docs", "/tmp/x")
	assert.Equal(t, "tmp/\n", mustRun(t, "-c", c, "ls"))
}

func TestCLI_Apply(t *testing.T) {
	c, host := setup(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "<h1>hi</h1>")
	}))
	t.Cleanup(srv.Close)

	manifest := filepath.Join(host, "nodes.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
- type: dir
  path: /srv/empty
- type: file
  path: /srv/www/index.html
  meta:
    content-type: text/html
  sources:
    - type: http
      url: `+srv.URL+`/missing
    - type: http
      url: `+srv.URL+`/index.html
- type: file
  path: /etc/settings.conf
  sources:
    - type: local
      path: `+filepath.Join(host, "settings.conf")+`
`), 0o644))

	mustRun(t, "-c", c, "apply", manifest)

	assert.Equal(t, "<h1>hi</h1>", mustRun(t, "-c", c, "cat", "/srv/www/index.html"))
	assert.Equal(t, "a=1", mustRun(t, "-c", c, "cat", "/etc/settings.conf"))
	assert.Equal(t, "content-type=text/html\n", mustRun(t, "-c", c, "meta", "/srv/www/index.html"))

	// applying again fails for the existing files but keeps the container intact
	_, err := run(t, "-c", c, "apply", manifest)
	assert.ErrorIs(t, err, vfs.ErrDuplicateName)
	assert.Equal(t, "a=1", mustRun(t, "-c", c, "cat", "/etc/settings.conf"))
}

func TestCLI_ConfigFile(t *testing.T) {
	c, host := setup(t)
	cfgPath := filepath.Join(host, "vfs.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("tree_style: ascii\n"), 0o644))
	mustRun(t, "-c", c, "mkdir", "/a")

	assert.Equal(t, "/\n`-- a/\n", mustRun(t, "-c", c, "--config", cfgPath, "tree"))

	require.NoError(t, os.WriteFile(cfgPath, []byte("tree_style: fancy\n"), 0o644))
	_, err := run(t, "-c", c, "--config", cfgPath, "tree")
	assert.Error(t, err)
}
