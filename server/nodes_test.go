package server

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/internal/util"
)

func createTestTree(t *testing.T) *filesystem.FileSystem {
	t.Helper()

	fs := filesystem.NewFS(nil)
	etc, err := fs.MkdirAll("/etc")
	require.NoError(t, err)
	f, err := fs.NewFile(etc, "settings.conf")
	require.NoError(t, err)
	f.SetData([]byte("a=1"))
	_, err = fs.MkdirAll("/var/log")
	require.NoError(t, err)
	_, err = fs.NewFile(fs.Root(), "empty")
	require.NoError(t, err)
	return fs
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	fs := createTestTree(t)
	root := snapshot(fs.Root())

	assert.True(t, root.dir)
	assert.Equal(t, uint64(fuse.FUSE_ROOT_ID), root.ino)
	require.Len(t, root.children, 3)

	names := make([]string, 0, len(root.children))
	for _, c := range root.children {
		names = append(names, c.name)
	}
	assert.Equal(t, []string{"empty", "etc", "var"}, names)

	etc := root.children[1]
	require.Len(t, etc.children, 1)
	settings := etc.children[0]
	assert.Equal(t, uint64(4), settings.ino, "inodes follow traversal order")
	assert.Equal(t, []byte("a=1"), settings.data)

	// later changes are not visible
	f, err := fs.ResolveFile("/etc/settings.conf")
	require.NoError(t, err)
	f.SetData([]byte("changed"))
	assert.Equal(t, []byte("a=1"), settings.data)
}

func newTestFileNode(data string) *fileNode {
	attrs := &attrSource{cfg: config.NewDefaultConfig(), mounted: time.Unix(1700000000, 0)}
	return &fileNode{e: &entry{name: "f", ino: 7, data: []byte(data)}, attrs: attrs}
}

func TestFileNode_Getattr(t *testing.T) {
	t.Parallel()

	n := newTestFileNode("hello")
	var out fuse.AttrOut
	errno := n.Getattr(context.Background(), nil, &out)

	require.Equal(t, syscall.Errno(0), errno)
	assert.Equal(t, uint64(7), out.Ino)
	assert.Equal(t, uint64(5), out.Size)
	assert.Equal(t, uint32(syscall.S_IFREG|0o444), out.Mode)
	assert.Equal(t, uint64(1700000000), out.Mtime)
}

func TestDirNode_Getattr(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig(&config.ConfigOverride{DirPerms: util.Pointer(uint32(0o500))})
	d := &dirNode{e: &entry{ino: 1, dir: true}, attrs: &attrSource{cfg: cfg, mounted: time.Now()}}
	var out fuse.AttrOut
	errno := d.Getattr(context.Background(), nil, &out)

	require.Equal(t, syscall.Errno(0), errno)
	assert.Equal(t, uint32(syscall.S_IFDIR|0o500), out.Mode)
	assert.Equal(t, uint32(2), out.Nlink)
}

func TestFileNode_Open(t *testing.T) {
	t.Parallel()

	n := newTestFileNode("hello")
	tests := []struct {
		desc  string
		flags uint32
		want  syscall.Errno
	}{
		{"read only", syscall.O_RDONLY, 0},
		{"write only", syscall.O_WRONLY, syscall.EROFS},
		{"read write", syscall.O_RDWR, syscall.EROFS},
		{"truncate", syscall.O_RDONLY | syscall.O_TRUNC, syscall.EROFS},
		{"append", syscall.O_WRONLY | syscall.O_APPEND, syscall.EROFS},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, _, errno := n.Open(context.Background(), tt.flags)
			assert.Equal(t, tt.want, errno)
		})
	}
}

func TestFileNode_Read(t *testing.T) {
	t.Parallel()

	n := newTestFileNode("hello world")
	tests := []struct {
		desc string
		off  int64
		size int
		want string
	}{
		{"whole file", 0, 64, "hello world"},
		{"prefix", 0, 5, "hello"},
		{"middle", 6, 3, "wor"},
		{"tail", 6, 64, "world"},
		{"at end", 11, 8, ""},
		{"past end", 100, 8, ""},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			res, errno := n.Read(context.Background(), nil, make([]byte, tt.size), tt.off)
			require.Equal(t, syscall.Errno(0), errno)
			got, status := res.Bytes(nil)
			require.Equal(t, fuse.OK, status)
			assert.Equal(t, tt.want, string(got))
		})
	}

	_, errno := n.Read(context.Background(), nil, make([]byte, 1), -1)
	assert.Equal(t, syscall.EINVAL, errno)
}

func TestServer_UnmountBeforeServe(t *testing.T) {
	t.Parallel()

	s := New(createTestTree(t).Root(), nil)
	assert.NoError(t, s.Unmount())
	s.Wait()
}

func TestServer_OptionsCarryMountSettings(t *testing.T) {
	t.Parallel()

	cfg := config.NewDefaultConfig()
	cfg.AllowOther = true
	cfg.Extra = []string{"noexec"}
	cfg.AttrTimeout = 2.5

	opts := New(createTestTree(t).Root(), cfg).options()

	assert.True(t, opts.AllowOther)
	assert.Equal(t, []string{"ro", "noexec"}, opts.Options)
	assert.Equal(t, config.DefaultFsName, opts.FsName)
	require.NotNil(t, opts.AttrTimeout)
	assert.Equal(t, 2500*time.Millisecond, *opts.AttrTimeout)
}
