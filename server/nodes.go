package server

import (
	"context"
	"os"
	"syscall"
	"time"

	gofs "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/filesystem"
)

// entry is an immutable copy of one node taken when the mount is created.
// Mounts never observe later changes to the tree.
type entry struct {
	name     string
	ino      uint64
	dir      bool
	data     []byte
	children []*entry // sorted by name
}

// snapshot copies the tree under dir, numbering inodes in traversal order
// starting at the FUSE root id
func snapshot(dir *filesystem.Directory) *entry {
	next := uint64(fuse.FUSE_ROOT_ID)
	var walk func(n filesystem.Node) *entry
	walk = func(n filesystem.Node) *entry {
		e := &entry{name: n.Name(), ino: next}
		next++
		switch v := n.(type) {
		case *filesystem.Directory:
			e.dir = true
			for child := range v.Children().All() {
				e.children = append(e.children, walk(child))
			}
		case *filesystem.File:
			e.data = v.Data()
		}
		return e
	}
	return walk(dir)
}

// newDefaultAttr returns the default attributes for a new node
// NOTE: Make sure to set the Mode field appropriately
func newDefaultAttr(ino uint64, mounted time.Time) fuse.Attr {
	return fuse.Attr{
		Ino:   ino,
		Nlink: 1,
		Owner: fuse.Owner{
			Uid: uint32(os.Getuid()),
			Gid: uint32(os.Getgid()),
		},
		Atime:     uint64(mounted.Unix()),
		Mtime:     uint64(mounted.Unix()),
		Ctime:     uint64(mounted.Unix()),
		Atimensec: uint32(mounted.Nanosecond()),
		Mtimensec: uint32(mounted.Nanosecond()),
		Ctimensec: uint32(mounted.Nanosecond()),
		Blksize:   4096, // preferred size for fs ops
	}
}

// attrSource holds what every node needs to fill its attributes
type attrSource struct {
	cfg     *config.Config
	mounted time.Time
}

func (a *attrSource) attr(e *entry) fuse.Attr {
	attr := newDefaultAttr(e.ino, a.mounted)
	if e.dir {
		attr.Mode = syscall.S_IFDIR | a.cfg.DirPerms
		attr.Nlink = 2
		return attr
	}
	attr.Mode = syscall.S_IFREG | a.cfg.FilePerms
	attr.Size = uint64(len(e.data))
	attr.Blocks = (attr.Size + 511) / 512
	return attr
}

// dirNode serves a directory entry
type dirNode struct {
	gofs.Inode
	e     *entry
	attrs *attrSource
}

var (
	_ gofs.NodeGetattrer = (*dirNode)(nil)
	_ gofs.NodeOnAdder   = (*rootNode)(nil)
)

func (d *dirNode) Getattr(ctx context.Context, fh gofs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Attr = d.attrs.attr(d.e)
	return gofs.OK
}

// rootNode builds the whole inode tree when go-fuse attaches it
type rootNode struct {
	dirNode
}

func (r *rootNode) OnAdd(ctx context.Context) {
	addChildren(ctx, &r.Inode, r.e, r.attrs)
}

func addChildren(ctx context.Context, parent *gofs.Inode, e *entry, attrs *attrSource) {
	for _, c := range e.children {
		if c.dir {
			ch := parent.NewPersistentInode(ctx, &dirNode{e: c, attrs: attrs},
				gofs.StableAttr{Mode: syscall.S_IFDIR, Ino: c.ino})
			parent.AddChild(c.name, ch, false)
			addChildren(ctx, ch, c, attrs)
			continue
		}
		ch := parent.NewPersistentInode(ctx, &fileNode{e: c, attrs: attrs},
			gofs.StableAttr{Mode: syscall.S_IFREG, Ino: c.ino})
		parent.AddChild(c.name, ch, false)
	}
}

// fileNode serves a file's payload from the snapshot
type fileNode struct {
	gofs.Inode
	e     *entry
	attrs *attrSource
}

var (
	_ gofs.NodeGetattrer = (*fileNode)(nil)
	_ gofs.NodeOpener    = (*fileNode)(nil)
	_ gofs.NodeReader    = (*fileNode)(nil)
)

const writeFlags = syscall.O_WRONLY | syscall.O_RDWR | syscall.O_APPEND | syscall.O_TRUNC | syscall.O_CREAT

func (f *fileNode) Getattr(ctx context.Context, fh gofs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Attr = f.attrs.attr(f.e)
	return gofs.OK
}

// Open refuses anything but read-only access. Payloads never change for the
// life of the mount, so the kernel may keep its page cache.
func (f *fileNode) Open(ctx context.Context, flags uint32) (gofs.FileHandle, uint32, syscall.Errno) {
	if flags&writeFlags != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, gofs.OK
}

func (f *fileNode) Read(ctx context.Context, fh gofs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off < 0 {
		return nil, syscall.EINVAL
	}
	if off >= int64(len(f.e.data)) {
		return fuse.ReadResultData(nil), gofs.OK
	}
	end := min(off+int64(len(dest)), int64(len(f.e.data)))
	return fuse.ReadResultData(f.e.data[off:end]), gofs.OK
}
