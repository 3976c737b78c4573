package filesystem

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/brettbedarf/vfs"
	"github.com/google/uuid"
)

// Separator is the path separator used inside the tree and in container paths
const Separator = "/"

// Node is a [Directory] or a [File]. The set of implementations is closed;
// callers switch on the concrete type.
type Node interface {
	// ID returns a handle that is stable for the node's lifetime.
	// Equality of nodes is pointer identity, not ID or path.
	ID() uuid.UUID
	// Name returns the last path component; empty for the root
	Name() string
	// Parent returns the owning directory or nil for the root and detached nodes
	Parent() *Directory
	// Path returns the absolute path; the root's path is "/"
	Path() string
	// Size returns the payload size of a file or the recursive sum for a directory
	Size() int64

	base() *nodeBase
}

type nodeBase struct {
	id     uuid.UUID
	name   string
	parent *Directory
}

func newNodeBase(name string) nodeBase {
	return nodeBase{id: uuid.New(), name: name}
}

func (b *nodeBase) base() *nodeBase { return b }

func (b *nodeBase) ID() uuid.UUID { return b.id }

func (b *nodeBase) Name() string { return b.name }

func (b *nodeBase) Parent() *Directory { return b.parent }

// pathOf walks parents to the top. Detached nodes render as if they hung off
// the root.
func pathOf(n Node) string {
	var parts []string
	for cur := n; cur != nil; {
		b := cur.base()
		if b.parent == nil {
			if b.name != "" {
				parts = append(parts, b.name)
			}
			break
		}
		parts = append(parts, b.name)
		cur = b.parent
	}
	if len(parts) == 0 {
		return Separator
	}
	slices.Reverse(parts)
	return Separator + strings.Join(parts, Separator)
}

// Directory owns an ordered set of uniquely named children.
type Directory struct {
	nodeBase
	children *ChildSet
}

// NewDirectory returns a detached directory. Use [FileSystem.NewDirectory] to
// create one inside a tree.
func NewDirectory(name string) *Directory {
	return &Directory{nodeBase: newNodeBase(name), children: NewChildSet()}
}

func (d *Directory) Path() string { return pathOf(d) }

// Size is recomputed on every call.
func (d *Directory) Size() int64 {
	var total int64
	for child := range d.children.All() {
		total += child.Size()
	}
	return total
}

// Children returns the directory's child set
func (d *Directory) Children() *ChildSet { return d.children }

// GetChild returns the child named name or nil
func (d *Directory) GetChild(name string) Node { return d.children.GetChild(name) }

// File owns a byte payload and a string metadata map.
// The payload buffer is exclusively owned; callers only ever see copies.
type File struct {
	nodeBase
	data []byte
	meta map[string]string
}

// NewFile returns a detached file. Use [FileSystem.NewFile] to create one inside a tree.
func NewFile(name string) *File {
	return &File{nodeBase: newNodeBase(name), meta: make(map[string]string)}
}

func (f *File) Path() string { return pathOf(f) }

func (f *File) Size() int64 { return int64(len(f.data)) }

// Data returns a copy of the payload, nil if there is none
func (f *File) Data() []byte {
	if f.data == nil {
		return nil
	}
	return slices.Clone(f.data)
}

// SetData replaces the payload with a copy of data. The previous buffer is
// zeroed before it is released.
func (f *File) SetData(data []byte) {
	f.Wipe()
	if data != nil {
		f.data = slices.Clone(data)
	}
}

// Wipe zeroes the payload buffer and drops it
func (f *File) Wipe() {
	clear(f.data)
	f.data = nil
}

// Meta returns the metadata value for key
func (f *File) Meta(key string) (string, bool) {
	v, ok := f.meta[key]
	return v, ok
}

func (f *File) SetMeta(key, value string) {
	f.meta[key] = value
}

func (f *File) DeleteMeta(key string) {
	delete(f.meta, key)
}

// MetaMap returns a copy of the metadata map
func (f *File) MetaMap() map[string]string {
	return maps.Clone(f.meta)
}

// MetaKeys returns the metadata keys in ascending order
func (f *File) MetaKeys() []string {
	return slices.Sorted(maps.Keys(f.meta))
}

// MetaLen returns the number of metadata entries
func (f *File) MetaLen() int {
	return len(f.meta)
}

// ValidateName rejects names that cannot be a single path component
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", vfs.ErrInvalidName)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q contains %q", vfs.ErrInvalidName, name, Separator)
	}
	return nil
}

// Rename changes a node's name in place and restores the order of its
// parent's children. Renaming to the current name is a no-op.
func Rename(n Node, newName string) error {
	b := n.base()
	if b.name == newName {
		return nil
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if b.parent == nil {
		if b.name == "" {
			return fmt.Errorf("%w: cannot rename the root", vfs.ErrInvalidName)
		}
		b.name = newName
		return nil
	}
	if b.parent.children.GetChild(newName) != nil {
		return fmt.Errorf("%w: %s", vfs.ErrDuplicateName, newName)
	}
	b.name = newName
	b.parent.children.Sort()
	return nil
}

// IsDir reports whether n is a directory
func IsDir(n Node) bool {
	_, ok := n.(*Directory)
	return ok
}
