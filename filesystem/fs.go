package filesystem

import (
	"fmt"
	"strings"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/internal/util"
)

// FileSystem owns the node tree. It is not safe for concurrent use; callers
// sharing one instance must serialize access themselves.
type FileSystem struct {
	cfg  *config.Config
	root *Directory // Root of node tree
}

func NewFS(cfg *config.Config) *FileSystem {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &FileSystem{cfg: cfg, root: NewDirectory("")}
}

// Root returns the root directory
func (fs *FileSystem) Root() *Directory {
	return fs.root
}

// Config returns the configuration the tree was created with
func (fs *FileSystem) Config() *config.Config {
	return fs.cfg
}

// SetRoot swaps in a complete tree, e.g. one decoded from a container.
func (fs *FileSystem) SetRoot(root *Directory) {
	fs.root = root
}

// IsRoot reports whether n is this tree's root
func (fs *FileSystem) IsRoot(n Node) bool {
	d, ok := n.(*Directory)
	return ok && d.parent == nil && d == fs.root
}

// NewFile creates an empty file named name inside parent
func (fs *FileSystem) NewFile(parent *Directory, name string) (*File, error) {
	f := NewFile(name)
	if err := fs.attach(parent, f); err != nil {
		return nil, err
	}
	return f, nil
}

// NewDirectory creates an empty directory named name inside parent
func (fs *FileSystem) NewDirectory(parent *Directory, name string) (*Directory, error) {
	d := NewDirectory(name)
	if err := fs.attach(parent, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (fs *FileSystem) attach(parent *Directory, n Node) error {
	logger := util.GetLogger("FS.attach")

	if parent == nil {
		return fmt.Errorf("%w: nil parent", vfs.ErrNotADirectory)
	}
	if err := ValidateName(n.Name()); err != nil {
		logger.Debug().Err(err).Str("parent", parent.Path()).Msg("Rejected node name")
		return err
	}
	if !parent.children.Add(n) {
		logger.Debug().Str("parent", parent.Path()).Str("name", n.Name()).Msg("Sibling name already exists")
		return fmt.Errorf("%w: %s", vfs.ErrDuplicateName, joinPath(parent.Path(), n.Name()))
	}
	n.base().parent = parent
	logger.Trace().Str("path", n.Path()).Msg("Attached node")
	return nil
}

// splitPath trims the leading separator and splits the rest into components.
// "/" and "" both yield no components.
func splitPath(p string) []string {
	p = strings.TrimPrefix(p, Separator)
	if p == "" {
		return nil
	}
	return strings.Split(p, Separator)
}

func joinPath(dir, name string) string {
	if dir == Separator {
		return Separator + name
	}
	return dir + Separator + name
}

// CreateParents makes every missing directory leading up to the last component
// of p and returns the directory that would contain it.
// It fails with ErrNotADirectory if an existing file occupies one of those components.
func (fs *FileSystem) CreateParents(p string) (*Directory, error) {
	parts := splitPath(p)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty path", vfs.ErrInvalidName)
	}
	return fs.mkdirs(parts[:len(parts)-1])
}

// MkdirAll is like CreateParents but also makes the last component a directory,
// similar to `mkdir -p`. Existing directories are not an error.
func (fs *FileSystem) MkdirAll(p string) (*Directory, error) {
	return fs.mkdirs(splitPath(p))
}

func (fs *FileSystem) mkdirs(parts []string) (*Directory, error) {
	logger := util.GetLogger("FS.mkdirs")

	// a bad segment must fail before anything is created
	for _, name := range parts {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
	}

	cur := fs.root
	newCnt := 0
	for _, name := range parts {
		switch child := cur.children.GetChild(name).(type) {
		case *Directory:
			cur = child
		case *File:
			return nil, fmt.Errorf("%w: %s", vfs.ErrNotADirectory, child.Path())
		case nil:
			dir, err := fs.NewDirectory(cur, name)
			if err != nil {
				return nil, err
			}
			newCnt++
			cur = dir
		}
	}
	if newCnt > 0 {
		logger.Debug().Str("path", cur.Path()).Int("created", newCnt).Msg("Created missing directories")
	}
	return cur, nil
}

// Resolve returns the node at absolute path p or nil. The root resolves from "/".
// Paths that are empty or that pass through a file resolve to nil.
func (fs *FileSystem) Resolve(p string) Node {
	if p == "" {
		return nil
	}
	if p == Separator {
		return fs.root
	}
	return resolveIn(fs.root, strings.TrimPrefix(p, Separator))
}

// resolveIn descends one component at a time, splitting on the first separator.
func resolveIn(dir *Directory, rest string) Node {
	if rest == "" {
		return nil
	}
	head, tail, more := strings.Cut(rest, Separator)
	child := dir.children.GetChild(head)
	if !more || child == nil {
		return child
	}
	sub, ok := child.(*Directory)
	if !ok {
		return nil
	}
	if tail == "" {
		// trailing separator names the directory itself
		return sub
	}
	return resolveIn(sub, tail)
}

// ResolveDir is Resolve restricted to directories
func (fs *FileSystem) ResolveDir(p string) (*Directory, error) {
	switch n := fs.Resolve(p).(type) {
	case *Directory:
		return n, nil
	case *File:
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotADirectory, p)
	default:
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotFound, p)
	}
}

// ResolveFile is Resolve restricted to files
func (fs *FileSystem) ResolveFile(p string) (*File, error) {
	switch n := fs.Resolve(p).(type) {
	case *File:
		return n, nil
	case *Directory:
		return nil, fmt.Errorf("%w: %s is a directory", vfs.ErrInvalidName, p)
	default:
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotFound, p)
	}
}

// Delete detaches n from its parent. File payloads under n are zeroed.
// The root and detached nodes cannot be deleted.
func (fs *FileSystem) Delete(n Node) bool {
	logger := util.GetLogger("FS.Delete")

	if n == nil {
		return false
	}
	parent := n.Parent()
	if parent == nil || !parent.children.Remove(n) {
		logger.Debug().Str("path", n.Path()).Msg("Node is not attached")
		return false
	}
	logger.Debug().Str("path", n.Path()).Msg("Deleted node")
	detach(n)
	return true
}

// DeleteAll deletes every node in ns, re-sorting each affected parent once.
// It returns the number of nodes removed.
func (fs *FileSystem) DeleteAll(ns ...Node) int {
	byParent := make(map[*Directory][]Node)
	var order []*Directory
	for _, n := range ns {
		if n == nil || n.Parent() == nil {
			continue
		}
		p := n.Parent()
		if _, seen := byParent[p]; !seen {
			order = append(order, p)
		}
		byParent[p] = append(byParent[p], n)
	}

	removed := 0
	for _, p := range order {
		batch := make([]Node, 0, len(byParent[p]))
		for _, n := range byParent[p] {
			if p.children.Contains(n) {
				batch = append(batch, n)
			}
		}
		if !p.children.RemoveAll(batch) {
			continue
		}
		for _, n := range batch {
			detach(n)
			removed++
		}
	}
	logger := util.GetLogger("FS.DeleteAll")
	logger.Debug().Int("requested", len(ns)).Int("removed", removed).Msg("Deleted nodes")
	return removed
}

// detach drops the parent reference and wipes every payload beneath n
func detach(n Node) {
	n.base().parent = nil
	switch v := n.(type) {
	case *File:
		v.Wipe()
	case *Directory:
		wipeDir(v)
	}
}

func wipeDir(d *Directory) {
	for child := range d.children.All() {
		switch v := child.(type) {
		case *File:
			v.Wipe()
		case *Directory:
			wipeDir(v)
		}
	}
}

// Traverse visits root and everything beneath it depth first, parents before
// children and children in sorted order.
func (fs *FileSystem) Traverse(root *Directory, visit func(Node)) {
	Walk(root, visit)
}

// Walk is [FileSystem.Traverse] without a tree handle
func Walk(root *Directory, visit func(Node)) {
	visit(root)
	for child := range root.children.All() {
		switch v := child.(type) {
		case *Directory:
			Walk(v, visit)
		case *File:
			visit(v)
		}
	}
}
