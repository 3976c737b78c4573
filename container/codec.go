// Package container converts a node tree to and from the single-buffer
// container layout:
//
//	[MFT_LEN u32][MFT][DATA_LEN u32][DATA][META_LEN u32][META]
//
// All integers are big-endian. MFT holds one entry per non-root node in
// traversal order; DATA holds a size-prefixed payload per file; META holds
// each file's key/value pairs, or the NoMetadata sentinel for files without any.
package container

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/brettbedarf/vfs"
	"github.com/brettbedarf/vfs/config"
	"github.com/brettbedarf/vfs/filesystem"
	"github.com/brettbedarf/vfs/internal/util"
)

// MFT entry type tags
const (
	TagDirectory byte = 'D'
	TagFile      byte = 'F'
)

// NoMetadata is written in place of the first key length of a file that has
// no metadata entries. Keys may never be this long.
const NoMetadata uint32 = 0x7FFFFFFF

const lenSize = 4

// Encode serializes every node beneath root. The whole container is assembled
// in memory before it is returned.
func Encode(root *filesystem.Directory) ([]byte, error) {
	logger := util.GetLogger("Codec.Encode")

	// DATA and META are written in one pass that also records each file's DATA
	// offset; the MFT pass reads the offsets back by file identity.
	offsets := make(map[*filesystem.File]uint32)
	var data, meta []byte
	var err error
	filesystem.Walk(root, func(n filesystem.Node) {
		f, ok := n.(*filesystem.File)
		if !ok || err != nil {
			return
		}
		if uint64(len(data))+lenSize+uint64(f.Size()) > math.MaxUint32 {
			err = fmt.Errorf("%w: data section overflows at %s", vfs.ErrContainerTooLarge, f.Path())
			return
		}
		offsets[f] = uint32(len(data))
		payload := f.Data()
		data = binary.BigEndian.AppendUint32(data, uint32(len(payload)))
		data = append(data, payload...)

		meta, err = appendMeta(meta, f)
	})
	if err != nil {
		return nil, err
	}

	var mft []byte
	filesystem.Walk(root, func(n filesystem.Node) {
		if err != nil || n == filesystem.Node(root) {
			return
		}
		switch v := n.(type) {
		case *filesystem.Directory:
			mft = append(mft, TagDirectory)
		case *filesystem.File:
			mft = append(mft, TagFile)
			mft = binary.BigEndian.AppendUint32(mft, offsets[v])
			mft = binary.BigEndian.AppendUint32(mft, uint32(v.MetaLen()))
		}
		mft, err = appendString(mft, n.Path())
	})
	if err != nil {
		return nil, err
	}

	for _, section := range [][]byte{mft, data, meta} {
		if uint64(len(section)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: section of %d bytes", vfs.ErrContainerTooLarge, len(section))
		}
	}

	out := make([]byte, 0, 3*lenSize+len(mft)+len(data)+len(meta))
	for _, section := range [][]byte{mft, data, meta} {
		out = binary.BigEndian.AppendUint32(out, uint32(len(section)))
		out = append(out, section...)
	}
	logger.Debug().
		Int("mft", len(mft)).
		Int("data", len(data)).
		Int("meta", len(meta)).
		Int("files", len(offsets)).
		Msg("Encoded container")
	return out, nil
}

// appendMeta writes f's entries in ascending key order so equal trees
// always encode to equal bytes.
func appendMeta(meta []byte, f *filesystem.File) ([]byte, error) {
	if f.MetaLen() == 0 {
		return binary.BigEndian.AppendUint32(meta, NoMetadata), nil
	}
	var err error
	for _, k := range f.MetaKeys() {
		if uint64(len(k)) >= uint64(NoMetadata) {
			return nil, fmt.Errorf("%w: metadata key of %d bytes on %s", vfs.ErrContainerTooLarge, len(k), f.Path())
		}
		v, _ := f.Meta(k)
		if meta, err = appendString(meta, k); err != nil {
			return nil, err
		}
		if meta, err = appendString(meta, v); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

func appendString(b []byte, s string) ([]byte, error) {
	if uint64(len(s)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: string of %d bytes", vfs.ErrContainerTooLarge, len(s))
	}
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...), nil
}

// reader is a bounds checked forward cursor over one section
type reader struct {
	section string
	buf     []byte
	off     int
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{vfs.ErrCorruptContainer}, args...)...)
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) next(n uint64) ([]byte, error) {
	if n > uint64(r.remaining()) {
		return nil, corrupt("%s: need %d bytes at offset %d, have %d", r.section, n, r.off, r.remaining())
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.next(lenSize)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.next(uint64(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *reader) lengthPrefixed() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.next(uint64(n))
}

// Decode builds a new tree from container bytes. On error no tree is returned,
// so a caller's existing tree is never left half populated.
func Decode(data []byte, cfg *config.Config) (*filesystem.FileSystem, error) {
	logger := util.GetLogger("Codec.Decode")

	top := &reader{section: "container", buf: data}
	mftSec, err := top.lengthPrefixed()
	if err != nil {
		return nil, err
	}
	dataSec, err := top.lengthPrefixed()
	if err != nil {
		return nil, err
	}
	metaSec, err := top.lengthPrefixed()
	if err != nil {
		return nil, err
	}
	if top.remaining() != 0 {
		return nil, corrupt("%d trailing bytes after META", top.remaining())
	}

	fs := filesystem.NewFS(cfg)
	mft := &reader{section: "MFT", buf: mftSec}
	meta := &reader{section: "META", buf: metaSec}
	dirs, files := 0, 0
	for mft.remaining() > 0 {
		tag, err := mft.u8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case TagDirectory:
			p, err := mft.str()
			if err != nil {
				return nil, err
			}
			if err := decodeDir(fs, p); err != nil {
				return nil, err
			}
			dirs++
		case TagFile:
			offset, err := mft.u32()
			if err != nil {
				return nil, err
			}
			count, err := mft.u32()
			if err != nil {
				return nil, err
			}
			p, err := mft.str()
			if err != nil {
				return nil, err
			}
			if err := decodeFile(fs, p, dataSec, offset, meta, count); err != nil {
				return nil, err
			}
			files++
		default:
			return nil, corrupt("unknown MFT tag 0x%02x at offset %d", tag, mft.off-1)
		}
	}
	if meta.remaining() != 0 {
		return nil, corrupt("%d unread bytes in META", meta.remaining())
	}

	logger.Debug().Int("dirs", dirs).Int("files", files).Msg("Decoded container")
	return fs, nil
}

// splitEntryPath validates an MFT path and returns the final component
func splitEntryPath(p string) (string, error) {
	if !strings.HasPrefix(p, filesystem.Separator) || p == filesystem.Separator {
		return "", corrupt("invalid entry path %q", p)
	}
	name := p[strings.LastIndex(p, filesystem.Separator)+1:]
	if err := filesystem.ValidateName(name); err != nil {
		return "", corrupt("invalid entry path %q: %w", p, err)
	}
	return name, nil
}

func entryParent(fs *filesystem.FileSystem, p string) (*filesystem.Directory, string, error) {
	name, err := splitEntryPath(p)
	if err != nil {
		return nil, "", err
	}
	parent, err := fs.CreateParents(p)
	if err != nil {
		return nil, "", corrupt("parent of %s: %w", p, err)
	}
	return parent, name, nil
}

func decodeDir(fs *filesystem.FileSystem, p string) error {
	parent, name, err := entryParent(fs, p)
	if err != nil {
		return err
	}
	switch parent.GetChild(name).(type) {
	case *filesystem.Directory:
		// already created implicitly by a deeper entry
		return nil
	case *filesystem.File:
		return corrupt("directory %s collides with a file", p)
	}
	if _, err := fs.NewDirectory(parent, name); err != nil {
		return corrupt("directory %s: %w", p, err)
	}
	return nil
}

func decodeFile(fs *filesystem.FileSystem, p string, dataSec []byte, offset uint32, meta *reader, count uint32) error {
	parent, name, err := entryParent(fs, p)
	if err != nil {
		return err
	}

	payload := &reader{section: "DATA", buf: dataSec, off: 0}
	if _, err := payload.next(uint64(offset)); err != nil {
		return corrupt("file %s: data offset %d out of range", p, offset)
	}
	body, err := payload.lengthPrefixed()
	if err != nil {
		return fmt.Errorf("file %s: %w", p, err)
	}

	pairs := make([][2]string, 0, min(count, 64))
	if count == 0 {
		sentinel, err := meta.u32()
		if err != nil {
			return fmt.Errorf("file %s: %w", p, err)
		}
		if sentinel != NoMetadata {
			return corrupt("file %s: expected empty metadata marker, got %d", p, sentinel)
		}
	}
	for range count {
		k, err := meta.str()
		if err != nil {
			return fmt.Errorf("file %s: %w", p, err)
		}
		v, err := meta.str()
		if err != nil {
			return fmt.Errorf("file %s: %w", p, err)
		}
		pairs = append(pairs, [2]string{k, v})
	}

	f, err := fs.NewFile(parent, name)
	if err != nil {
		return corrupt("file %s: %w", p, err)
	}
	if len(body) > 0 {
		f.SetData(body)
	}
	for _, kv := range pairs {
		f.SetMeta(kv[0], kv[1])
	}
	return nil
}
