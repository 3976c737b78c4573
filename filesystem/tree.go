package filesystem

import (
	"io"
	"strings"

	"github.com/brettbedarf/vfs/config"
	"github.com/dustin/go-humanize"
)

type treeGlyphs struct {
	pipe, tee, elbow, blank string
}

var (
	asciiGlyphs   = treeGlyphs{pipe: "|   ", tee: "|-- ", elbow: "`-- ", blank: "    "}
	unicodeGlyphs = treeGlyphs{pipe: "│   ", tee: "├── ", elbow: "└── ", blank: "    "}
)

// DumpOptions controls [Dump] output
type DumpOptions struct {
	Style string // config.TreeStyleASCII or config.TreeStyleUnicode
	Sizes bool   // append human readable sizes
}

// HumanSize formats a byte count with SI units, e.g. "1.2 kB"
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Dump writes a recursive tree view of dir to w. Directories end in "/".
// This is a diagnostic view only.
func Dump(w io.Writer, dir *Directory, opts DumpOptions) error {
	g := unicodeGlyphs
	if opts.Style == config.TreeStyleASCII {
		g = asciiGlyphs
	}

	var sb strings.Builder
	if dir.Parent() == nil && dir.Name() == "" {
		sb.WriteString(Separator)
	} else {
		sb.WriteString(dir.Name() + Separator)
	}
	writeSize(&sb, dir, opts)
	sb.WriteByte('\n')
	dumpChildren(&sb, dir, "", g, opts)

	_, err := io.WriteString(w, sb.String())
	return err
}

func dumpChildren(sb *strings.Builder, dir *Directory, prefix string, g treeGlyphs, opts DumpOptions) {
	n := dir.children.Len()
	for i := range n {
		child := dir.children.Get(i)
		last := i == n-1

		sb.WriteString(prefix)
		if last {
			sb.WriteString(g.elbow)
		} else {
			sb.WriteString(g.tee)
		}
		sb.WriteString(child.Name())

		sub, isDir := child.(*Directory)
		if isDir {
			sb.WriteString(Separator)
		}
		writeSize(sb, child, opts)
		sb.WriteByte('\n')

		if isDir {
			next := prefix + g.pipe
			if last {
				next = prefix + g.blank
			}
			dumpChildren(sb, sub, next, g, opts)
		}
	}
}

func writeSize(sb *strings.Builder, n Node, opts DumpOptions) {
	if !opts.Sizes {
		return
	}
	sb.WriteString(" (")
	sb.WriteString(HumanSize(n.Size()))
	sb.WriteString(")")
}
