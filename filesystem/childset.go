package filesystem

import (
	"fmt"
	"iter"
	"strings"
)

// ChildSet is a set of nodes, unique by name, kept in ascending name order.
// Removal leaves a nil slot that the next Sort compacts away, so positional
// indices are always dense after any mutating call returns.
type ChildSet struct {
	nodes []Node
}

func NewChildSet() *ChildSet {
	return &ChildSet{}
}

// Len returns the number of children
func (s *ChildSet) Len() int {
	return len(s.nodes)
}

// Add inserts n and re-sorts. It returns false for a nil node, a node already
// in the set, or a node whose name is already taken.
func (s *ChildSet) Add(n Node) bool {
	if n == nil || s.GetChild(n.Name()) != nil {
		return false
	}
	s.nodes = append(s.nodes, n)
	s.Sort()
	return true
}

// Remove removes n by identity and re-sorts
func (s *ChildSet) Remove(n Node) bool {
	i := s.IndexOf(n)
	if i < 0 {
		return false
	}
	s.nodes[i] = nil
	s.Sort()
	return true
}

// RemoveAll removes every node in ns and re-sorts once at the end.
// It reports whether anything was removed.
func (s *ChildSet) RemoveAll(ns []Node) bool {
	changed := false
	for _, n := range ns {
		if i := s.IndexOf(n); i >= 0 {
			s.nodes[i] = nil
			changed = true
		}
	}
	if changed {
		s.Sort()
	}
	return changed
}

// Get returns the node at index in sorted order. It panics if index is out of range.
func (s *ChildSet) Get(index int) Node {
	if index < 0 || index >= len(s.nodes) {
		panic(fmt.Sprintf("childset: index %d out of range [0,%d)", index, len(s.nodes)))
	}
	return s.nodes[index]
}

// GetChild returns the child with exactly this name or nil
func (s *ChildSet) GetChild(name string) Node {
	for _, n := range s.nodes {
		if n != nil && n.Name() == name {
			return n
		}
	}
	return nil
}

// IndexOf returns the position of n or -1
func (s *ChildSet) IndexOf(n Node) int {
	if n == nil {
		return -1
	}
	for i, c := range s.nodes {
		if c == n {
			return i
		}
	}
	return -1
}

// Contains reports whether n is in the set
func (s *ChildSet) Contains(n Node) bool {
	return s.IndexOf(n) >= 0
}

// All iterates the children in sorted order
func (s *ChildSet) All() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, n := range s.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// Nodes returns a copy of the children in sorted order
func (s *ChildSet) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Sort compacts out removed slots and merge sorts the remainder by name.
func (s *ChildSet) Sort() {
	live := s.nodes[:0]
	for _, n := range s.nodes {
		if n != nil {
			live = append(live, n)
		}
	}
	clear(s.nodes[len(live):])
	s.nodes = live
	if len(live) < 2 {
		return
	}
	mergeSort(live, make([]Node, len(live)))
}

// mergeSort sorts a by name using buf as scratch space of equal length.
// Equal keys keep their relative order.
func mergeSort(a, buf []Node) {
	if len(a) < 2 {
		return
	}
	mid := len(a) / 2
	mergeSort(a[:mid], buf[:mid])
	mergeSort(a[mid:], buf[mid:])
	merge(a, mid, buf)
}

func merge(a []Node, mid int, buf []Node) {
	i, j, k := 0, mid, 0
	for i < mid && j < len(a) {
		if strings.Compare(a[i].Name(), a[j].Name()) <= 0 {
			buf[k] = a[i]
			i++
		} else {
			buf[k] = a[j]
			j++
		}
		k++
	}
	k += copy(buf[k:], a[i:mid])
	copy(buf[k:], a[j:])
	copy(a, buf)
}

func (s *ChildSet) String() string {
	names := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		names = append(names, n.Path())
	}
	return "[" + strings.Join(names, ", ") + "]"
}
