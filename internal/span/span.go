// Package span holds the source-position and node-identity primitives
// shared by every other package: Span (a lexical extent), Path (a node's
// structural address) and StringPath (a declaration's fully-qualified name).
package span

import "strings"

// Span is a lexical extent in a single source file. Lines and columns are
// 1-based; offsets are 0-based byte offsets into the file.
type Span struct {
	StartLine   int
	StartCol    int
	EndLine     int
	EndCol      int
	StartOffset int
	EndOffset   int
}

// Contains reports whether (line, col) falls within the span, inclusive
// of both endpoints.
func (s Span) Contains(line, col int) bool {
	if line < s.StartLine || line > s.EndLine {
		return false
	}
	if line == s.StartLine && col < s.StartCol {
		return false
	}
	if line == s.EndLine && col > s.EndCol {
		return false
	}
	return true
}

// Join returns the smallest span covering both s and other. Both spans
// must belong to the same source.
func Join(s, other Span) Span {
	joined := s
	if other.StartLine < joined.StartLine || (other.StartLine == joined.StartLine && other.StartCol < joined.StartCol) {
		joined.StartLine, joined.StartCol = other.StartLine, other.StartCol
	}
	if other.EndLine > joined.EndLine || (other.EndLine == joined.EndLine && other.EndCol > joined.EndCol) {
		joined.EndLine, joined.EndCol = other.EndLine, other.EndCol
	}
	if other.StartOffset < joined.StartOffset {
		joined.StartOffset = other.StartOffset
	}
	if other.EndOffset > joined.EndOffset {
		joined.EndOffset = other.EndOffset
	}
	return joined
}

// Path addresses a node within a schema: the first element is the owning
// source's id, subsequent elements are positional indices within nested
// containers. Two nodes share a path iff they are the same node.
type Path []int

// Equal reports whether two paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Child returns a new path extending p with an additional positional index.
func (p Path) Child(index int) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = index
	return child
}

// SourceID returns the path's first element, the id of the owning source.
func (p Path) SourceID() int {
	if len(p) == 0 {
		return -1
	}
	return p[0]
}

// StringPath is the fully-qualified name of a named declaration: the
// sequence of identifiers from the root namespace down to the declaration
// itself.
type StringPath []string

// String renders the path dot-joined, e.g. "std.User.id".
func (p StringPath) String() string {
	return strings.Join(p, ".")
}

// Child returns a new StringPath with name appended.
func (p StringPath) Child(name string) StringPath {
	child := make(StringPath, len(p)+1)
	copy(child, p)
	child[len(p)] = name
	return child
}

// Equal reports structural equality.
func (p StringPath) Equal(other StringPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}
