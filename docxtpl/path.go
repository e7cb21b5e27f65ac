package docxtpl

import (
	"strconv"
	"strings"

	"github.com/docxmerge/docxtemplate/value"
)

// pathSegment is one hop of a parsed path: either a named field or a
// bracketed array index.
type pathSegment struct {
	name    string
	index   int
	isIndex bool
}

// parsePathSegments tokenizes a dotted/bracketed path into segments,
// trimming whitespace around names and rejecting any bracket whose
// content isn't a plain integer.
func parsePathSegments(path string) ([]pathSegment, error) {
	var segs []pathSegment
	i, n := 0, len(path)
	for i < n {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, &InvalidPathError{Path: path, Msg: "unterminated '['"}
			}
			inner := strings.TrimSpace(path[i+1 : i+end])
			idx, err := strconv.Atoi(inner)
			if err != nil {
				return nil, &InvalidPathError{Path: path, Msg: "bracket segment must be an integer index"}
			}
			segs = append(segs, pathSegment{index: idx, isIndex: true})
			i += end + 1
		default:
			j := i
			for j < n && path[j] != '.' && path[j] != '[' {
				j++
			}
			name := strings.TrimSpace(path[i:j])
			if name != "" {
				segs = append(segs, pathSegment{name: name})
			}
			i = j
		}
	}
	return segs, nil
}

// PathResolver resolves directive path expressions: "." for the current
// scope, "$" / "$.rest" for the document root, and dotted/bracketed paths
// resolved against the scope chain.
type PathResolver struct{}

// Resolve evaluates path against ctx, applying the scope-walk lookup
// policy: try ctx.Current() first, then each ancestor frame's current
// value, then the document root, returning the first non-null hit.
func (PathResolver) Resolve(ctx *Context, path string) (value.Value, error) {
	switch {
	case path == ".":
		return ctx.Current(), nil
	case path == "$":
		return ctx.Root(), nil
	case strings.HasPrefix(path, "$."):
		return ResolveFrom(ctx.Root(), path[2:])
	}

	segs, err := parsePathSegments(path)
	if err != nil {
		return value.Null, err
	}

	for frame := ctx; frame != nil; frame = frame.parent {
		if v := resolveSegments(frame.Current(), segs); !v.IsNull() {
			return v, nil
		}
	}
	return resolveSegments(ctx.Root(), segs), nil
}

// ResolveFrom is a pure traversal with no scope walk: it looks up path
// directly against start, used by operators (sort, get, pick, ...) that
// project into a specific value rather than the ambient template scope.
func ResolveFrom(start value.Value, path string) (value.Value, error) {
	if path == "." || path == "$" {
		return start, nil
	}
	path = strings.TrimPrefix(path, "$.")

	segs, err := parsePathSegments(path)
	if err != nil {
		return value.Null, err
	}
	return resolveSegments(start, segs), nil
}

// resolveSegments walks the segment chain directly against start's ordered
// Value tree, one hop per segment, using case-sensitive Get for named
// segments and Index for bracketed ones. A miss at any hop (wrong kind,
// missing key, out-of-range index) yields Null immediately rather than
// propagating an error. Traversing Value directly, rather than through a
// plain-Go-value round trip, keeps an Object's authored key order intact
// when the resolved value is itself substituted whole, e.g. rendered via
// ToText.
func resolveSegments(start value.Value, segs []pathSegment) value.Value {
	cur := start
	for _, s := range segs {
		if cur.IsNull() {
			return value.Null
		}
		if s.isIndex {
			cur = cur.Index(s.index)
		} else {
			cur = cur.Get(s.name)
		}
	}
	return cur
}
