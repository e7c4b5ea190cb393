package document

import (
	"strconv"
	"strings"
)

// Document is the JSON-like tree being edited. Values are the usual
// encoding/json shapes: map[string]interface{}, []interface{}, string,
// float64, bool, nil.
type Document = map[string]interface{}

// Token is a single step in a parsed path: an object key or an array index.
type Token struct {
	Key   string
	Index int
	IsIdx bool
}

// Path is a parsed path, computed once and reused instead of re-splitting
// the raw string on every access.
type Path []Token

// ParsePath splits a path like "data.character_book.entries[0].keys" into
// tokens. Bracketed numeric indices are normalized to dotted segments first,
// so "entries[0]" and "entries.0" parse identically.
func ParsePath(raw string) Path {
	normalized := strings.NewReplacer("[", ".", "]", "").Replace(raw)

	parts := strings.Split(normalized, ".")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil && idx >= 0 {
			path = append(path, Token{Index: idx, IsIdx: true})
		} else {
			path = append(path, Token{Key: part})
		}
	}
	return path
}

// String rebuilds the dotted form, mainly for diagnostics.
func (p Path) String() string {
	var sb strings.Builder
	for i, tok := range p {
		if i > 0 {
			sb.WriteString(".")
		}
		if tok.IsIdx {
			sb.WriteString(strconv.Itoa(tok.Index))
		} else {
			sb.WriteString(tok.Key)
		}
	}
	return sb.String()
}

// Get traverses doc along path. The second return is false when any
// intermediate is missing, nil, or of the wrong container type. An explicit
// null leaf returns (nil, true). Get never panics on missing paths.
func Get(doc Document, path Path) (interface{}, bool) {
	if doc == nil {
		return nil, false
	}

	var current interface{} = doc
	for _, tok := range path {
		switch node := current.(type) {
		case map[string]interface{}:
			if tok.IsIdx {
				// Numeric token against an object: treat it as a string key.
				val, ok := node[strconv.Itoa(tok.Index)]
				if !ok {
					return nil, false
				}
				current = val
				continue
			}
			val, ok := node[tok.Key]
			if !ok {
				return nil, false
			}
			current = val
		case []interface{}:
			if !tok.IsIdx || tok.Index >= len(node) {
				return nil, false
			}
			current = node[tok.Index]
		default:
			return nil, false
		}
	}
	return current, true
}

// GetString is a convenience for string-valued leaves.
func GetString(doc Document, path Path) (string, bool) {
	val, ok := Get(doc, path)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// Set writes value at path, mutating doc in place. When autoCreate is true,
// missing intermediates are created (an array when the next token is an
// index, an object otherwise) and primitives in the way are replaced with a
// fresh container. When autoCreate is false the operation aborts without
// touching doc and returns false. The final segment is always assigned
// unconditionally, overwriting whatever is there.
//
// Array indexes past the current length extend the array with nils up to the
// index (so "tags[1]" on a one-element array appends).
func Set(doc Document, path Path, value interface{}, autoCreate bool) bool {
	ok, _ := SetChecked(doc, path, value, autoCreate)
	return ok
}

// SetChecked writes like Set and additionally reports whether a primitive
// intermediate was overwritten with a fresh container on the way down, so
// callers can surface the data loss as a diagnostic.
func SetChecked(doc Document, path Path, value interface{}, autoCreate bool) (ok, replaced bool) {
	if doc == nil || len(path) == 0 {
		return false, false
	}

	var parent interface{} = doc
	for i, tok := range path {
		last := i == len(path)-1

		switch node := parent.(type) {
		case map[string]interface{}:
			key := tok.Key
			if tok.IsIdx {
				key = strconv.Itoa(tok.Index)
			}
			if last {
				node[key] = value
				return true, replaced
			}
			next, exists := node[key]
			if !exists || next == nil || !isContainer(next) {
				if !autoCreate {
					return false, replaced
				}
				if exists && next != nil {
					replaced = true
				}
				next = newContainer(path[i+1])
				node[key] = next
			}
			parent = next

		case []interface{}:
			if !tok.IsIdx {
				// Cannot descend into an array with a string key.
				return false, replaced
			}
			// Arrays may need to grow; growing reallocates, so we have to
			// write the extended slice back through the parent token. Set
			// handles this by pre-extending via the containing map on the
			// previous iteration (see setInSlice).
			ok = setInSlice(node, path[i:], value, autoCreate, &replaced, func(grown []interface{}) bool {
				return writeBack(doc, path[:i], grown)
			})
			return ok, replaced

		default:
			return false, replaced
		}
	}
	return true, replaced
}

// SetByString parses raw and calls Set.
func SetByString(doc Document, raw string, value interface{}, autoCreate bool) bool {
	return Set(doc, ParsePath(raw), value, autoCreate)
}

// GetByString parses raw and calls Get.
func GetByString(doc Document, raw string) (interface{}, bool) {
	return Get(doc, ParsePath(raw))
}

// setInSlice assigns into a slice at rest[0].Index, descending further when
// rest has more tokens. grown is invoked when the slice had to be extended,
// giving the caller a chance to re-attach the reallocated backing array.
// replaced flips to true when a primitive element is stomped to descend.
func setInSlice(node []interface{}, rest Path, value interface{}, autoCreate bool, replaced *bool, grown func([]interface{}) bool) bool {
	idx := rest[0].Index

	if idx >= len(node) {
		if !autoCreate {
			return false
		}
		extended := node
		for len(extended) <= idx {
			extended = append(extended, nil)
		}
		if !grown(extended) {
			return false
		}
		node = extended
	}

	if len(rest) == 1 {
		node[idx] = value
		return true
	}

	next := node[idx]
	if next == nil || !isContainer(next) {
		if !autoCreate {
			return false
		}
		if next != nil {
			*replaced = true
		}
		next = newContainer(rest[1])
		node[idx] = next
	}

	switch child := next.(type) {
	case map[string]interface{}:
		ok, r := SetChecked(child, rest[1:], value, autoCreate)
		if r {
			*replaced = true
		}
		return ok
	case []interface{}:
		return setInSlice(child, rest[1:], value, autoCreate, replaced, func(g []interface{}) bool {
			node[idx] = g
			return true
		})
	}
	return false
}

// writeBack re-attaches a reallocated slice at the container addressed by
// path (which must resolve to the slice's parent slot).
func writeBack(doc Document, path Path, val interface{}) bool {
	if len(path) == 0 {
		return false
	}
	parentPath := path[:len(path)-1]
	tok := path[len(path)-1]

	var parent interface{} = doc
	if len(parentPath) > 0 {
		found, ok := Get(doc, parentPath)
		if !ok {
			return false
		}
		parent = found
	}

	switch node := parent.(type) {
	case map[string]interface{}:
		key := tok.Key
		if tok.IsIdx {
			key = strconv.Itoa(tok.Index)
		}
		node[key] = val
		return true
	case []interface{}:
		if tok.IsIdx && tok.Index < len(node) {
			node[tok.Index] = val
			return true
		}
	}
	return false
}

func isContainer(v interface{}) bool {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return true
	}
	return false
}

// newContainer picks the container type for an auto-vivified intermediate:
// an array when the next token is numeric, an object otherwise.
func newContainer(next Token) interface{} {
	if next.IsIdx {
		return make([]interface{}, 0)
	}
	return make(map[string]interface{})
}
