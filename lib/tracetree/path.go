// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracetree

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Segment is one step of a Path: a field response name or a list index.
type Segment struct {
	name    string
	index   int
	isIndex bool
}

// Field returns a Segment naming a field by its response name (the
// alias, if the query aliased the field).
func Field(name string) Segment { return Segment{name: name} }

// Index returns a Segment addressing element i of a list.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment is a list index.
func (s Segment) IsIndex() bool { return s.isIndex }

// Name returns the field name. Empty for index segments.
func (s Segment) Name() string { return s.name }

// Position returns the list index. Zero for field segments.
func (s Segment) Position() int { return s.index }

// String renders the segment as it appears in a path key.
func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.name
}

// Path addresses a node within a request's execution tree. The empty
// Path is the root.
type Path []Segment

// NewPath builds a Path from field names (string) and list indexes
// (int). It panics on any other element type; use ParsePath for
// untrusted input.
func NewPath(elements ...any) Path {
	path, err := ParsePath(elements)
	if err != nil {
		panic(err)
	}
	return path
}

// ParsePath converts an engine or JSON error path into a Path. Strings
// become field segments; integers, and float64 values holding whole
// numbers (as produced by encoding/json), become index segments.
func ParsePath(elements []any) (Path, error) {
	path := make(Path, 0, len(elements))
	for position, element := range elements {
		switch value := element.(type) {
		case string:
			path = append(path, Field(value))
		case int:
			segment, err := indexSegment(position, int64(value))
			if err != nil {
				return nil, err
			}
			path = append(path, segment)
		case int64:
			segment, err := indexSegment(position, value)
			if err != nil {
				return nil, err
			}
			path = append(path, segment)
		case uint64:
			if value > math.MaxUint32 {
				return nil, fmt.Errorf("path element %d: index %d out of range", position, value)
			}
			path = append(path, Index(int(value)))
		case float64:
			if value != math.Trunc(value) || value < 0 || value > math.MaxUint32 {
				return nil, fmt.Errorf("path element %d: %v is not a list index", position, value)
			}
			path = append(path, Index(int(value)))
		default:
			return nil, fmt.Errorf("path element %d: unsupported type %T", position, element)
		}
	}
	return path, nil
}

// indexSegment validates a signed list index. Wire indexes are uint32.
func indexSegment(position int, value int64) (Segment, error) {
	if value < 0 || value > math.MaxUint32 {
		return Segment{}, fmt.Errorf("path element %d: index %d out of range", position, value)
	}
	return Index(int(value)), nil
}

// Key returns the unique string key for the path: segments joined by
// ".". GraphQL names cannot contain ".", so keys never collide.
func (p Path) Key() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, len(p))
	for i, segment := range p {
		parts[i] = segment.String()
	}
	return strings.Join(parts, ".")
}

// Parent returns the path without its last segment. The parent of the
// root is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final segment. The boolean is false for the root.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// String renders the path for logs.
func (p Path) String() string {
	return "[" + p.Key() + "]"
}
