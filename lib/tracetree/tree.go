// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracetree

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
)

var (
	// ErrNotFound is returned by NodeFor when no node exists at a path.
	ErrNotFound = errors.New("tracetree: no node at path")

	// ErrSealed is returned by every mutation after Tree.Seal.
	ErrSealed = errors.New("tracetree: tree is sealed")

	// ErrNotStarted is returned when an end offset is recorded on a node
	// that never had a start offset.
	ErrNotStarted = errors.New("tracetree: end recorded before start")
)

// Node is the timing record for one field resolution (or list element)
// within a Tree. Its fields stay mutable until the owning tree is
// sealed; the lazy-completion overwrite of the end offset goes through
// SetEnd.
type Node struct {
	tree *Tree
	path Path

	fieldType         string
	parentType        string
	originalFieldName string

	started     bool
	startOffset time.Duration
	endOffset   time.Duration

	errors   []trace.Error
	children []*Node
}

// Path returns the node's path.
func (n *Node) Path() Path { return n.path }

// FieldType returns the field's type signature, e.g. "[Item!]!".
func (n *Node) FieldType() string { return n.fieldType }

// ParentType returns the name of the type declaring the field.
func (n *Node) ParentType() string { return n.parentType }

// OriginalFieldName returns the schema field name when the query
// aliased it. Empty for unaliased fields.
func (n *Node) OriginalFieldName() string { return n.originalFieldName }

// Started reports whether a start offset was recorded.
func (n *Node) Started() bool { return n.started }

// StartOffset returns the start offset relative to the request start.
func (n *Node) StartOffset() time.Duration { return n.startOffset }

// EndOffset returns the end offset relative to the request start.
func (n *Node) EndOffset() time.Duration { return n.endOffset }

// Errors returns a copy of the errors attached to the node.
func (n *Node) Errors() []trace.Error {
	return append([]trace.Error(nil), n.errors...)
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// SetField records the field metadata. fieldName is the schema name of
// the field; it is kept as the original field name only when it
// differs from the path's last segment (the field was aliased).
func (n *Node) SetField(fieldName, fieldType, parentType string) error {
	if n.tree.sealed {
		return ErrSealed
	}
	n.fieldType = fieldType
	n.parentType = parentType
	n.originalFieldName = ""
	if last, ok := n.path.Last(); ok && !last.IsIndex() && last.Name() != fieldName {
		n.originalFieldName = fieldName
	}
	return nil
}

// SetTiming records the start and end offsets of the resolver.
func (n *Node) SetTiming(start, end time.Duration) error {
	if n.tree.sealed {
		return ErrSealed
	}
	n.started = true
	n.startOffset = start
	n.endOffset = end
	return nil
}

// SetEnd overwrites the end offset. Lazy fields finish after their
// resolver returns, so the collector calls this when the lazy value
// completes.
func (n *Node) SetEnd(end time.Duration) error {
	if n.tree.sealed {
		return ErrSealed
	}
	if !n.started {
		return fmt.Errorf("%w: %s", ErrNotStarted, n.path)
	}
	n.endOffset = end
	return nil
}

// Tree owns every Node for one request, indexed by path key.
type Tree struct {
	root   *Node
	nodes  map[string]*Node
	sealed bool
}

// New returns an empty Tree holding only the root node.
func New() *Tree {
	tree := &Tree{nodes: make(map[string]*Node)}
	tree.root = &Node{tree: tree, path: Path{}}
	tree.nodes[""] = tree.root
	return tree
}

// RootNode returns the root node (path []).
func (t *Tree) RootNode() *Node { return t.root }

// Len returns the number of nodes, excluding the root.
func (t *Tree) Len() int { return len(t.nodes) - 1 }

// Add returns the node at path, creating it (and any missing ancestor)
// if needed. Repeated calls with the same path return the same Node.
//
// On a sealed tree Add still returns existing nodes; for a new path it
// returns a detached node that is not indexed and rejects mutation.
func (t *Tree) Add(path Path) *Node {
	key := path.Key()
	if node, ok := t.nodes[key]; ok {
		return node
	}

	owned := append(Path(nil), path...)
	node := &Node{tree: t, path: owned}
	if t.sealed {
		return node
	}

	parent := t.Add(owned.Parent())
	parent.children = append(parent.children, node)
	t.nodes[key] = node
	return node
}

// NodeFor returns the node at exactly path.
func (t *Tree) NodeFor(path Path) (*Node, error) {
	node, ok := t.nodes[path.Key()]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNotFound, path)
	}
	return node, nil
}

// ErrorInfo is an execution error as the engine reports it to the
// client.
type ErrorInfo struct {
	Message    string           `json:"message"`
	Locations  []trace.Location `json:"locations,omitempty"`
	Path       []any            `json:"path,omitempty"`
	Extensions map[string]any   `json:"extensions,omitempty"`
}

// AddError attaches an error descriptor to the node at the error's
// path. When that path was never added (or cannot be parsed), the
// error goes to the longest prefix of it that has a node, ultimately
// the root, so no error is dropped. Returns the node the error was
// attached to; the only error is ErrSealed.
func (t *Tree) AddError(info ErrorInfo) (*Node, error) {
	if t.sealed {
		return nil, ErrSealed
	}

	node := t.root
	if path, err := ParsePath(info.Path); err == nil {
		node = t.nearest(path)
	}

	descriptor := trace.Error{
		Message:   info.Message,
		Locations: info.Locations,
	}
	// ErrorInfo holds only JSON-safe values unless an engine put
	// something exotic in Extensions; the descriptor is still useful
	// without its JSON rendering.
	if encoded, err := json.Marshal(info); err == nil {
		descriptor.JSON = string(encoded)
	}
	node.errors = append(node.errors, descriptor)
	return node, nil
}

func (t *Tree) nearest(path Path) *Node {
	for length := len(path); length > 0; length-- {
		if node, ok := t.nodes[path[:length].Key()]; ok {
			return node
		}
	}
	return t.root
}

// Seal marks the tree immutable. Called once the request's top-level
// completion event fires, before serialization.
func (t *Tree) Seal() { t.sealed = true }

// Sealed reports whether Seal was called.
func (t *Tree) Sealed() bool { return t.sealed }

// Root converts the tree into its wire representation. Children keep
// insertion order; negative offsets (clock skew in fakes) clamp to 0.
func (t *Tree) Root() *trace.Node {
	return toWire(t.root)
}

func toWire(node *Node) *trace.Node {
	wire := &trace.Node{
		OriginalFieldName: node.originalFieldName,
		Type:              node.fieldType,
		ParentType:        node.parentType,
		StartTime:         nanos(node.startOffset),
		EndTime:           nanos(node.endOffset),
		Errors:            node.Errors(),
	}
	if last, ok := node.path.Last(); ok {
		if last.IsIndex() {
			index := uint32(last.Position())
			wire.Index = &index
		} else {
			wire.ResponseName = last.Name()
		}
	}
	for _, child := range node.children {
		wire.Children = append(wire.Children, toWire(child))
	}
	return wire
}

func nanos(offset time.Duration) uint64 {
	if offset < 0 {
		return 0
	}
	return uint64(offset)
}
