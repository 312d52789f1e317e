// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tracetree

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/graphtrace/lib/schema/trace"
)

func TestAddIsIdempotent(t *testing.T) {
	tree := New()
	path := NewPath("user", "friends", 2, "name")

	first := tree.Add(path)
	second := tree.Add(NewPath("user", "friends", 2, "name"))
	if first != second {
		t.Fatal("Add returned a different node for the same path")
	}

	found, err := tree.NodeFor(path)
	if err != nil {
		t.Fatalf("NodeFor after Add: %v", err)
	}
	if found != first {
		t.Fatal("NodeFor returned a different node than Add")
	}
}

func TestAddMaterializesAncestors(t *testing.T) {
	tree := New()
	tree.Add(NewPath("items", 1, "price"))

	for _, path := range []Path{NewPath("items"), NewPath("items", 1)} {
		if _, err := tree.NodeFor(path); err != nil {
			t.Errorf("ancestor %s missing: %v", path, err)
		}
	}
	if tree.Len() != 3 {
		t.Errorf("Len = %d, want 3", tree.Len())
	}

	// Every node's parent path resolves to a node: no orphans.
	var walk func(node *Node)
	walk = func(node *Node) {
		for _, child := range node.Children() {
			parent, err := tree.NodeFor(child.Path().Parent())
			if err != nil || parent != node {
				t.Errorf("child %s not linked under its parent path", child.Path())
			}
			walk(child)
		}
	}
	walk(tree.RootNode())
}

func TestAddCopiesCallerPath(t *testing.T) {
	tree := New()
	path := NewPath("a", "b")
	node := tree.Add(path)
	path[1] = Field("mutated")

	if node.Path().Key() != "a.b" {
		t.Errorf("node path changed with caller's slice: %s", node.Path())
	}
}

func TestNodeForMissingPath(t *testing.T) {
	tree := New()
	_, err := tree.NodeFor(NewPath("missing"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("NodeFor error = %v, want ErrNotFound", err)
	}
}

func TestSetFieldRecordsAliasOnly(t *testing.T) {
	tree := New()

	plain := tree.Add(NewPath("name"))
	if err := plain.SetField("name", "String!", "User"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if plain.OriginalFieldName() != "" {
		t.Errorf("unaliased field recorded original name %q", plain.OriginalFieldName())
	}

	aliased := tree.Add(NewPath("displayName"))
	if err := aliased.SetField("name", "String!", "User"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if aliased.OriginalFieldName() != "name" {
		t.Errorf("OriginalFieldName = %q, want name", aliased.OriginalFieldName())
	}
	if aliased.FieldType() != "String!" || aliased.ParentType() != "User" {
		t.Errorf("field metadata = %q/%q", aliased.FieldType(), aliased.ParentType())
	}
}

func TestLazyEndOverwrite(t *testing.T) {
	tree := New()
	node := tree.Add(NewPath("slow"))

	if err := node.SetEnd(5 * time.Millisecond); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("SetEnd before start = %v, want ErrNotStarted", err)
	}

	if err := node.SetTiming(time.Millisecond, 2*time.Millisecond); err != nil {
		t.Fatalf("SetTiming: %v", err)
	}
	if err := node.SetEnd(9 * time.Millisecond); err != nil {
		t.Fatalf("SetEnd: %v", err)
	}
	if node.StartOffset() != time.Millisecond || node.EndOffset() != 9*time.Millisecond {
		t.Errorf("offsets = %v..%v, want 1ms..9ms", node.StartOffset(), node.EndOffset())
	}
}

func TestAddErrorAtExactPath(t *testing.T) {
	tree := New()
	node := tree.Add(NewPath("user", "email"))

	attached, err := tree.AddError(ErrorInfo{
		Message:   "forbidden",
		Path:      []any{"user", "email"},
		Locations: []trace.Location{{Line: 3, Column: 5}},
	})
	if err != nil {
		t.Fatalf("AddError: %v", err)
	}
	if attached != node {
		t.Fatalf("error attached to %s, want %s", attached.Path(), node.Path())
	}

	errs := node.Errors()
	if len(errs) != 1 || errs[0].Message != "forbidden" || errs[0].Locations[0].Line != 3 {
		t.Fatalf("unexpected errors: %+v", errs)
	}

	var rendered map[string]any
	if err := json.Unmarshal([]byte(errs[0].JSON), &rendered); err != nil {
		t.Fatalf("error JSON does not parse: %v", err)
	}
	if rendered["message"] != "forbidden" {
		t.Errorf("error JSON = %s", errs[0].JSON)
	}
}

func TestAddErrorFallsBackToNearestAncestor(t *testing.T) {
	tree := New()
	list := tree.Add(NewPath("orders"))

	// encoding/json decodes list indexes as float64.
	attached, err := tree.AddError(ErrorInfo{Message: "boom", Path: []any{"orders", float64(4), "total"}})
	if err != nil {
		t.Fatalf("AddError: %v", err)
	}
	if attached != list {
		t.Fatalf("error attached to %s, want [orders]", attached.Path())
	}

	tests := []struct {
		name string
		path []any
	}{
		{"no path", nil},
		{"unknown root field", []any{"nothing"}},
		{"unparseable element", []any{"orders", true}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			attached, err := tree.AddError(ErrorInfo{Message: test.name, Path: test.path})
			if err != nil {
				t.Fatalf("AddError: %v", err)
			}
			if attached != tree.RootNode() {
				t.Fatalf("attached to %s, want root", attached.Path())
			}
		})
	}
	if got := len(tree.RootNode().Errors()); got != 3 {
		t.Errorf("root has %d errors, want 3", got)
	}
}

func TestSealRejectsMutation(t *testing.T) {
	tree := New()
	node := tree.Add(NewPath("a"))
	if err := node.SetTiming(0, time.Millisecond); err != nil {
		t.Fatalf("SetTiming: %v", err)
	}
	tree.Seal()

	if !tree.Sealed() {
		t.Fatal("Sealed() = false after Seal")
	}
	if err := node.SetEnd(time.Second); !errors.Is(err, ErrSealed) {
		t.Errorf("SetEnd after Seal = %v, want ErrSealed", err)
	}
	if err := node.SetField("a", "Int", "Query"); !errors.Is(err, ErrSealed) {
		t.Errorf("SetField after Seal = %v, want ErrSealed", err)
	}
	if _, err := tree.AddError(ErrorInfo{Message: "late"}); !errors.Is(err, ErrSealed) {
		t.Errorf("AddError after Seal = %v, want ErrSealed", err)
	}

	if tree.Add(NewPath("a")) != node {
		t.Error("Add on a sealed tree did not return the existing node")
	}
	detached := tree.Add(NewPath("b"))
	if _, err := tree.NodeFor(NewPath("b")); !errors.Is(err, ErrNotFound) {
		t.Error("Add on a sealed tree indexed a new node")
	}
	if err := detached.SetTiming(0, 1); !errors.Is(err, ErrSealed) {
		t.Errorf("detached node accepted mutation: %v", err)
	}
}

func TestRootBuildsWireTree(t *testing.T) {
	tree := New()
	items := tree.Add(NewPath("items"))
	items.SetField("items", "[Item]", "Query")
	items.SetTiming(10, 90)
	price := tree.Add(NewPath("items", 0, "cost"))
	price.SetField("price", "Int", "Item")
	price.SetTiming(20, 30)
	tree.Add(NewPath("viewer")).SetTiming(5, -1)

	root := tree.Root()
	if root.ResponseName != "" || root.Index != nil {
		t.Fatalf("root carries an address: %+v", root)
	}
	if len(root.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(root.Children))
	}

	wireItems := root.Children[0]
	if wireItems.ResponseName != "items" || wireItems.Type != "[Item]" || wireItems.StartTime != 10 || wireItems.EndTime != 90 {
		t.Errorf("items node = %+v", wireItems)
	}
	element := wireItems.Children[0]
	if element.Index == nil || *element.Index != 0 || element.ResponseName != "" {
		t.Errorf("list element node = %+v", element)
	}
	cost := element.Children[0]
	if cost.ResponseName != "cost" || cost.OriginalFieldName != "price" || cost.ParentType != "Item" {
		t.Errorf("aliased node = %+v", cost)
	}

	if viewer := root.Children[1]; viewer.EndTime != 0 {
		t.Errorf("negative offset not clamped: %+v", viewer)
	}
}

func TestParsePath(t *testing.T) {
	path, err := ParsePath([]any{"a", 1, int64(2), uint64(3), float64(4)})
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if path.Key() != "a.1.2.3.4" {
		t.Errorf("Key = %q", path.Key())
	}
	if _, err := ParsePath([]any{"a", 1.5}); err == nil {
		t.Error("ParsePath accepted a fractional index")
	}
	if _, err := ParsePath([]any{map[string]any{}}); err == nil {
		t.Error("ParsePath accepted a map element")
	}
	for _, index := range []any{-1, int64(-7), float64(-2), uint64(1) << 40, int64(1) << 33} {
		if _, err := ParsePath([]any{"items", index}); err == nil {
			t.Errorf("ParsePath accepted out-of-range index %v (%T)", index, index)
		}
	}
}

func TestAddErrorWithNegativeIndexGoesToRoot(t *testing.T) {
	tree := New()
	tree.Add(NewPath("items", 0))

	attached, err := tree.AddError(ErrorInfo{Message: "bad index", Path: []any{"items", -1}})
	if err != nil {
		t.Fatalf("AddError: %v", err)
	}
	if attached != tree.RootNode() {
		t.Fatalf("attached to %s, want root", attached.Path())
	}
}
