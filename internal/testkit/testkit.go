// Package testkit holds structural checks shared by tests of several packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"monty/internal/ast"
	"monty/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed module:
// 1) every node span points at sf and lies within its content
// 2) statements of each body appear in source order without overlapping
// 3) the module span covers the union of its statement spans
func CheckSpanInvariants(tree *ast.Tree, sf *source.File) error {
	if tree == nil || sf == nil {
		return fmt.Errorf("nil tree or file")
	}
	if !tree.Root.IsValid() || tree.Kind(tree.Root) != ast.KindModule {
		return fmt.Errorf("root is not a module")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length overflow: %w", err)
	}

	var firstErr error
	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		if firstErr != nil {
			return false
		}
		sp := tree.Span(id)
		switch {
		case sp.File != sf.ID:
			firstErr = fmt.Errorf("node %d (%s): span points to file %d, want %d", id, tree.Kind(id), sp.File, sf.ID)
		case sp.End < sp.Start || sp.End > size:
			firstErr = fmt.Errorf("node %d (%s): span %v outside content of %d bytes", id, tree.Kind(id), sp, size)
		default:
			firstErr = checkBody(tree, id)
		}
		return firstErr == nil
	})
	if firstErr != nil {
		return firstErr
	}

	body := tree.Body(tree.Root)
	if len(body) == 0 {
		return nil
	}
	mod := tree.Span(tree.Root)
	union := tree.Span(body[0]).Cover(tree.Span(body[len(body)-1]))
	if !mod.Contains(union) {
		return fmt.Errorf("module span %v does not cover statements %v", mod, union)
	}
	return nil
}

func checkBody(tree *ast.Tree, id ast.NodeID) error {
	body := tree.Body(id)
	for i := 1; i < len(body); i++ {
		prev, cur := tree.Span(body[i-1]), tree.Span(body[i])
		if !prev.Precedes(cur) {
			return fmt.Errorf("node %d (%s): statement %d at %v overlaps statement %d at %v", id, tree.Kind(id), i-1, prev, i, cur)
		}
	}
	return nil
}
