// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import sitter "github.com/smacker/go-tree-sitter"

// collectNodes gathers every descendant of n (n included) whose grammar
// type matches nodeType, in document order.
func collectNodes(n *sitter.Node, nodeType string) []*sitter.Node {
	var out []*sitter.Node
	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if node.Type() == nodeType {
			out = append(out, node)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(n)
	return out
}

// firstChildOfType returns the first direct child of n with the given
// grammar type, or nil.
func firstChildOfType(n *sitter.Node, nodeType string) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == nodeType {
			return c
		}
	}
	return nil
}

// childByFieldOrType returns the node bound to fieldName if the grammar
// exposes it, falling back to the first child matching fallbackType. Older
// or partial grammars sometimes omit field bindings the analyzer otherwise
// relies on, so every extraction point tolerates that gracefully rather
// than failing the whole file.
func childByFieldOrType(n *sitter.Node, fieldName, fallbackType string) *sitter.Node {
	if n == nil {
		return nil
	}
	if f := n.ChildByFieldName(fieldName); f != nil {
		return f
	}
	return firstChildOfType(n, fallbackType)
}

// nodeText returns the raw source text spanned by n, or "" for nil.
func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(source)
}
