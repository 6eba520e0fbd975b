// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import "sort"

// Graph is a `name -> {name}` dependency graph plus its reverse index.
//
// Thread safety: Graph is not safe for concurrent mutation. Under
// sequential conversion this is automatic; under parallel_execution the
// orchestrator serializes every mutating call behind a single mutex so
// same-rank goroutines never touch a Graph at the same instant.
type Graph struct {
	forward   map[string]map[string]bool // node -> its dependencies
	reverse   map[string]map[string]bool // node -> nodes that depend on it
	converted map[string]bool
	order     map[string]int // conversion_order, set only after a successful topo-sort
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		forward:   make(map[string]map[string]bool),
		reverse:   make(map[string]map[string]bool),
		converted: make(map[string]bool),
		order:     make(map[string]int),
	}
}

// AddNode registers name in the graph if absent. It is idempotent.
func (g *Graph) AddNode(name string) {
	if _, ok := g.forward[name]; !ok {
		g.forward[name] = make(map[string]bool)
	}
	if _, ok := g.reverse[name]; !ok {
		g.reverse[name] = make(map[string]bool)
	}
}

// AddEdge records that `from` depends on `to`. Both nodes are created if
// they don't already exist (an unresolved include becomes a dangling node
// rather than an error).
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.forward[from][to] = true
	g.reverse[to][from] = true
}

// Nodes returns every node name, sorted for deterministic iteration.
func (g *Graph) Nodes() []string {
	names := make([]string, 0, len(g.forward))
	for n := range g.forward {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the sorted dependency set of a node.
func (g *Graph) Dependencies(name string) []string {
	return sortedKeys(g.forward[name])
}

// Dependents returns the sorted set of nodes that depend on name.
func (g *Graph) Dependents(name string) []string {
	return sortedKeys(g.reverse[name])
}

// IsConverted reports whether MarkConverted has been called for name.
func (g *Graph) IsConverted(name string) bool {
	return g.converted[name]
}

// MarkConverted is the only mutation (besides AddNode/AddEdge) that changes
// readiness. It is idempotent.
func (g *Graph) MarkConverted(name string) {
	g.AddNode(name)
	g.converted[name] = true
}

// ConversionOrder returns the position assigned to name by the last
// successful TopologicalSort, or (0, false) if none has run yet.
func (g *Graph) ConversionOrder(name string) (int, bool) {
	order, ok := g.order[name]
	return order, ok
}

// GetReadyToConvert returns the sorted set of unconverted nodes whose
// dependencies are all marked converted.
func (g *Graph) GetReadyToConvert() []string {
	var ready []string
	for _, n := range g.Nodes() {
		if g.converted[n] {
			continue
		}
		allDepsConverted := true
		for dep := range g.forward[n] {
			if !g.converted[dep] {
				allDepsConverted = false
				break
			}
		}
		if allDepsConverted {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)
	return ready
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
