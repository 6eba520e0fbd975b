// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import "sort"

// TopologicalSort orders nodes so that every edge u->v (u depends on v)
// places v before u, i.e. dependencies come before dependents. It uses
// Kahn's algorithm with the ready queue sorted alphabetically at every step
// so that the result is deterministic across runs.
//
// On success it returns (order, nil) covering every node exactly once and
// records each node's position for ConversionOrder. On a cycle it returns
// (nil, cycles) and leaves any previously recorded order untouched.
func (g *Graph) TopologicalSort() ([]string, [][]string) {
	// inDegree here counts *unresolved dependencies* of each node (i.e. the
	// size of its forward set), since a node is ready once all the things
	// it depends on have been emitted.
	inDegree := make(map[string]int, len(g.forward))
	for n := range g.forward {
		inDegree[n] = len(g.forward[n])
	}

	var ready []string
	for n, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, n)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.forward))
	for len(ready) > 0 {
		sort.Strings(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		for _, dependent := range g.Dependents(n) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.forward) {
		_, cycles := g.FindCycles()
		if len(cycles) == 0 {
			// Defensive: a mismatch with no detected cycle should not
			// happen given the algorithm above, but never fabricate an
			// empty cycle list when the sort demonstrably failed.
			cycles = [][]string{g.Nodes()}
		}
		return nil, cycles
	}

	g.order = make(map[string]int, len(order))
	for i, n := range order {
		g.order[n] = i
	}
	return order, nil
}

// color states for DFS-based cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully explored
)

// FindCycles walks the graph via DFS coloring (white/gray/black) and
// reports every back-edge it finds as the cycle it closes, expressed as a
// node-name path starting and ending at the same node.
//
// FindCycles returns an empty slice if and only if TopologicalSort would
// succeed.
func (g *Graph) FindCycles() ([]string, [][]string) {
	colors := make(map[string]color, len(g.forward))
	var cycles [][]string

	var stack []string
	var visit func(n string)
	visit = func(n string) {
		colors[n] = gray
		stack = append(stack, n)

		for _, dep := range g.Dependencies(n) {
			switch colors[dep] {
			case white:
				visit(dep)
			case gray:
				cycles = append(cycles, cyclePath(stack, dep))
			case black:
				// already fully explored, no new cycle through it
			}
		}

		stack = stack[:len(stack)-1]
		colors[n] = black
	}

	for _, n := range g.Nodes() {
		if colors[n] == white {
			visit(n)
		}
	}

	var flat []string
	for _, c := range cycles {
		flat = append(flat, c...)
	}
	return flat, cycles
}

// cyclePath extracts the portion of the DFS stack from the first
// occurrence of target to the end, then closes the loop by repeating
// target, producing e.g. [a, b, a] for a<->b.
func cyclePath(stack []string, target string) []string {
	start := 0
	for i, n := range stack {
		if n == target {
			start = i
			break
		}
	}
	path := append([]string{}, stack[start:]...)
	path = append(path, target)
	return path
}
