// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package depgraph

import "sort"

// tarjanState carries the bookkeeping Tarjan's algorithm needs across its
// recursive calls, kept off the Graph itself so TarjanSCC stays read-only.
type tarjanState struct {
	index   int
	indices map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	sccs    [][]string
	g       *Graph
}

// TarjanSCC computes the strongly connected components of the dependency
// graph. Each returned component is a sorted slice of node names; singleton
// components (ordinary acyclic nodes) are included so callers can condense
// uniformly.
func (g *Graph) TarjanSCC() [][]string {
	st := &tarjanState{
		indices: make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(map[string]bool),
		g:       g,
	}
	for _, n := range g.Nodes() {
		if _, visited := st.indices[n]; !visited {
			st.strongConnect(n)
		}
	}
	for _, scc := range st.sccs {
		sort.Strings(scc)
	}
	return st.sccs
}

func (st *tarjanState) strongConnect(v string) {
	st.indices[v] = st.index
	st.lowlink[v] = st.index
	st.index++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for _, w := range st.g.Dependencies(v) {
		if _, visited := st.indices[w]; !visited {
			st.strongConnect(w)
			if st.lowlink[w] < st.lowlink[v] {
				st.lowlink[v] = st.lowlink[w]
			}
		} else if st.onStack[w] {
			if st.indices[w] < st.lowlink[v] {
				st.lowlink[v] = st.indices[w]
			}
		}
	}

	if st.lowlink[v] == st.indices[v] {
		var component []string
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, component)
	}
}

// Condense builds a DAG over the graph's strongly connected components: one
// super-node per component (named by its sorted members joined with "+"),
// with an edge between components whenever any member of one depends on any
// member of the other. Condense is used when TopologicalSort fails so the
// orchestrator can still get a total order, with ties within a component
// broken by alphabetical member order.
func (g *Graph) Condense() (*Graph, map[string]string) {
	sccs := g.TarjanSCC()

	memberToComponent := make(map[string]string, len(g.forward))
	for _, scc := range sccs {
		name := componentName(scc)
		for _, m := range scc {
			memberToComponent[m] = name
		}
	}

	condensed := New()
	for _, scc := range sccs {
		condensed.AddNode(componentName(scc))
	}
	for _, from := range g.Nodes() {
		fromComp := memberToComponent[from]
		for _, to := range g.Dependencies(from) {
			toComp := memberToComponent[to]
			if fromComp != toComp {
				condensed.AddEdge(fromComp, toComp)
			}
		}
	}
	return condensed, memberToComponent
}

func componentName(members []string) string {
	sorted := append([]string{}, members...)
	sort.Strings(sorted)
	name := sorted[0]
	for _, m := range sorted[1:] {
		name += "+" + m
	}
	return name
}
