// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package depgraph builds and queries the file-level dependency graph that
// drives conversion order: topological sort with deterministic tie-breaking,
// DFS-based cycle detection, Tarjan SCC condensation for cyclic graphs, and
// the ready-to-convert query the orchestrator polls after every success.
//
// The graph is the one piece of mutable shared state in the whole pipeline.
// Mutation is confined to AddNode, AddEdge, MarkConverted and
// TopologicalSort (which records each node's conversion order); every other
// method is read-only.
package depgraph
