// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"path/filepath"
	"sort"

	"github.com/transmute-dev/transmute/internal/depgraph"
)

// BuildDependencyGraph builds a `path -> {path}` graph from every file's
// user includes. Each include is resolved by basename-in-same-directory
// first, falling back to any basename match across the project.
// Non-resolvable includes become dangling nodes rather than errors.
func BuildDependencyGraph(project *ProjectInfo) *depgraph.Graph {
	paths := make([]string, 0, len(project.Files))
	for path := range project.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	basenameIndex := make(map[string][]string) // basename -> full paths, sorted
	for _, path := range paths {
		basenameIndex[filepath.Base(path)] = append(basenameIndex[filepath.Base(path)], path)
	}

	g := depgraph.New()
	for _, path := range paths {
		g.AddNode(path)
	}

	for _, path := range paths {
		info := project.Files[path]
		dir := filepath.Dir(path)
		for _, inc := range info.UserIncludes {
			resolved, ok := resolveInclude(inc.FileName, dir, basenameIndex)
			if ok {
				g.AddEdge(path, resolved)
			} else {
				g.AddEdge(path, inc.FileName) // dangling node, named by include text
			}
		}
	}
	return g
}

// resolveInclude implements the same-directory-first, any-match-fallback
// resolution policy for one #include "name" directive.
func resolveInclude(includeName, sameDir string, basenameIndex map[string][]string) (string, bool) {
	base := filepath.Base(includeName)
	candidates, ok := basenameIndex[base]
	if !ok || len(candidates) == 0 {
		return "", false
	}

	sameDirCandidate := filepath.Join(sameDir, base)
	for _, c := range candidates {
		if c == sameDirCandidate {
			return c, true
		}
	}
	return candidates[0], true
}
