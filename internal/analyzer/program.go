// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"sort"

	"github.com/transmute-dev/transmute/internal/depgraph"
	"github.com/transmute-dev/transmute/internal/model"
)

// BuildPrograms converts every analyzed file into the model.CProgram the
// rest of the pipeline operates on, using path as the program ID so it
// lines up 1:1 with the dependency graph's node names.
func BuildPrograms(project *ProjectInfo, graph *depgraph.Graph) []*model.CProgram {
	paths := make([]string, 0, len(project.Files))
	for path := range project.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	programs := make([]*model.CProgram, 0, len(paths))
	for _, path := range paths {
		info := project.Files[path]
		includes := append(append([]model.Include{}, info.SystemIncludes...), info.UserIncludes...)
		programs = append(programs, &model.CProgram{
			ProgramID:    path,
			SourcePath:   path,
			RawSource:    info.RawSource,
			Includes:     includes,
			Defines:      info.Defines,
			Functions:    info.Functions,
			Structs:      info.Structs,
			Enums:        info.Enums,
			Dependencies: graph.Dependencies(path),
		})
	}
	return programs
}
