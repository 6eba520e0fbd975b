// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import "github.com/transmute-dev/transmute/internal/model"

// FileInfo is everything the analyzer recovers from a single file.
type FileInfo struct {
	Path           string
	RawSource      string
	Functions      []model.Function
	SystemIncludes []model.Include
	UserIncludes   []model.Include
	Defines        []model.Define
	Structs        []model.Struct
	Enums          []model.Enum
	TotalLines     int
	Errors         []string
}

// ProjectInfo is the aggregate view over every analyzed file, used by the
// dependency graph builder and by the orchestrator's program loading step.
type ProjectInfo struct {
	Files       map[string]FileInfo
	AllFunctions map[string][]string // function name -> file paths that define it
	AllCalls     map[string]int      // function name -> number of call sites across the project
}

// ParseResult is the direct output of parsing one file: entities plus any
// non-fatal diagnostics recovered along the way.
type ParseResult struct {
	FilePath       string
	Functions      []model.Function
	SystemIncludes []model.Include
	UserIncludes   []model.Include
	Defines        []model.Define
	Structs        []model.Struct
	Enums          []model.Enum
	Calls          map[string][]string // function name -> names it calls
	TotalLines     int
	HasSyntaxError bool
	Errors         []string
}
