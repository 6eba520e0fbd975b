// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analyzer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// CollectSourceFiles recursively walks roots and returns every .c/.h file
// found, sorted and de-duplicated.
func CollectSourceFiles(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := filepath.Ext(path)
			if ext != ".c" && ext != ".h" {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// AnalyzeProject parses every file under roots and returns the aggregate
// ProjectInfo. Unreadable files and parse errors are reported but
// non-fatal: the file is skipped and processing continues.
func AnalyzeProject(ctx context.Context, roots []string, log *slog.Logger) (*ProjectInfo, error) {
	files, err := CollectSourceFiles(roots)
	if err != nil {
		return nil, err
	}

	parser := NewCParser()
	project := &ProjectInfo{
		Files:        make(map[string]FileInfo, len(files)),
		AllFunctions: make(map[string][]string),
		AllCalls:     make(map[string]int),
	}

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}

		result, err := parser.Parse(ctx, content, path)
		if err != nil {
			log.Warn("skipping file with parse error", "path", path, "error", err)
			continue
		}

		info := FileInfo{
			Path:           path,
			RawSource:      string(content),
			Functions:      result.Functions,
			SystemIncludes: result.SystemIncludes,
			UserIncludes:   result.UserIncludes,
			Defines:        result.Defines,
			Structs:        result.Structs,
			Enums:          result.Enums,
			TotalLines:     result.TotalLines,
			Errors:         result.Errors,
		}
		project.Files[path] = info

		for _, fn := range result.Functions {
			project.AllFunctions[fn.Name] = append(project.AllFunctions[fn.Name], path)
			for _, callee := range fn.CalledNames {
				project.AllCalls[callee]++
			}
		}
	}

	return project, nil
}
