// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/transmute-dev/transmute/internal/analyzer"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <input-dir>",
	Short: "Parse a C project and print its dependency order, without converting anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	inputDir := args[0]
	log := newLogger()

	project, err := analyzer.AnalyzeProject(cmd.Context(), []string{inputDir}, log)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", inputDir, err)
	}

	graph := analyzer.BuildDependencyGraph(project)
	order, cycles := graph.TopologicalSort()

	fmt.Printf("%d file(s) analyzed\n", len(project.Files))
	if len(cycles) > 0 {
		fmt.Printf("%d dependency cycle(s):\n", len(cycles))
		for _, cycle := range cycles {
			fmt.Printf("  %v\n", cycle)
		}
		return nil
	}

	fmt.Println("conversion order:")
	for i, node := range order {
		fmt.Printf("  %d. %s\n", i+1, node)
	}
	return nil
}
