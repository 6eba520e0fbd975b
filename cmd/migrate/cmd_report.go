// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/transmute-dev/transmute/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report <run-dir>",
	Short: "Re-render a previously written MigrationReport JSON as a human-readable table",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, "reports")
		entries, err := os.ReadDir(path)
		if err != nil || len(entries) == 0 {
			return fmt.Errorf("no report JSON found under %s", path)
		}
		path = filepath.Join(path, entries[len(entries)-1].Name())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var report model.MigrationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	printReportSummary(&report)
	return nil
}
