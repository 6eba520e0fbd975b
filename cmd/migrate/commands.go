// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/transmute-dev/transmute/internal/config"
	"github.com/transmute-dev/transmute/pkg/logging"
)

// --- Global flags ---
var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "migratool",
	Short: "Migrate a C project to C#, with generated-test-backed validation",
	Long: `migratool analyzes a C project, orders its files by dependency,
and converts each one to C# via an LLM-backed translator, validating every
converted function against generated tests run against the original C.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			defaultPath, err := config.DefaultPath()
			if err != nil {
				log.Fatalf("resolve default config path: %v", err)
			}
			path = defaultPath
		}
		if err := config.Load(path); err != nil {
			log.Fatalf("load config %s: %v", path, err)
		}
		if verbose {
			config.Global.Verbose = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to transmute.yaml (default ~/.transmute/transmute.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(infoCmd)
}

// newLogger builds the process-wide logger from the loaded config's logging
// section, via pkg/logging's level-filtered stderr/file handler rather than
// a bare slog.NewTextHandler/NewJSONHandler call.
func newLogger() *slog.Logger {
	level := logging.LevelInfo
	switch config.Global.Logging.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	if config.Global.Verbose {
		level = logging.LevelDebug
	}

	return logging.New(logging.Config{
		Level:   level,
		LogDir:  config.Global.Logging.LogDir,
		Service: "migratool",
		JSON:    config.Global.Logging.JSON,
		Quiet:   config.Global.Logging.Quiet,
	})
}

func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
