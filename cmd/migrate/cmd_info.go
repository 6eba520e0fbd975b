// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/transmute-dev/transmute/internal/config"
	"github.com/transmute-dev/transmute/internal/testgen"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report whether the C compiler, dotnet toolchain, and symbolic engine are available",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := config.Global

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	fmt.Println("toolchain availability:")
	reportBinary("C compiler", cfg.Runner.CCompiler)
	reportBinary("dotnet", cfg.Runner.DotnetPath)

	fmt.Println("symbolic execution engine:")
	if !cfg.Symbolic.Enabled {
		fmt.Println("  disabled in configuration")
	} else {
		reportBinary("  clang", "clang")
		reportBinary("  klee", "klee")
		reportBinary("  ktest-tool", "ktest-tool")
		reportBinary("  llvm-link", "llvm-link")

		driver := testgen.NewSymbolicDriver(
			testgen.WithMaxTests(cfg.Symbolic.MaxTests),
			testgen.WithSymbolicTimeout(cfg.Symbolic.Timeout),
			testgen.WithPointerBufferSize(cfg.Symbolic.PointerBufferSize),
		)
		if driver.Available(ctx) {
			fmt.Println("  symbolic driver: ready")
		} else {
			fmt.Println("  symbolic driver: unavailable")
		}
	}

	fmt.Println("translator backend:")
	switch cfg.Converter.Backend {
	case "openai":
		fmt.Printf("  openai: enabled=%v key_set=%v\n", cfg.Converter.OpenAI.Enabled, cfg.Converter.OpenAI.APIKey != "")
	default:
		fmt.Printf("  gemini: enabled=%v key_set=%v\n", cfg.Converter.Gemini.Enabled, cfg.Converter.Gemini.APIKey != "")
	}
	if resolveBackend(cfg) == nil {
		fmt.Println("  no backend configured, falling back to rule-based conversion")
	}

	return nil
}

func reportBinary(label, name string) {
	if name == "" {
		fmt.Printf("  %s: not configured\n", label)
		return
	}
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("  %s: not found (%s)\n", label, name)
		return
	}
	fmt.Printf("  %s: %s\n", label, path)
}
