// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/transmute-dev/transmute/internal/model"
	"github.com/transmute-dev/transmute/internal/testgen"
)

// DefaultCompileTimeout bounds how long a gcc invocation may run.
const DefaultCompileTimeout = 30 * time.Second

// DefaultRunTimeout bounds how long a compiled test binary may run.
const DefaultRunTimeout = 30 * time.Second

// CRunner compiles a program's original source together with a generated C
// harness and executes the result to obtain baseline test outputs.
type CRunner struct {
	compilerPath   string
	compilerFlags  []string
	compileTimeout time.Duration
	runTimeout     time.Duration
	maxOutputBytes int
	log            *slog.Logger
}

// CRunnerOption configures a CRunner.
type CRunnerOption func(*CRunner)

func WithCCompiler(path string) CRunnerOption {
	return func(r *CRunner) {
		if path != "" {
			r.compilerPath = path
		}
	}
}

func WithCFlags(flags []string) CRunnerOption {
	return func(r *CRunner) { r.compilerFlags = flags }
}

func WithCCompileTimeout(d time.Duration) CRunnerOption {
	return func(r *CRunner) {
		if d > 0 {
			r.compileTimeout = d
		}
	}
}

func WithCRunTimeout(d time.Duration) CRunnerOption {
	return func(r *CRunner) {
		if d > 0 {
			r.runTimeout = d
		}
	}
}

func WithCMaxOutput(n int) CRunnerOption {
	return func(r *CRunner) {
		if n > 0 {
			r.maxOutputBytes = n
		}
	}
}

func WithCLogger(log *slog.Logger) CRunnerOption {
	return func(r *CRunner) { r.log = log }
}

// NewCRunner builds a CRunner with the default C99-plus-warnings-plus-math
// compiler flags.
func NewCRunner(opts ...CRunnerOption) *CRunner {
	r := &CRunner{
		compilerPath:   "gcc",
		compilerFlags:  []string{"-std=c99", "-Wall", "-lm"},
		compileTimeout: DefaultCompileTimeout,
		runTimeout:     DefaultRunTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run compiles program's original source (with main stripped) alongside
// harnessSource and executes the result, parsing stdout into a per-test
// RunOutcome per the failure taxonomy: compilation failure and execution
// timeout both mark every test in suite, a completed run is parsed line by
// line.
func (r *CRunner) Run(ctx context.Context, program *model.CProgram, suite *model.TestSuite, harnessSource string) (model.RunOutcome, error) {
	tempDir, err := os.MkdirTemp("", "transmute-c-*")
	if err != nil {
		return model.RunOutcome{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	harnessPath := filepath.Join(tempDir, "test_harness.c")
	sourcePath := filepath.Join(tempDir, "original.c")
	binaryPath := filepath.Join(tempDir, "test.out")

	if err := os.WriteFile(harnessPath, []byte(harnessSource), 0o644); err != nil {
		return model.RunOutcome{}, fmt.Errorf("write harness: %w", err)
	}
	cleaned := testgen.StripMain(program.RawSource)
	if err := os.WriteFile(sourcePath, []byte(cleaned), 0o644); err != nil {
		return model.RunOutcome{}, fmt.Errorf("write source: %w", err)
	}

	compileArgs := append([]string{harnessPath, sourcePath, "-o", binaryPath}, r.compilerFlags...)
	compileRes, err := runCommand(ctx, r.compileTimeout, "", r.maxOutputBytes, r.compilerPath, compileArgs...)
	if err != nil || compileRes.TimedOut || compileRes.ExitCode != 0 {
		r.log.Warn("C compilation failed", "program", program.ProgramID, "stderr", compileRes.Stderr)
		return model.RunOutcome{
			Results:  markAll(suite, model.StatusError, "Compilation failed"),
			Stderr:   compileRes.Stderr,
			Compiled: false,
		}, nil
	}

	runRes, err := runCommand(ctx, r.runTimeout, "", r.maxOutputBytes, binaryPath)
	if err != nil {
		return model.RunOutcome{}, fmt.Errorf("run binary: %w", err)
	}
	if runRes.TimedOut {
		r.log.Warn("C execution timed out", "program", program.ProgramID, "timeout", r.runTimeout)
		return model.RunOutcome{
			Results:  markAll(suite, model.StatusError, "Execution timeout"),
			Compiled: true,
			TimedOut: true,
		}, nil
	}

	return model.RunOutcome{
		Results:  parseOutputs(suite, runRes.Stdout, runRes.Stderr, runRes.ExitCode),
		Stdout:   runRes.Stdout,
		Stderr:   runRes.Stderr,
		ExitCode: runRes.ExitCode,
		Compiled: true,
	}, nil
}
