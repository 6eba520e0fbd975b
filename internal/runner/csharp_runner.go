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
	"strings"
	"time"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultCSharpBuildTimeout bounds "dotnet new"/"dotnet build".
const DefaultCSharpBuildTimeout = 60 * time.Second

// DefaultCSharpRunTimeout bounds "dotnet run".
const DefaultCSharpRunTimeout = 30 * time.Second

// DefaultConvertedClassName is the class name the translator's assembler
// and this runner's normalization step both target.
const DefaultConvertedClassName = "ConvertedCode"

// CSharpRunner materializes a console project for a translated program,
// builds it, and executes it to obtain comparison outputs.
type CSharpRunner struct {
	dotnetPath     string
	buildTimeout   time.Duration
	runTimeout     time.Duration
	maxOutputBytes int
	className      string
	log            *slog.Logger
}

// CSharpRunnerOption configures a CSharpRunner.
type CSharpRunnerOption func(*CSharpRunner)

func WithDotnetPath(path string) CSharpRunnerOption {
	return func(r *CSharpRunner) {
		if path != "" {
			r.dotnetPath = path
		}
	}
}

func WithCSharpBuildTimeout(d time.Duration) CSharpRunnerOption {
	return func(r *CSharpRunner) {
		if d > 0 {
			r.buildTimeout = d
		}
	}
}

func WithCSharpRunTimeout(d time.Duration) CSharpRunnerOption {
	return func(r *CSharpRunner) {
		if d > 0 {
			r.runTimeout = d
		}
	}
}

func WithCSharpMaxOutput(n int) CSharpRunnerOption {
	return func(r *CSharpRunner) {
		if n > 0 {
			r.maxOutputBytes = n
		}
	}
}

func WithConvertedClassName(name string) CSharpRunnerOption {
	return func(r *CSharpRunner) {
		if name != "" {
			r.className = name
		}
	}
}

func WithCSharpLogger(log *slog.Logger) CSharpRunnerOption {
	return func(r *CSharpRunner) { r.log = log }
}

// NewCSharpRunner builds a CSharpRunner driven by the dotnet CLI.
func NewCSharpRunner(opts ...CSharpRunnerOption) *CSharpRunner {
	r := &CSharpRunner{
		dotnetPath:     "dotnet",
		buildTimeout:   DefaultCSharpBuildTimeout,
		runTimeout:     DefaultCSharpRunTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
		className:      DefaultConvertedClassName,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run normalizes convertedCode, materializes (creating on first use, reusing
// on later calls) a console project at projectDir with harnessCode as
// Program.cs and the normalized code as <className>.cs, builds it, and runs
// it. Failures follow the same taxonomy as CRunner.Run.
func (r *CSharpRunner) Run(ctx context.Context, projectDir string, suite *model.TestSuite, convertedCode, harnessCode string) (model.RunOutcome, error) {
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return model.RunOutcome{}, fmt.Errorf("create project dir: %w", err)
	}

	if !hasProjectFile(projectDir) {
		createRes, err := runCommand(ctx, r.buildTimeout, "", r.maxOutputBytes, r.dotnetPath, "new", "console", "--force", "--output", projectDir)
		if err != nil {
			return model.RunOutcome{}, fmt.Errorf("create dotnet project: %w", err)
		}
		if createRes.TimedOut || createRes.ExitCode != 0 {
			return model.RunOutcome{}, fmt.Errorf("create dotnet project: %s", createRes.Stderr)
		}
		_ = os.Remove(filepath.Join(projectDir, "Program.cs"))
	}

	normalized := NormalizeCSharpCode(convertedCode, r.className)
	if err := os.WriteFile(filepath.Join(projectDir, "Program.cs"), []byte(harnessCode), 0o644); err != nil {
		return model.RunOutcome{}, fmt.Errorf("write harness: %w", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, r.className+".cs"), []byte(normalized), 0o644); err != nil {
		return model.RunOutcome{}, fmt.Errorf("write converted code: %w", err)
	}

	buildRes, err := runCommand(ctx, r.buildTimeout, projectDir, r.maxOutputBytes, r.dotnetPath, "build")
	if err != nil {
		return model.RunOutcome{}, fmt.Errorf("build project: %w", err)
	}
	if buildRes.TimedOut || buildRes.ExitCode != 0 {
		r.log.Warn("C# build failed", "project", projectDir, "stdout", buildRes.Stdout, "stderr", buildRes.Stderr)
		return model.RunOutcome{
			Results:  markAll(suite, model.StatusError, "Compilation failed"),
			Stdout:   buildRes.Stdout,
			Stderr:   buildRes.Stderr,
			Compiled: false,
		}, nil
	}

	runRes, err := runCommand(ctx, r.runTimeout, "", r.maxOutputBytes, r.dotnetPath, "run", "--project", projectDir)
	if err != nil {
		return model.RunOutcome{}, fmt.Errorf("run project: %w", err)
	}
	if runRes.TimedOut {
		r.log.Warn("C# execution timed out", "project", projectDir, "timeout", r.runTimeout)
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

func hasProjectFile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".csproj") {
			return true
		}
	}
	return false
}
