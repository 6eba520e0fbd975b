// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package orchestrator drives the end-to-end migration pipeline: analyze a
// C project, order its files by dependency, and convert each one with
// bounded retries, validating the converted C# against the original C's
// behavior before accepting it.
package orchestrator

import (
	"log/slog"

	"github.com/transmute-dev/transmute/internal/runner"
	"github.com/transmute-dev/transmute/internal/testgen"
	"github.com/transmute-dev/transmute/internal/translate"
	"github.com/transmute-dev/transmute/internal/validate"
)

// DefaultMaxRetries bounds convertProgramWithRetry's attempts when the
// caller doesn't configure one explicitly.
const DefaultMaxRetries = 3

// DefaultConvertedClassName is the C# class the converted code is emitted
// into, matching the runner's default project layout.
const DefaultConvertedClassName = "ConvertedCode"

// DefaultRankConcurrency bounds same-rank parallel program conversions when
// the caller enables parallel execution without naming a bound.
const DefaultRankConcurrency = 4

// Orchestrator wires the analyzer, test generator, translator, both
// runners, and the validator into the migrate_all / convert_program_with_retry
// pipeline.
type Orchestrator struct {
	testGen           *testgen.TestGenerator
	translator        *translate.Client
	cRunner           *runner.CRunner
	csRunner          *runner.CSharpRunner
	comparator        *validate.Comparator
	maxRetries        int
	outputDir         string
	className         string
	parallelExecution bool
	rankConcurrency   int
	log               *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithTestGenerator(g *testgen.TestGenerator) Option {
	return func(o *Orchestrator) { o.testGen = g }
}

func WithTranslator(c *translate.Client) Option {
	return func(o *Orchestrator) { o.translator = c }
}

func WithCRunner(r *runner.CRunner) Option {
	return func(o *Orchestrator) { o.cRunner = r }
}

func WithCSharpRunner(r *runner.CSharpRunner) Option {
	return func(o *Orchestrator) { o.csRunner = r }
}

func WithComparator(c *validate.Comparator) Option {
	return func(o *Orchestrator) { o.comparator = c }
}

func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

func WithOutputDir(dir string) Option {
	return func(o *Orchestrator) { o.outputDir = dir }
}

func WithConvertedClassName(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.className = name
		}
	}
}

// WithParallelExecution lets programs within the same dependency rank run
// concurrently, per the reserved parallel_execution config flag. Disabled
// by default: sequential, dependency-ordered processing is the simplest
// correct design since later programs may consume earlier ones' C# output
// as translation context.
func WithParallelExecution(enabled bool) Option {
	return func(o *Orchestrator) { o.parallelExecution = enabled }
}

// WithRankConcurrency bounds how many same-rank programs run at once under
// parallel execution.
func WithRankConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.rankConcurrency = n
		}
	}
}

func WithOrchestratorLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// New builds an Orchestrator, defaulting every collaborator that isn't
// explicitly supplied so the pipeline runs standalone against a local gcc
// and dotnet toolchain with the rule-based translator fallback.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		maxRetries:      DefaultMaxRetries,
		outputDir:       "./transmute-output",
		className:       DefaultConvertedClassName,
		rankConcurrency: DefaultRankConcurrency,
		log:             slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.testGen == nil {
		o.testGen = testgen.NewTestGenerator(testgen.WithLogger(o.log))
	}
	if o.translator == nil {
		o.translator = translate.NewClient(translate.WithClientLogger(o.log))
	}
	if o.cRunner == nil {
		o.cRunner = runner.NewCRunner(runner.WithCLogger(o.log))
	}
	if o.csRunner == nil {
		o.csRunner = runner.NewCSharpRunner(
			runner.WithCSharpLogger(o.log),
			runner.WithConvertedClassName(o.className),
		)
	}
	if o.comparator == nil {
		o.comparator = validate.NewComparator()
	}
	return o
}
