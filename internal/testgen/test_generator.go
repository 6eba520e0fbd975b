// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"context"
	"log/slog"

	"github.com/transmute-dev/transmute/internal/model"
)

// StrategyMode selects how aggressively the generator spends symbolic
// execution budget, trading coverage depth for wall-clock time.
type StrategyMode string

const (
	StrategyQuick    StrategyMode = "quick"
	StrategyBalanced StrategyMode = "balanced"
	StrategyThorough StrategyMode = "thorough"
)

// TestGenerator combines the boundary/edge/random input generator with
// the symbolic driver into complete per-function TestSuites, deciding
// per function whether symbolic execution is worth its
// cost under the configured StrategyMode.
type TestGenerator struct {
	symbolic     *SymbolicDriver
	seed         int64
	strategyMode StrategyMode
	log          *slog.Logger
}

// TestGeneratorOption configures a TestGenerator.
type TestGeneratorOption func(*TestGenerator)

// WithSymbolicDriver attaches a symbolic driver; without one, generation
// always falls back to boundary/edge/random.
func WithSymbolicDriver(d *SymbolicDriver) TestGeneratorOption {
	return func(g *TestGenerator) { g.symbolic = d }
}

// WithSeed overrides the deterministic random seed (default 42).
func WithSeed(seed int64) TestGeneratorOption {
	return func(g *TestGenerator) { g.seed = seed }
}

// WithStrategyMode overrides the symbolic-selection strategy (default balanced).
func WithStrategyMode(mode StrategyMode) TestGeneratorOption {
	return func(g *TestGenerator) {
		if mode != "" {
			g.strategyMode = mode
		}
	}
}

// WithLogger attaches a logger; slog.Default() is used if omitted.
func WithLogger(log *slog.Logger) TestGeneratorOption {
	return func(g *TestGenerator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewTestGenerator builds a TestGenerator with sensible defaults: seed 42,
// balanced strategy mode, no symbolic driver until one is attached.
func NewTestGenerator(opts ...TestGeneratorOption) *TestGenerator {
	g := &TestGenerator{
		seed:         DefaultSeed,
		strategyMode: StrategyBalanced,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// selectForSymbolic filters functions eligible for symbolic execution under
// the configured strategy mode, following the original selector's
// complexity/size thresholds: quick reserves symbolic execution for
// small simple functions, balanced reserves it for complex or long ones,
// thorough always uses it.
func (g *TestGenerator) selectForSymbolic(functions []model.Function) map[string]bool {
	selected := make(map[string]bool, len(functions))
	for _, f := range functions {
		lines := f.LineEnd - f.LineStart
		var eligible bool
		switch g.strategyMode {
		case StrategyQuick:
			eligible = f.Complexity < 5 && lines < 10
		case StrategyThorough:
			eligible = true
		default: // StrategyBalanced
			eligible = f.Complexity >= 3 || lines >= 5
		}
		if eligible {
			selected[f.Name] = true
		}
	}
	return selected
}

// GenerateForFunction builds the test suite for one function using the
// given strategy categories, driving the symbolic engine first when
// requested and available, then always topping up with boundary/edge/random generation for
// any requested non-symbolic category.
func (g *TestGenerator) GenerateForFunction(ctx context.Context, program *model.CProgram, fn model.Function, categories []model.TestCategory) model.TestSuite {
	suite := model.TestSuite{ProgramID: program.ProgramID, FunctionName: fn.Name}

	var nonSymbolic []model.TestCategory
	wantSymbolic := false
	for _, c := range categories {
		if c == model.CategorySymbolic {
			wantSymbolic = true
			continue
		}
		nonSymbolic = append(nonSymbolic, c)
	}

	if wantSymbolic && g.symbolic != nil {
		cases, err := g.symbolic.GenerateTests(ctx, fn, program, program.ProgramID)
		if err != nil {
			g.log.Warn("symbolic execution failed, continuing with other strategies", "function", fn.Name, "error", err)
		}
		for _, tc := range cases {
			suite.AddTestCase(tc)
		}
		if len(cases) == 0 {
			g.log.Info("symbolic execution produced no cases, falling back to boundary", "function", fn.Name)
			nonSymbolic = append(nonSymbolic, model.CategoryBoundary)
		}
	}

	if len(nonSymbolic) > 0 {
		derived := GenerateTests(fn, program.ProgramID, nonSymbolic, g.seed)
		for _, tc := range derived.TestCases {
			suite.AddTestCase(tc)
		}
	}

	return suite
}

// GenerateForProgram builds the complete test suite for every testable
// function in a program (excludes `main` and `static` functions).
// When functionName is non-empty, only that function is tested.
func (g *TestGenerator) GenerateForProgram(ctx context.Context, program *model.CProgram, functionName string) model.TestSuite {
	suite := model.TestSuite{ProgramID: program.ProgramID, FunctionName: functionName}

	var targets []model.Function
	if functionName != "" {
		if fn, ok := program.GetFunctionByName(functionName); ok && fn.IsTestable() {
			targets = append(targets, *fn)
		}
	} else {
		targets = program.TestableFunctions()
	}

	symbolicAvailable := g.symbolic != nil && g.symbolic.Available(ctx)
	symbolicSelected := map[string]bool{}
	if symbolicAvailable {
		symbolicSelected = g.selectForSymbolic(targets)
	}

	for _, fn := range targets {
		categories := DefaultCategories(symbolicAvailable && symbolicSelected[fn.Name])
		for _, tc := range g.GenerateForFunction(ctx, program, fn, categories).TestCases {
			suite.AddTestCase(tc)
		}
	}
	return suite
}

// DefaultCategories implements the default strategy selection:
// [symbolic, boundary] when symbolic execution is available for this
// function, else [boundary, edge, random].
func DefaultCategories(useSymbolic bool) []model.TestCategory {
	if useSymbolic {
		return []model.TestCategory{model.CategorySymbolic, model.CategoryBoundary}
	}
	return []model.TestCategory{model.CategoryBoundary, model.CategoryEdge, model.CategoryRandom}
}
