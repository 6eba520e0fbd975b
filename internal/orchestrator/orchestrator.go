// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/transmute-dev/transmute/internal/analyzer"
	"github.com/transmute-dev/transmute/internal/depgraph"
	"github.com/transmute-dev/transmute/internal/model"
	"github.com/transmute-dev/transmute/internal/testgen"
)

// MigrateAll analyzes every C file under roots, orders the resulting
// programs by dependency, and converts each in turn, accumulating a
// MigrationReport. A dependency cycle does not abort the run: the cycle is
// recorded on the report and a condensed (SCC-collapsed) order is used
// instead.
func (o *Orchestrator) MigrateAll(ctx context.Context, roots []string) (*model.MigrationReport, error) {
	start := time.Now()

	project, err := analyzer.AnalyzeProject(ctx, roots, o.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	graph := analyzer.BuildDependencyGraph(project)
	programs := analyzer.BuildPrograms(project, graph)

	byID := make(map[string]*model.CProgram, len(programs))
	for _, p := range programs {
		byID[p.ProgramID] = p
	}

	report := &model.MigrationReport{
		RunID:     uuid.NewString(),
		StartedAt: start,
	}

	order, cycles := graph.TopologicalSort()
	if len(cycles) > 0 {
		cyclesTotal.Inc()
		report.Cycles = cycles
		order = condensedOrder(graph)
		o.log.Warn("dependency graph contains cycles, converting in condensed order",
			"program_count", len(programs), "cycle_count", len(cycles))
	}

	if o.parallelExecution && len(cycles) == 0 {
		o.migrateByRank(ctx, order, graph, byID, report)
	} else {
		o.migrateSequential(ctx, order, graph, byID, report)
	}

	report.Duration = time.Since(start)
	return report, nil
}

// migrateSequential processes programs strictly in dependency order, one at
// a time. The simplest correct mode: later programs may rely on an earlier
// one's converted C# as translation context.
func (o *Orchestrator) migrateSequential(ctx context.Context, order []string, graph *depgraph.Graph, byID map[string]*model.CProgram, report *model.MigrationReport) {
	for _, programID := range order {
		program, ok := byID[programID]
		if !ok {
			// A dangling node named after an unresolved #include, not a
			// translation unit of its own.
			continue
		}

		result := o.convertProgramWithRetry(ctx, program)
		report.AddResult(result)
		o.recordProgramOutcome(graph, programID, result)
	}
}

// migrateByRank groups order into dependency ranks (a program's rank is one
// past the maximum rank of its dependencies) and converts every program
// within a rank concurrently, bounded by rankConcurrency, before moving to
// the next rank. Graph updates are serialized behind a single mutex so
// MarkConverted/AddResult never race.
func (o *Orchestrator) migrateByRank(ctx context.Context, order []string, graph *depgraph.Graph, byID map[string]*model.CProgram, report *model.MigrationReport) {
	for _, rank := range groupByRank(order, graph) {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.rankConcurrency)

		for _, programID := range rank {
			programID := programID
			program, ok := byID[programID]
			if !ok {
				continue
			}
			g.Go(func() error {
				result := o.convertProgramWithRetry(gctx, program)
				mu.Lock()
				report.AddResult(result)
				o.recordProgramOutcome(graph, programID, result)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait() // convertProgramWithRetry never returns an error to propagate
	}
}

// recordProgramOutcome marks the graph node converted on success and updates
// the programs_total metric, shared by both the sequential and ranked paths.
func (o *Orchestrator) recordProgramOutcome(graph *depgraph.Graph, programID string, result model.ConversionResult) {
	if result.Status == model.ConversionSuccess {
		graph.MarkConverted(programID)
		programsTotal.WithLabelValues("success").Inc()
	} else {
		programsTotal.WithLabelValues("failed").Inc()
	}
}

// groupByRank buckets order into dependency ranks: rank 0 has no
// dependencies within order, and a program's rank is one past the highest
// rank among its dependencies. Programs in the same rank have no edges
// between them and are safe to convert concurrently.
func groupByRank(order []string, graph *depgraph.Graph) [][]string {
	rank := make(map[string]int, len(order))
	var ranks [][]string

	for _, id := range order {
		r := 0
		for _, dep := range graph.Dependencies(id) {
			if dr, ok := rank[dep]; ok && dr+1 > r {
				r = dr + 1
			}
		}
		rank[id] = r
		for len(ranks) <= r {
			ranks = append(ranks, nil)
		}
		ranks[r] = append(ranks[r], id)
	}
	return ranks
}

// condensedOrder collapses every strongly connected component of g into one
// super-node, topologically sorts the resulting (always acyclic) condensed
// graph, then expands each component back into its alphabetically sorted
// members, giving a total, deterministic order even across a cycle.
func condensedOrder(g *depgraph.Graph) []string {
	condensed, membership := g.Condense()
	corder, _ := condensed.TopologicalSort()

	members := make(map[string][]string, len(membership))
	for member, component := range membership {
		members[component] = append(members[component], member)
	}

	var flat []string
	for _, component := range corder {
		group := members[component]
		sort.Strings(group)
		flat = append(flat, group...)
	}
	return flat
}

// convertProgramWithRetry runs the generate/baseline/translate/run/validate
// pipeline for one program, retrying up to maxRetries times. It accepts on
// the first attempt where every generated test matches between the C
// baseline and the converted C#, and marks the program failed, with the
// full attempt history preserved, once retries are exhausted.
func (o *Orchestrator) convertProgramWithRetry(ctx context.Context, program *model.CProgram) model.ConversionResult {
	progStart := time.Now()
	result := model.ConversionResult{
		ProgramID: program.ProgramID,
		Status:    model.ConversionInProgress,
	}
	result.Metrics.LinesIn = len(strings.Split(program.RawSource, "\n"))

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		result.RetryCount = attempt - 1

		record, accepted := o.runAttempt(ctx, program, attempt)
		result.Attempts = append(result.Attempts, record)
		attemptsTotal.WithLabelValues(record.Stage).Inc()

		if accepted {
			result.Status = model.ConversionSuccess
			result.Metrics.TestsTotal = record.TestsTotal
			result.Metrics.TestsPassed = record.TestsPass
			result.Metrics.TestsFailed = record.TestsTotal - record.TestsPass
			break
		}

		result.Issues = append(result.Issues, model.Issue{
			Kind:     record.Stage,
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("attempt %d failed at stage %s: %s", attempt, record.Stage, record.Error),
		})
	}

	if result.Status != model.ConversionSuccess {
		result.Status = model.ConversionFailed
		result.Issues = append(result.Issues, model.Issue{
			Kind:     "retries_exhausted",
			Severity: model.SeverityError,
			Message:  ErrRetriesExhausted.Error(),
		})
	}

	result.Metrics.Duration = time.Since(progStart)
	programDuration.Observe(result.Metrics.Duration.Seconds())
	if result.Metrics.TestsTotal > 0 {
		testPassRate.Observe(float64(result.Metrics.TestsPassed) / float64(result.Metrics.TestsTotal))
	}
	return result
}

// runAttempt drives a single pass through generate -> baseline -> translate
// -> run -> validate, returning the furthest stage reached and whether the
// attempt is acceptable. Any error at any stage ends the attempt there
// rather than propagating, so the caller can retry or give up cleanly.
func (o *Orchestrator) runAttempt(ctx context.Context, program *model.CProgram, attemptNum int) (model.AttemptRecord, bool) {
	start := time.Now()
	record := model.AttemptRecord{Attempt: attemptNum, Stage: string(StageGenerate)}

	suite := o.testGen.GenerateForProgram(ctx, program, "")
	record.TestsTotal = suite.Len()
	if suite.Len() == 0 {
		record.Error = fmt.Sprintf("%s: no testable functions", ErrTestGenerationFailed)
		record.Duration = time.Since(start)
		return record, false
	}

	record.Stage = string(StageBaseline)
	cHarness := testgen.EmitCHarness(program, suite)
	cOutcome, err := o.cRunner.Run(ctx, program, &suite, cHarness)
	if fail := baselineFailure(cOutcome, err); fail != "" {
		record.Error = fail
		record.Duration = time.Since(start)
		return record, false
	}

	record.Stage = string(StageTranslate)
	translated, err := o.translator.Translate(ctx, program)
	if err != nil {
		record.Error = newStageError(program.ProgramID, StageTranslate, err).Error()
		record.Duration = time.Since(start)
		return record, false
	}

	record.Stage = string(StageRun)
	csHarness := testgen.EmitCSharpHarness(program, suite, o.className)
	projectDir := filepath.Join(o.outputDir, sanitizeProgramID(program.ProgramID), fmt.Sprintf("attempt-%d", attemptNum))
	csOutcome, err := o.csRunner.Run(ctx, projectDir, &suite, translated.Code, csHarness)
	if fail := baselineFailure(csOutcome, err); fail != "" {
		record.Error = fail
		record.Duration = time.Since(start)
		return record, false
	}

	record.Stage = string(StageValidate)
	validated := o.comparator.Compare(&suite, cOutcome.Results, csOutcome.Results)
	passed := 0
	for _, v := range validated {
		if v.IsMatch {
			passed++
		}
	}
	record.TestsPass = passed
	record.Duration = time.Since(start)

	if passed < len(validated) {
		record.Error = ErrValidationMismatch.Error()
		return record, false
	}
	return record, true
}

// baselineFailure classifies a runner outcome into a single error string
// covering the run-level error, a failed compile, or a timeout (the three
// ways the per-test taxonomy surfaces a whole-attempt failure).
func baselineFailure(outcome model.RunOutcome, err error) string {
	if err != nil {
		return err.Error()
	}
	if !outcome.Compiled {
		return ErrCompileFailed.Error()
	}
	if outcome.TimedOut {
		return ErrExecutionTimeout.Error()
	}
	return ""
}

// sanitizeProgramID turns a source path into a filesystem-safe directory
// name for the C# project scratch tree.
func sanitizeProgramID(programID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", ".", "_")
	return replacer.Replace(programID)
}
