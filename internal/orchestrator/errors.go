// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"errors"
	"fmt"
)

// Sentinel errors for the orchestrator package, classified via errors.Is
// rather than string matching.
var (
	// ErrParseFailed covers a program that could not be analyzed at all.
	ErrParseFailed = errors.New("source analysis failed")

	// ErrCycleUnresolved means the dependency graph contains a cycle that
	// could not be condensed into a usable conversion order.
	ErrCycleUnresolved = errors.New("dependency cycle could not be resolved")

	// ErrTestGenerationFailed covers a program for which no test suite
	// could be produced.
	ErrTestGenerationFailed = errors.New("test generation failed")

	// ErrCompileFailed covers a harness that failed to compile, on either side.
	ErrCompileFailed = errors.New("harness compilation failed")

	// ErrExecutionTimeout covers a harness run that exceeded its time budget.
	ErrExecutionTimeout = errors.New("harness execution timed out")

	// ErrTranslatorQuota covers a translation attempt exhausted by backend
	// quota errors.
	ErrTranslatorQuota = errors.New("translator quota exhausted")

	// ErrTranslatorUnavailable covers a translation attempt that could not
	// reach its backend.
	ErrTranslatorUnavailable = errors.New("translator backend unavailable")

	// ErrValidationMismatch means at least one test disagreed between the
	// C baseline and the converted C#.
	ErrValidationMismatch = errors.New("output validation mismatch")

	// ErrRetriesExhausted means every retry of a program ended in failure.
	ErrRetriesExhausted = errors.New("conversion retries exhausted")
)

// Stage names a step of convertProgramWithRetry, recorded on every
// AttemptRecord and StageError.
type Stage string

const (
	StageAnalyze   Stage = "analyze"
	StageGenerate  Stage = "generate"
	StageBaseline  Stage = "baseline"
	StageTranslate Stage = "translate"
	StageRun       Stage = "run"
	StageValidate  Stage = "validate"
)

// StageError attaches the program and pipeline stage a wrapped error
// occurred in, so failures can be classified with errors.As instead of by
// inspecting message text.
type StageError struct {
	Program string
	Stage   Stage
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: stage %s: %v", e.Program, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(program string, stage Stage, err error) *StageError {
	return &StageError{Program: program, Stage: stage, Err: err}
}
