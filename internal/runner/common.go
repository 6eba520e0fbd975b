// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package runner compiles and executes the generated C baseline and C#
// translation of a program under test, parsing both into a common
// TestResult shape so the validator can compare them test by test.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultMaxOutputBytes caps how much of a test run's stdout/stderr is
// retained; output beyond this is silently discarded, not an error.
const DefaultMaxOutputBytes = 1 << 20

// limitedWriter wraps a writer with a size limit, discarding bytes past the
// limit while still reporting the full length written to satisfy io.Writer.
type limitedWriter struct {
	w         io.Writer
	limit     int
	written   int
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	total := len(p)
	if lw.written >= lw.limit {
		lw.truncated = true
		return total, nil
	}
	remaining := lw.limit - lw.written
	if len(p) > remaining {
		p = p[:remaining]
		lw.truncated = true
	}
	n, err := lw.w.Write(p)
	lw.written += n
	return total, err
}

// execResult is one process's captured output, independent of which
// compiler or runtime produced it.
type execResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// runCommand runs name with args under timeout, optionally in dir, capturing
// up to maxOutput bytes of stdout/stderr. A context deadline exceeded is
// reported via execResult.TimedOut rather than as an error, since a timeout
// is an expected, handled outcome for this package's callers.
func runCommand(ctx context.Context, timeout time.Duration, dir string, maxOutput int, name string, args ...string) (execResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, limit: maxOutput}
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxOutput}

	err := cmd.Run()
	res := execResult{Stdout: stdout.String(), Stderr: stderr.String()}

	if runCtx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("command execution failed: %w", err)
	}

	res.ExitCode = 0
	return res, nil
}

// markAll builds a terminal result for every test case in suite, all
// sharing the same status and message, used for whole-suite failures
// (compilation failure, execution timeout) where no test ran at all.
func markAll(suite *model.TestSuite, status model.TestStatus, message string) map[string]*model.TestResult {
	results := make(map[string]*model.TestResult, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		res := &model.TestResult{TestID: tc.ID, StartedAt: time.Now()}
		res.MarkTerminal(status, message)
		results[tc.ID] = res
	}
	return results
}

// parseOutputs scans stdout for the canonical per-test lines and converts
// each into a terminal TestResult. A test whose line never showed up in
// stdout is marked failed when the process exited non-zero (no output to
// trust) and passed when it exited zero (nothing printed, but nothing
// failed either), the same per-test taxonomy the C and C# runners share.
func parseOutputs(suite *model.TestSuite, stdout, stderr string, exitCode int) map[string]*model.TestResult {
	lines := strings.Split(stdout, "\n")
	results := make(map[string]*model.TestResult, len(suite.TestCases))

	for _, tc := range suite.TestCases {
		res := &model.TestResult{
			TestID:    tc.ID,
			Stdout:    stdout,
			Stderr:    stderr,
			ExitCode:  exitCode,
			StartedAt: time.Now(),
		}

		prefix := fmt.Sprintf("Test %s:", tc.ID)
		outputs := make(map[string]any)
		for _, line := range lines {
			if !strings.Contains(line, prefix) {
				continue
			}
			if idx := strings.Index(line, "result ="); idx >= 0 {
				outputs["return_value"] = parseResultLiteral(strings.TrimSpace(line[idx+len("result ="):]))
			} else if strings.Contains(line, "completed") {
				outputs["completed"] = true
			}
		}
		res.Outputs = outputs

		switch {
		case len(outputs) > 0:
			res.MarkTerminal(model.StatusPassed, "")
		case exitCode == 0:
			res.MarkTerminal(model.StatusPassed, "")
		default:
			res.MarkTerminal(model.StatusFailed, "no output found for test and non-zero exit code")
		}
		results[tc.ID] = res
	}
	return results
}

// parseResultLiteral converts a canonical-line right-hand side by the
// textual rule: a "." makes it a float, otherwise an integer, otherwise the
// raw string is kept as-is.
func parseResultLiteral(value string) any {
	if strings.Contains(value, ".") {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	} else if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	return value
}
