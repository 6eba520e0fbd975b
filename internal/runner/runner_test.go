// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmute-dev/transmute/internal/model"
)

func sampleSuite() *model.TestSuite {
	return &model.TestSuite{
		ProgramID:    "prog1",
		FunctionName: "add",
		TestCases: []model.TestCase{
			{ID: "t1", ProgramID: "prog1", FunctionName: "add"},
			{ID: "t2", ProgramID: "prog1", FunctionName: "add"},
		},
	}
}

func TestParseResultLiteral(t *testing.T) {
	assert.InDelta(t, 3.5, parseResultLiteral("3.5"), 1e-9)
	assert.Equal(t, int64(42), parseResultLiteral("42"))
	assert.Equal(t, "not_a_number", parseResultLiteral("not_a_number"))
	assert.Equal(t, int64(-7), parseResultLiteral("-7"))
}

func TestParseOutputsExtractsResultAndCompleted(t *testing.T) {
	suite := sampleSuite()
	stdout := "Test t1: result = 10\nTest t2: completed\n"

	results := parseOutputs(suite, stdout, "", 0)

	require.Contains(t, results, "t1")
	require.Contains(t, results, "t2")
	assert.Equal(t, int64(10), results["t1"].Outputs["return_value"])
	assert.Equal(t, model.StatusPassed, results["t1"].Status)
	assert.Equal(t, true, results["t2"].Outputs["completed"])
	assert.Equal(t, model.StatusPassed, results["t2"].Status)
}

func TestParseOutputsMissingLineFailsOnNonZeroExit(t *testing.T) {
	suite := sampleSuite()
	stdout := "Test t1: result = 10\n"

	results := parseOutputs(suite, stdout, "segfault", 1)

	assert.Equal(t, model.StatusPassed, results["t1"].Status, "a test with parsed output succeeds regardless of overall exit code")
	assert.Equal(t, model.StatusFailed, results["t2"].Status, "a test with no parsed output on a non-zero exit is a failure")
}

func TestParseOutputsMissingLinePassesOnZeroExit(t *testing.T) {
	suite := sampleSuite()
	results := parseOutputs(suite, "", "", 0)

	assert.Equal(t, model.StatusPassed, results["t1"].Status)
	assert.Equal(t, model.StatusPassed, results["t2"].Status)
}

func TestMarkAllSetsSameStatusAndMessage(t *testing.T) {
	suite := sampleSuite()
	results := markAll(suite, model.StatusError, "Compilation failed")

	require.Len(t, results, 2)
	for _, tc := range suite.TestCases {
		res := results[tc.ID]
		require.NotNil(t, res)
		assert.Equal(t, model.StatusError, res.Status)
		assert.Equal(t, "Compilation failed", res.Message)
		assert.True(t, res.Status.IsTerminal())
	}
}

func TestLimitedWriterTruncatesPastLimit(t *testing.T) {
	var buf []byte
	sink := &sliceWriter{buf: &buf}
	lw := &limitedWriter{w: sink, limit: 5}

	n, err := lw.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, len("hello world"), n, "reports the full length to avoid breaking callers")
	assert.True(t, lw.truncated)
	assert.Equal(t, "hello", string(buf))
}

type sliceWriter struct{ buf *[]byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.buf = append(*s.buf, p...)
	return len(p), nil
}

func TestNormalizeCSharpCodeStripsMarkdownFence(t *testing.T) {
	raw := "```csharp\npublic static int add(int a, int b)\n{\n    return a + b;\n}\n```"
	normalized := NormalizeCSharpCode(raw, "ConvertedCode")

	assert.Contains(t, normalized, "public class ConvertedCode")
	assert.Contains(t, normalized, "public static int add(int a, int b)")
	assert.NotContains(t, normalized, "```")
}

func TestNormalizeCSharpCodeUnwrapsNestedClass(t *testing.T) {
	raw := `using System;
public class SomeWrapper
{
    public static int add(int a, int b)
    {
        return a + b;
    }
}`
	normalized := NormalizeCSharpCode(raw, "ConvertedCode")

	assert.Contains(t, normalized, "public class ConvertedCode")
	assert.NotContains(t, normalized, "SomeWrapper")
	assert.Equal(t, 1, countOccurrences(normalized, "using System;"))
}

func TestNormalizeCSharpCodeAddsStaticWhenMissing(t *testing.T) {
	raw := "public int add(int a, int b)\n{\n    return a + b;\n}"
	normalized := NormalizeCSharpCode(raw, "ConvertedCode")

	assert.Contains(t, normalized, "public static int add(int a, int b)")
}

func TestNormalizeCSharpCodeDedupesRepeatedMethod(t *testing.T) {
	raw := `public static int add(int a, int b)
{
    return a + b;
}
public int add(int a, int b)
{
    return a + b;
}`
	normalized := NormalizeCSharpCode(raw, "ConvertedCode")

	assert.Equal(t, 1, countOccurrences(normalized, "int add(int a, int b)"))
}

func TestNormalizeCSharpCodeDefaultsUsingsWhenAbsent(t *testing.T) {
	raw := "public static int add(int a, int b)\n{\n    return a + b;\n}"
	normalized := NormalizeCSharpCode(raw, "ConvertedCode")

	assert.Contains(t, normalized, "using System;")
	assert.Contains(t, normalized, "using System.Runtime.InteropServices;")
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
			i += len(needle) - 1
		}
	}
	return count
}

// The remaining tests drive the real gcc/dotnet toolchains end to end; they
// skip when the compiler isn't on PATH rather than fail the suite on a
// machine without it installed.

func TestCRunnerCompilesAndRunsHarness(t *testing.T) {
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not available")
	}

	program := &model.CProgram{
		ProgramID: "prog1",
		RawSource: "int add(int a, int b) { return a + b; }\nint main(void) { return 0; }",
	}
	suite := &model.TestSuite{
		ProgramID: "prog1",
		TestCases: []model.TestCase{{ID: "t1", ProgramID: "prog1", FunctionName: "add"}},
	}
	harness := `#include <stdio.h>
int add(int a, int b);
int main(void) {
    printf("Test t1: result = %d\n", add(2, 3));
    return 0;
}`

	r := NewCRunner(WithCRunTimeout(5 * time.Second))
	outcome, err := r.Run(context.Background(), program, suite, harness)
	require.NoError(t, err)
	require.True(t, outcome.Compiled)
	require.False(t, outcome.TimedOut)

	res := outcome.Results["t1"]
	require.NotNil(t, res)
	assert.Equal(t, model.StatusPassed, res.Status)
	assert.Equal(t, int64(5), res.Outputs["return_value"])
}

func TestCRunnerMarksCompilationFailure(t *testing.T) {
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not available")
	}

	program := &model.CProgram{ProgramID: "prog1", RawSource: "this is not valid C {"}
	suite := sampleSuite()

	r := NewCRunner()
	outcome, err := r.Run(context.Background(), program, suite, "int main(void) { return 0; }")
	require.NoError(t, err)
	assert.False(t, outcome.Compiled)

	for _, tc := range suite.TestCases {
		assert.Equal(t, model.StatusError, outcome.Results[tc.ID].Status)
		assert.Equal(t, "Compilation failed", outcome.Results[tc.ID].Message)
	}
}

func TestCRunnerMarksExecutionTimeout(t *testing.T) {
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not available")
	}

	program := &model.CProgram{
		ProgramID: "prog1",
		RawSource: "int main(void) { return 0; }",
	}
	suite := sampleSuite()
	harness := `int main(void) { for(;;) {} return 0; }`

	r := NewCRunner(WithCRunTimeout(200 * time.Millisecond))
	outcome, err := r.Run(context.Background(), program, suite, harness)
	require.NoError(t, err)
	assert.True(t, outcome.Compiled)
	assert.True(t, outcome.TimedOut)

	for _, tc := range suite.TestCases {
		assert.Equal(t, model.StatusError, outcome.Results[tc.ID].Status)
		assert.Equal(t, "Execution timeout", outcome.Results[tc.ID].Message)
	}
}

func TestCSharpRunnerBuildsAndRuns(t *testing.T) {
	if _, err := exec.LookPath("dotnet"); err != nil {
		t.Skip("dotnet not available")
	}

	suite := &model.TestSuite{
		ProgramID: "prog1",
		TestCases: []model.TestCase{{ID: "t1", ProgramID: "prog1", FunctionName: "add"}},
	}
	converted := "public static int add(int a, int b)\n{\n    return a + b;\n}"
	harness := `public class Program
{
    public static void Main(string[] args)
    {
        System.Console.WriteLine("Test t1: result = " + ConvertedCode.add(2, 3));
    }
}`

	projectDir := filepath.Join(t.TempDir(), "prog1")
	r := NewCSharpRunner(WithCSharpRunTimeout(20 * time.Second))
	outcome, err := r.Run(context.Background(), projectDir, suite, converted, harness)
	require.NoError(t, err)
	require.True(t, outcome.Compiled)

	res := outcome.Results["t1"]
	require.NotNil(t, res)
	assert.Equal(t, model.StatusPassed, res.Status)
	assert.Equal(t, int64(5), res.Outputs["return_value"])
}
