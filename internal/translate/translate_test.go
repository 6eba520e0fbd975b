// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmute-dev/transmute/internal/model"
)

func sampleProgram() *model.CProgram {
	return &model.CProgram{
		ProgramID: "sample",
		Defines: []model.Define{
			{Name: "MAX_SIZE", Value: "100"},
		},
		Enums: []model.Enum{
			{Name: "Color", Members: []string{"RED", "GREEN", "BLUE"}, Raw: "enum Color { RED, GREEN, BLUE };"},
		},
		Structs: []model.Struct{
			{Name: "Point", Fields: []model.Variable{{Name: "x", DataType: "int"}, {Name: "y", DataType: "int"}}, Raw: "struct Point { int x; int y; };"},
		},
		Variables: []model.Variable{
			{Name: "counter", DataType: "int", IsStatic: true, Initializer: "0"},
		},
		Functions: []model.Function{
			{Name: "add", ReturnType: "int", Parameters: []model.Variable{{Name: "a", DataType: "int"}, {Name: "b", DataType: "int"}}, Body: "{\n    return a + b;\n}"},
		},
	}
}

func TestBuildChunksOrderingAndDependencies(t *testing.T) {
	chunks := BuildChunks(sampleProgram(), DefaultChunkSize)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "program_structure", chunks[0].ID)
	assert.Empty(t, chunks[0].Dependencies)

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		if c.ID == "program_structure" {
			continue
		}
		assert.Equal(t, []string{"program_structure"}, c.Dependencies, "chunk %s should depend only on program_structure", c.ID)
	}
	assert.Contains(t, ids, "defines")
	assert.Contains(t, ids, "enum_Color")
	assert.Contains(t, ids, "struct_Point")
	assert.Contains(t, ids, "globals")
	assert.Contains(t, ids, "func_add")
}

func TestSplitFunctionBodySingleChunkUnderLimit(t *testing.T) {
	parts := splitFunctionBody("{ return 1; }", 2000)
	assert.Len(t, parts, 1)
}

func TestSplitFunctionBodySplitsAtLineBoundary(t *testing.T) {
	line := strings.Repeat("x", 30)
	body := strings.Join([]string{line, line, line, line, line}, "\n")

	parts := splitFunctionBody(body, 70)
	require.Greater(t, len(parts), 1)

	var reassembled []string
	for _, p := range parts {
		reassembled = append(reassembled, strings.Split(p, "\n")...)
	}
	assert.Equal(t, strings.Split(body, "\n"), reassembled, "splitting must preserve every line in order")
}

func TestBuildChunksSplitsLargeFunctionBody(t *testing.T) {
	line := strings.Repeat("a", 50)
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, line)
	}
	program := &model.CProgram{
		Functions: []model.Function{
			{Name: "big", ReturnType: "void", Body: strings.Join(lines, "\n")},
		},
	}

	chunks := BuildChunks(program, 100)
	var parts []Chunk
	for _, c := range chunks {
		if strings.HasPrefix(c.ID, "func_big") {
			parts = append(parts, c)
		}
	}
	require.Greater(t, len(parts), 1)
	assert.Equal(t, "func_big_part1", parts[0].ID)
}

func TestReadySetReturnsOnlyChunksWithSatisfiedDependencies(t *testing.T) {
	chunks := []Chunk{
		{ID: "program_structure"},
		{ID: "defines", Dependencies: []string{"program_structure"}},
		{ID: "func_add", Dependencies: []string{"program_structure"}},
	}

	ready := ReadySet(chunks, map[string]bool{})
	require.Len(t, ready, 1)
	assert.Equal(t, "program_structure", ready[0].ID)

	ready = ReadySet(chunks, map[string]bool{"program_structure": true})
	assert.Len(t, ready, 3)
}

func TestReadySetSignalsCircularDependency(t *testing.T) {
	chunks := []Chunk{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	}

	ready := ReadySet(chunks, map[string]bool{})
	assert.Empty(t, ready, "no chunk should be ready when every dependency is itself unresolved")
}

func TestRateLimiterAllowsRequestsUnderLimit(t *testing.T) {
	limiter := NewRateLimiter(2)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	limiter.sleep = func(context.Context, time.Duration) error {
		t.Fatal("should not sleep while under the limit")
		return nil
	}

	require.NoError(t, limiter.WaitIfNeeded(context.Background()))
	require.NoError(t, limiter.WaitIfNeeded(context.Background()))
}

func TestRateLimiterSleepsWhenWindowIsFull(t *testing.T) {
	limiter := NewRateLimiter(1)
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	var slept time.Duration
	limiter.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		current = current.Add(d)
		return nil
	}

	require.NoError(t, limiter.WaitIfNeeded(context.Background()))
	require.NoError(t, limiter.WaitIfNeeded(context.Background()))
	assert.Greater(t, slept, 59*time.Second)
}

func TestRateLimiterEvictsOldTimestamps(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	timestamps := []time.Time{start, start.Add(30 * time.Second)}
	kept := evictOlderThan(timestamps, start.Add(61*time.Second), 60*time.Second)
	assert.Len(t, kept, 1)
}

func TestQuotaRetryDelayParsesStructuredRetryInfo(t *testing.T) {
	body := `{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"12s"}]}}`
	assert.Equal(t, 12, QuotaRetryDelay(body, 0))
}

func TestQuotaRetryDelayParsesFreeTextFallback(t *testing.T) {
	assert.Equal(t, 7, QuotaRetryDelay("please retry in 7s", 0))
}

func TestQuotaRetryDelayFallsBackToExponential(t *testing.T) {
	assert.Equal(t, 60, QuotaRetryDelay("no hint here", 0))
	assert.Equal(t, 120, QuotaRetryDelay("no hint here", 1))
	assert.Equal(t, 300, QuotaRetryDelay("no hint here", 10))
}

func TestNetworkRetryDelayCapsAtThirtySeconds(t *testing.T) {
	assert.Equal(t, 1, NetworkRetryDelay(0))
	assert.Equal(t, 8, NetworkRetryDelay(3))
	assert.Equal(t, 30, NetworkRetryDelay(10))
}

func TestIsQuotaErrorRequiresStatusAndQuotaText(t *testing.T) {
	assert.True(t, IsQuotaError(429, "Quota exceeded for this project"))
	assert.False(t, IsQuotaError(429, "rate limited, try again"))
	assert.False(t, IsQuotaError(500, "quota exceeded"))
}

func TestCacheKeyStableAndContentSensitive(t *testing.T) {
	k1 := CacheKey(ChunkFunction, "func_add", "int add(int a, int b) { return a + b; }")
	k2 := CacheKey(ChunkFunction, "func_add", "int add(int a, int b) { return a + b; }")
	k3 := CacheKey(ChunkFunction, "func_add", "int add(int a, int b) { return a - b; }")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "function_func_add_"))
}

func TestResponseCacheRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache, err := OpenResponseCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	key := CacheKey(ChunkFunction, "func_add", "body")
	_, ok := cache.Get(key)
	assert.False(t, ok)

	require.NoError(t, cache.Put(key, CachedResponse{Success: true, ConvertedCode: "public static int Add(){}"}))

	got, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, "public static int Add(){}", got.ConvertedCode)
}

func TestMapTypeTableAndPointerLevels(t *testing.T) {
	assert.Equal(t, "int", MapType("int", 0))
	assert.Equal(t, "byte", MapType("char", 0))
	assert.Equal(t, "ulong", MapType("size_t", 0))
	assert.Equal(t, "ref int", MapType("int", 1))
	assert.Equal(t, "IntPtr", MapType("int", 2))
	assert.Equal(t, "int", MapType("const int", 0))
}

func TestNeedsUnsafeContext(t *testing.T) {
	assert.False(t, NeedsUnsafeContext(0))
	assert.True(t, NeedsUnsafeContext(1))
}

func TestConvertRuleBasedProducesValidStructure(t *testing.T) {
	code := ConvertRuleBased(sampleProgram())

	assert.Contains(t, code, "public class ConvertedCode")
	assert.Contains(t, code, "public const int MAX_SIZE = 100;")
	assert.Contains(t, code, "public enum Color")
	assert.Contains(t, code, "[StructLayout(LayoutKind.Sequential)]")
	assert.Contains(t, code, "public static int add(int a, int b)")
	assert.True(t, structuralValidate(code))
}

func TestEmergencyStubThrowsForEveryFunction(t *testing.T) {
	code := EmergencyStub(sampleProgram())
	assert.Contains(t, code, "public static int add(int a, int b)")
	assert.Contains(t, code, "throw new NotImplementedException();")
}

func TestBuildPromptHarnessVsConversion(t *testing.T) {
	harness := BuildPrompt(Chunk{Type: ChunkHarness, Content: "int add(int,int);"}, false)
	assert.Contains(t, harness, "class Program")
	assert.Contains(t, harness, "Main(string[] args)")

	single := BuildPrompt(Chunk{Type: ChunkFunction, Content: "int add(int a,int b){return a+b;}"}, false)
	assert.Contains(t, single, "Convert the following C code")
	assert.Contains(t, single, "ConvertedCode")

	project := BuildPrompt(Chunk{Type: ChunkFunction, Content: "int add(int a,int b){return a+b;}"}, true)
	assert.Contains(t, project, "MULTI-FILE PROJECT")
}

func TestStructuralValidateRejectsTruncatedOutput(t *testing.T) {
	assert.False(t, structuralValidate("too short"))
	assert.False(t, structuralValidate("public static int Add(int a, int b) { return a + b;"))
	assert.True(t, structuralValidate("public static int Add(int a, int b) { return a + b; }"))
}

func functionChunk(name string) Chunk {
	return Chunk{ID: "func_" + name, Type: ChunkFunction, Content: name}
}

func TestCompositeConverterFallsBackWhenBackendOutputInvalid(t *testing.T) {
	backend := &fakeBackend{available: true, response: "nope"}
	composite := NewCompositeConverter(backend, nil)

	result := composite.Convert(context.Background(), "convert this", functionChunk("add"), sampleProgram())
	assert.Equal(t, StageRuleBased, result.Stage)
	assert.Contains(t, result.Code, "public static int add(int a, int b)")
}

func TestCompositeConverterUsesBackendOutputWhenValid(t *testing.T) {
	valid := "public static int Add(int a, int b) { return a + b; }"
	backend := &fakeBackend{available: true, response: valid}
	composite := NewCompositeConverter(backend, nil)

	result := composite.Convert(context.Background(), "convert this", functionChunk("add"), sampleProgram())
	assert.Equal(t, StageBackend, result.Stage)
	assert.Equal(t, valid, result.Code)
}

func TestCompositeConverterSkipsUnavailableBackend(t *testing.T) {
	backend := &fakeBackend{available: false}
	composite := NewCompositeConverter(backend, nil)

	result := composite.Convert(context.Background(), "convert this", functionChunk("add"), sampleProgram())
	assert.Equal(t, StageRuleBased, result.Stage)
}

func TestCompositeConverterFallsToEmergencyStubWhenRuleBasedOutputIsMalformed(t *testing.T) {
	program := &model.CProgram{
		Functions: []model.Function{
			{Name: "broken", ReturnType: "void", Body: "{ if (x) { return; } "},
		},
	}
	composite := NewCompositeConverter(nil, nil)

	result := composite.Convert(context.Background(), "convert this", functionChunk("broken"), program)
	assert.Equal(t, StageEmergency, result.Stage)
	assert.Contains(t, result.Code, "NotImplementedException")
}

func TestAssembleDedupesUsingsAndOrdersSections(t *testing.T) {
	program := sampleProgram()
	converted := map[string]string{
		"defines":     "using System;\npublic const int MAX_SIZE = 100;",
		"enum_Color":  "using System;\npublic enum Color { RED, GREEN, BLUE }",
		"struct_Point": "public struct Point { public int x; public int y; }",
		"globals":     "public static int counter = 0;",
		"func_add":    "public static int add(int a, int b) { return a + b; }",
	}

	code := Assemble(program, converted)
	assert.Equal(t, 1, strings.Count(code, "using System;"))
	assert.True(t, strings.Index(code, "MAX_SIZE") < strings.Index(code, "enum Color"))
	assert.True(t, strings.Index(code, "enum Color") < strings.Index(code, "struct Point"))
	assert.True(t, strings.Index(code, "struct Point") < strings.Index(code, "counter"))
	assert.True(t, strings.Index(code, "counter") < strings.Index(code, "add(int a, int b)"))
}

func TestAssembleJoinsSplitFunctionParts(t *testing.T) {
	program := &model.CProgram{Functions: []model.Function{{Name: "big"}}}
	converted := map[string]string{
		"func_big_part1": "// part one",
		"func_big_part2": "// part two",
	}

	code := Assemble(program, converted)
	assert.True(t, strings.Index(code, "part one") < strings.Index(code, "part two"))
}

// fakeBackend is a deterministic, in-memory stand-in for an LLM backend.
type fakeBackend struct {
	available bool
	response  string
	err       error
	calls     int
}

func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestClientTranslateWithoutBackendUsesRuleBasedForEveryChunk(t *testing.T) {
	client := NewClient()
	result, err := client.Translate(context.Background(), sampleProgram())
	require.NoError(t, err)
	assert.Contains(t, result.Code, "public class ConvertedCode")
	assert.Contains(t, result.Code, "add(int a, int b)")

	for _, outcome := range result.Outcomes {
		if outcome.ChunkID == "program_structure" {
			continue
		}
		assert.Equal(t, StageRuleBased, outcome.Stage)
	}
}

func TestClientTranslateUsesBackendWhenOutputValid(t *testing.T) {
	valid := "using System;\npublic class ConvertedCode\n{\n    public static int Add(int a, int b) { return a + b; }\n}\n"
	backend := &fakeBackend{available: true, response: valid}
	limiter := NewRateLimiter(1000)

	client := NewClient(WithBackend(backend), WithRateLimiter(limiter))
	result, err := client.Translate(context.Background(), sampleProgram())
	require.NoError(t, err)

	foundBackendStage := false
	for _, outcome := range result.Outcomes {
		if outcome.ChunkID != "program_structure" && outcome.Stage == StageBackend {
			foundBackendStage = true
		}
	}
	assert.True(t, foundBackendStage)
	assert.Greater(t, backend.calls, 0)
}

func TestClientTranslateFallsBackAfterNetworkErrorExhaustsRetries(t *testing.T) {
	backend := &fakeBackend{available: true, err: fmt.Errorf("connection reset")}
	client := NewClient(WithBackend(backend), WithRateLimiter(NewRateLimiter(1000)), WithMaxRetries(1))

	result, err := client.Translate(context.Background(), sampleProgram())
	require.NoError(t, err)

	nonStructureChunks := 0
	for _, outcome := range result.Outcomes {
		if outcome.ChunkID == "program_structure" {
			continue
		}
		nonStructureChunks++
		assert.Equal(t, StageRuleBased, outcome.Stage)
	}
	assert.Equal(t, nonStructureChunks, backend.calls, "a single configured retry means exactly one backend attempt per chunk before falling back")
}

func TestRetryDelayIsZeroForNonQuotaHTTPError(t *testing.T) {
	client := NewClient()
	delay := client.retryDelay(&geminiHTTPError{StatusCode: 500, Body: "internal error"}, 0)
	assert.Equal(t, 0, delay)
}

func TestRetryDelayUsesQuotaDelayForQuotaHTTPError(t *testing.T) {
	client := NewClient()
	delay := client.retryDelay(&geminiHTTPError{StatusCode: 429, Body: "quota exceeded"}, 0)
	assert.Greater(t, delay, 0)
}

func TestRetryDelayUsesNetworkDelayForNonHTTPError(t *testing.T) {
	client := NewClient()
	delay := client.retryDelay(fmt.Errorf("connection reset"), 0)
	assert.Equal(t, NetworkRetryDelay(0), delay)
}

func TestClientTranslateUsesCacheOnSecondRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache, err := OpenResponseCache(dir)
	require.NoError(t, err)
	defer cache.Close()

	valid := "using System;\npublic class ConvertedCode\n{\n    public static int Add(int a, int b) { return a + b; }\n}\n"
	backend := &fakeBackend{available: true, response: valid}

	client := NewClient(WithBackend(backend), WithCache(cache), WithRateLimiter(NewRateLimiter(1000)))

	_, err = client.Translate(context.Background(), sampleProgram())
	require.NoError(t, err)
	callsAfterFirst := backend.calls

	_, err = client.Translate(context.Background(), sampleProgram())
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, backend.calls, "second run should be served entirely from cache")
}
