// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmute-dev/transmute/internal/model"
)

func intParam(name string) model.Variable {
	return model.Variable{Name: name, DataType: "int"}
}

func pointerParam(name string) model.Variable {
	return model.Variable{Name: name, DataType: "int", PointerLevel: 1}
}

func sampleFunction() model.Function {
	return model.Function{
		Name:       "add",
		ReturnType: "int",
		Parameters: []model.Variable{intParam("a"), intParam("b")},
		LineStart:  10,
		LineEnd:    13,
		Complexity: 1,
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, classInt, classify("int"))
	assert.Equal(t, classUnsignedInt, classify("unsigned int"))
	assert.Equal(t, classUnsignedInt, classify("size_t"))
	assert.Equal(t, classFloat, classify("double"))
	assert.Equal(t, classChar, classify("char"))
	assert.Equal(t, classBool, classify("bool"))
	assert.Equal(t, classOther, classify("MyStruct"))
}

func TestBitWidth(t *testing.T) {
	assert.Equal(t, 1, bitWidth("char"))
	assert.Equal(t, 4, bitWidth("int"))
	assert.Equal(t, 8, bitWidth("long"))
	assert.Equal(t, 4, bitWidth("unknown_type_t"))
}

func TestBoundaryValuesIncludesMinNegOneZeroOneMax(t *testing.T) {
	v := intParam("x")
	values := BoundaryValues(v)
	assert.Contains(t, values, MinValue(v))
	assert.Contains(t, values, int64(-1))
	assert.Contains(t, values, int64(0))
	assert.Contains(t, values, int64(1))
	assert.Contains(t, values, MaxValue(v))
}

func TestBoundaryValuesForCharIncludesAsciiPicks(t *testing.T) {
	v := model.Variable{Name: "c", DataType: "char"}
	values := BoundaryValues(v)
	assert.Contains(t, values, int64('A'))
	assert.Contains(t, values, int64('a'))
	assert.Contains(t, values, int64('0'))
}

func TestBoundaryValuesForPointerReturnsLiterals(t *testing.T) {
	v := pointerParam("p")
	values := BoundaryValues(v)
	require.Len(t, values, 2)
	lit, ok := values[0].(CLiteral)
	require.True(t, ok)
	assert.Equal(t, "NULL", lit.Expr)
}

func TestEdgeValuesForFloatIncludesSignedZeroAndInfinities(t *testing.T) {
	v := model.Variable{Name: "f", DataType: "float"}
	values := EdgeValues(v)
	var sawPosInf, sawNegInf bool
	for _, raw := range values {
		f, ok := raw.(float64)
		require.True(t, ok)
		if math.IsInf(f, 1) {
			sawPosInf = true
		}
		if math.IsInf(f, -1) {
			sawNegInf = true
		}
	}
	assert.True(t, sawPosInf)
	assert.True(t, sawNegInf)
}

func TestEdgeValuesForPointerIsNull(t *testing.T) {
	v := pointerParam("p")
	values := EdgeValues(v)
	require.Len(t, values, 1)
	lit, ok := values[0].(CLiteral)
	require.True(t, ok)
	assert.Equal(t, "NULL", lit.Expr)
}

func TestRandomValuesIsDeterministicUnderSharedSeed(t *testing.T) {
	v := intParam("x")
	first := RandomValues(v, 5, rand.New(rand.NewSource(7)))
	second := RandomValues(v, 5, rand.New(rand.NewSource(7)))
	assert.Equal(t, first, second)
}

func TestRandomValuesRespectsCount(t *testing.T) {
	v := intParam("x")
	values := RandomValues(v, 4, rand.New(rand.NewSource(1)))
	assert.Len(t, values, 4)
}

func TestGenerateTestsLinearNotCartesian(t *testing.T) {
	fn := sampleFunction()
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryBoundary}, DefaultSeed)

	// Each of the two parameters contributes len(BoundaryValues) cases, plus
	// one all-min and one all-max case: the combination policy is linear,
	// not the cartesian product of both parameters' boundary sets.
	perParam := len(BoundaryValues(intParam("a")))
	expected := perParam*len(fn.Parameters) + 2
	assert.Equal(t, expected, suite.Len())
}

func TestGenerateTestsIncludesAllMinAndAllMaxCases(t *testing.T) {
	fn := sampleFunction()
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryBoundary}, DefaultSeed)

	var sawMin, sawMax bool
	for _, tc := range suite.TestCases {
		if tc.ID == fn.Name+"_all_min" {
			sawMin = true
			assert.Equal(t, MinValue(intParam("a")), tc.Inputs["a"])
			assert.Equal(t, MinValue(intParam("b")), tc.Inputs["b"])
		}
		if tc.ID == fn.Name+"_all_max" {
			sawMax = true
		}
	}
	assert.True(t, sawMin)
	assert.True(t, sawMax)
}

func TestMaxValuePointerBufferNameIsParameterSpecific(t *testing.T) {
	a := MaxValue(pointerParam("a")).(CLiteral)
	b := MaxValue(pointerParam("b")).(CLiteral)
	assert.NotEqual(t, a.Expr, b.Expr, "distinct parameters must not share a buffer name")
	assert.Contains(t, a.Decl, "buf_a_max")
	assert.Contains(t, b.Decl, "buf_b_max")
}

func TestEmitCHarnessAllMaxCaseDeclaresDistinctBuffersForEachPointerParam(t *testing.T) {
	fn := model.Function{
		Name:       "swap",
		ReturnType: "void",
		Parameters: []model.Variable{pointerParam("a"), pointerParam("b")},
	}
	program := &model.CProgram{ProgramID: "prog1", Functions: []model.Function{fn}}
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryBoundary}, DefaultSeed)

	harness := EmitCHarness(program, suite)
	assert.Contains(t, harness, "buf_a_max")
	assert.Contains(t, harness, "buf_b_max")

	var block strings.Builder
	inBlock := false
	for _, line := range strings.Split(harness, "\n") {
		if strings.Contains(line, "Test: swap_all_max") {
			inBlock = true
		}
		if inBlock {
			block.WriteString(line + "\n")
			if strings.TrimSpace(line) == "}" {
				break
			}
		}
	}
	assert.Equal(t, 1, strings.Count(block.String(), "buf_a_max[8]"), "buffer declared exactly once per parameter")
	assert.Equal(t, 1, strings.Count(block.String(), "buf_b_max[8]"), "buffer declared exactly once per parameter")
}

func TestGenerateTestsHonorsRequestedCategoriesOnly(t *testing.T) {
	fn := sampleFunction()
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryRandom}, DefaultSeed)
	for _, tc := range suite.TestCases {
		if tc.ID == fn.Name+"_all_min" || tc.ID == fn.Name+"_all_max" {
			continue
		}
		assert.Equal(t, model.CategoryRandom, tc.Category)
	}
}

func TestStripMainRemovesSingleDefinition(t *testing.T) {
	src := "int helper(int x) { return x; }\n\nint main(void) {\n    int y = helper(2);\n    return 0;\n}\n"
	stripped := StripMain(src)
	assert.NotContains(t, stripped, "main(")
	assert.Contains(t, stripped, "int helper(int x)")
}

func TestStripMainHandlesNestedBraces(t *testing.T) {
	src := `int main(void) {
    if (1) {
        for (int i = 0; i < 3; i++) {
            int x = i;
        }
    }
    return 0;
}
`
	stripped := StripMain(src)
	assert.NotContains(t, stripped, "main(")
}

func TestStripMainLeavesZeroMainDefinitionsAtDepthZero(t *testing.T) {
	src := "int compute(int a) {\n    int main_value = a;\n    return main_value;\n}\n\nint main() {\n    return compute(1);\n}\n"
	stripped := StripMain(src)
	braceDepth := 0
	for _, line := range strings.Split(stripped, "\n") {
		trimmed := strings.TrimSpace(line)
		if braceDepth == 0 && strings.Contains(trimmed, "main(") {
			t.Fatalf("found a main( at brace depth 0 after stripping: %q", trimmed)
		}
		braceDepth += strings.Count(line, "{") - strings.Count(line, "}")
	}
}

func TestEmitCHarnessIncludesPrototypeAndCanonicalLines(t *testing.T) {
	fn := sampleFunction()
	program := &model.CProgram{
		ProgramID:  "prog1",
		SourcePath: "sample.c",
		Functions:  []model.Function{fn},
	}
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryBoundary}, DefaultSeed)

	harness := EmitCHarness(program, suite)
	assert.Contains(t, harness, "int add(int a, int b);")
	assert.Contains(t, harness, "=== Test Summary ===")
	assert.Contains(t, harness, "Passed:")
	assert.Contains(t, harness, "Failed:")
	for _, tc := range suite.TestCases {
		assert.Contains(t, harness, "Test "+tc.ID+": result =")
	}
}

func TestEmitCHarnessVoidFunctionPrintsCompleted(t *testing.T) {
	fn := model.Function{Name: "log_it", ReturnType: "void", Parameters: []model.Variable{intParam("x")}}
	program := &model.CProgram{ProgramID: "prog1", Functions: []model.Function{fn}}
	suite := GenerateTests(fn, "prog1", []model.TestCategory{model.CategoryBoundary}, DefaultSeed)

	harness := EmitCHarness(program, suite)
	for _, tc := range suite.TestCases {
		assert.Contains(t, harness, "Test "+tc.ID+": completed")
	}
}

func TestSelectForSymbolicQuickThreshold(t *testing.T) {
	g := NewTestGenerator(WithStrategyMode(StrategyQuick))
	small := model.Function{Name: "small", Complexity: 2, LineStart: 1, LineEnd: 5}
	big := model.Function{Name: "big", Complexity: 9, LineStart: 1, LineEnd: 40}

	selected := g.selectForSymbolic([]model.Function{small, big})
	assert.True(t, selected["small"])
	assert.False(t, selected["big"])
}

func TestSelectForSymbolicBalancedThreshold(t *testing.T) {
	g := NewTestGenerator(WithStrategyMode(StrategyBalanced))
	complexFn := model.Function{Name: "complex", Complexity: 4, LineStart: 1, LineEnd: 4}
	trivial := model.Function{Name: "trivial", Complexity: 1, LineStart: 1, LineEnd: 2}

	selected := g.selectForSymbolic([]model.Function{complexFn, trivial})
	assert.True(t, selected["complex"])
	assert.False(t, selected["trivial"])
}

func TestSelectForSymbolicThoroughSelectsEverything(t *testing.T) {
	g := NewTestGenerator(WithStrategyMode(StrategyThorough))
	fns := []model.Function{
		{Name: "a", Complexity: 1, LineStart: 1, LineEnd: 2},
		{Name: "b", Complexity: 20, LineStart: 1, LineEnd: 100},
	}
	selected := g.selectForSymbolic(fns)
	assert.True(t, selected["a"])
	assert.True(t, selected["b"])
}

func TestDefaultCategoriesWithSymbolicAvailable(t *testing.T) {
	assert.Equal(t, []model.TestCategory{model.CategorySymbolic, model.CategoryBoundary}, DefaultCategories(true))
}

func TestDefaultCategoriesWithoutSymbolicAvailable(t *testing.T) {
	assert.Equal(t,
		[]model.TestCategory{model.CategoryBoundary, model.CategoryEdge, model.CategoryRandom},
		DefaultCategories(false))
}

func TestGenerateForProgramExcludesMainAndStatic(t *testing.T) {
	program := &model.CProgram{
		ProgramID: "prog1",
		Functions: []model.Function{
			sampleFunction(),
			{Name: "main", ReturnType: "int"},
			{Name: "helper", ReturnType: "int", IsStatic: true, Parameters: []model.Variable{intParam("a")}},
		},
	}
	g := NewTestGenerator()
	suite := g.GenerateForProgram(context.Background(), program, "")

	for _, tc := range suite.TestCases {
		assert.NotEqual(t, "main", tc.FunctionName)
		assert.NotEqual(t, "helper", tc.FunctionName)
	}
	require.NotZero(t, suite.Len())
}

func TestGenerateForProgramSingleFunctionFilter(t *testing.T) {
	program := &model.CProgram{
		ProgramID: "prog1",
		Functions: []model.Function{
			sampleFunction(),
			{Name: "other", ReturnType: "int", Parameters: []model.Variable{intParam("x")}},
		},
	}
	g := NewTestGenerator()
	suite := g.GenerateForProgram(context.Background(), program, "add")

	for _, tc := range suite.TestCases {
		assert.Equal(t, "add", tc.FunctionName)
	}
	require.NotZero(t, suite.Len())
}

func TestGenerateForProgramWithoutSymbolicDriverUsesBoundaryEdgeRandom(t *testing.T) {
	program := &model.CProgram{ProgramID: "prog1", Functions: []model.Function{sampleFunction()}}
	g := NewTestGenerator()
	suite := g.GenerateForProgram(context.Background(), program, "add")

	seen := map[model.TestCategory]bool{}
	for _, tc := range suite.TestCases {
		seen[tc.Category] = true
	}
	assert.True(t, seen[model.CategoryBoundary])
	assert.False(t, seen[model.CategorySymbolic])
}
