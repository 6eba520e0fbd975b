// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
)

// EmitCHarness renders a C translation unit that declares forward
// prototypes for every tested function, then defines a main that runs each
// test case in the suite and prints one line per test in the canonical
// protocol.
func EmitCHarness(program *model.CProgram, suite model.TestSuite) string {
	var b strings.Builder
	b.WriteString("#include <stdio.h>\n#include <stdlib.h>\n#include <string.h>\n#include <math.h>\n\n")
	fmt.Fprintf(&b, "// Original program: %s\n\n", program.SourcePath)

	tested := testedFunctions(program, suite)
	for _, fn := range tested {
		b.WriteString(prototypeLine(fn))
		b.WriteString("\n")
	}
	if len(tested) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("int main(void) {\n    int passed = 0;\n    int failed = 0;\n\n")
	for _, tc := range suite.TestCases {
		fn, ok := program.GetFunctionByName(tc.FunctionName)
		if !ok {
			continue
		}
		emitTestCase(&b, *fn, tc)
	}
	b.WriteString("    printf(\"\\n=== Test Summary ===\\n\");\n")
	b.WriteString("    printf(\"Passed: %d\\n\", passed);\n")
	b.WriteString("    printf(\"Failed: %d\\n\", failed);\n")
	b.WriteString("    return 0;\n}\n")
	return b.String()
}

func testedFunctions(program *model.CProgram, suite model.TestSuite) []model.Function {
	seen := make(map[string]bool)
	var out []model.Function
	for _, tc := range suite.TestCases {
		if seen[tc.FunctionName] || tc.FunctionName == "main" {
			continue
		}
		if fn, ok := program.GetFunctionByName(tc.FunctionName); ok {
			seen[tc.FunctionName] = true
			out = append(out, *fn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func prototypeLine(fn model.Function) string {
	params := paramDeclList(fn)
	return fmt.Sprintf("%s %s(%s);", fn.ReturnType, fn.Name, params)
}

func paramDeclList(fn model.Function) string {
	if len(fn.Parameters) == 0 {
		return "void"
	}
	parts := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		parts[i] = fmt.Sprintf("%s%s %s", p.DataType, strings.Repeat("*", p.PointerLevel), p.Name)
	}
	return strings.Join(parts, ", ")
}

func emitTestCase(b *strings.Builder, fn model.Function, tc model.TestCase) {
	fmt.Fprintf(b, "    // Test: %s\n    {\n", tc.ID)

	// Declarations must be emitted in parameter order so pointer buffer
	// locals are visible before the call, regardless of map iteration order.
	for _, p := range fn.Parameters {
		value, ok := tc.Inputs[p.Name]
		if !ok {
			continue
		}
		decl, expr := formatLiteral(p, value)
		if decl != "" {
			fmt.Fprintf(b, "        %s\n", decl)
		}
		pointerType := p.DataType + strings.Repeat("*", p.PointerLevel)
		fmt.Fprintf(b, "        %s %s = %s;\n", pointerType, p.Name, expr)
	}

	argList := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		argList[i] = p.Name
	}
	call := fmt.Sprintf("%s(%s)", fn.Name, strings.Join(argList, ", "))

	if strings.ToLower(strings.TrimSpace(fn.ReturnType)) == "void" || fn.ReturnType == "" {
		fmt.Fprintf(b, "        %s;\n", call)
		fmt.Fprintf(b, "        printf(\"Test %s: completed\\n\");\n", tc.ID)
	} else {
		fmt.Fprintf(b, "        %s result = %s;\n", fn.ReturnType, call)
		fmt.Fprintf(b, "        %s\n", resultPrintStatement(tc.ID, fn.ReturnType))
	}

	b.WriteString("        passed++;\n    }\n\n")
}

// resultPrintStatement chooses a printf format for the function's return
// type so the output matches the canonical literal forms:
// integers without a decimal point, floats with one, strings quoted.
func resultPrintStatement(testID, returnType string) string {
	rt := strings.ToLower(strings.TrimSpace(returnType))
	switch {
	case strings.Contains(rt, "char") && strings.Contains(rt, "*"):
		return fmt.Sprintf(`printf("Test %s: result = \"%%s\"\n", result);`, testID)
	case strings.Contains(rt, "*"):
		return fmt.Sprintf(`printf("Test %s: result = %%p\n", result);`, testID)
	case strings.Contains(rt, "float") || strings.Contains(rt, "double"):
		return fmt.Sprintf(`printf("Test %s: result = %%#g\n", result);`, testID)
	case strings.Contains(rt, "unsigned"):
		return fmt.Sprintf(`printf("Test %s: result = %%llu\n", (unsigned long long)result);`, testID)
	default:
		return fmt.Sprintf(`printf("Test %s: result = %%lld\n", (long long)result);`, testID)
	}
}

// formatLiteral renders one input value as a C declaration (possibly empty)
// plus the expression assigned to the parameter.
func formatLiteral(p model.Variable, value any) (decl, expr string) {
	switch v := value.(type) {
	case CLiteral:
		return v.Decl, v.Expr
	case int64:
		if classify(p.DataType) == classChar && v >= 32 && v < 127 {
			return "", fmt.Sprintf("'%c'", rune(v))
		}
		return "", strconv.FormatInt(v, 10)
	case uint64:
		return "", strconv.FormatUint(v, 10) + "U"
	case float64:
		switch {
		case math.IsInf(v, 1):
			return "", "INFINITY"
		case math.IsInf(v, -1):
			return "", "-INFINITY"
		case math.IsNaN(v):
			return "", "NAN"
		default:
			return "", strconv.FormatFloat(v, 'g', -1, 64)
		}
	case bool:
		if v {
			return "", "1"
		}
		return "", "0"
	case string:
		return "", strconv.Quote(v)
	default:
		return "", fmt.Sprintf("%v", v)
	}
}
