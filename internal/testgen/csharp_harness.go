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
	"strconv"
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
	"github.com/transmute-dev/transmute/internal/translate"
)

// EmitCSharpHarness renders a Program.cs entry point that calls into
// className with the same test cases as the C harness and prints results in
// the identical canonical protocol, so the two runners' output is directly
// comparable.
func EmitCSharpHarness(program *model.CProgram, suite model.TestSuite, className string) string {
	var b strings.Builder
	b.WriteString("using System;\n\n")
	b.WriteString("public class Program\n{\n")
	b.WriteString("    public static void Main(string[] args)\n    {\n")
	b.WriteString("        int passed = 0;\n        int failed = 0;\n\n")

	for _, tc := range suite.TestCases {
		fn, ok := program.GetFunctionByName(tc.FunctionName)
		if !ok {
			continue
		}
		emitCSharpTestCase(&b, *fn, tc, className)
	}

	b.WriteString("        Console.WriteLine(\"\\n=== Test Summary ===\");\n")
	b.WriteString("        Console.WriteLine(\"Passed: \" + passed);\n")
	b.WriteString("        Console.WriteLine(\"Failed: \" + failed);\n")
	b.WriteString("    }\n}\n")
	return b.String()
}

func emitCSharpTestCase(b *strings.Builder, fn model.Function, tc model.TestCase, className string) {
	fmt.Fprintf(b, "        // Test: %s\n        try\n        {\n", tc.ID)

	for _, p := range fn.Parameters {
		value, ok := tc.Inputs[p.Name]
		if !ok {
			continue
		}
		csType := translate.MapType(p.DataType, p.PointerLevel)
		fmt.Fprintf(b, "            %s %s = %s;\n", csType, p.Name, csharpLiteral(value))
	}

	argNames := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		argNames[i] = p.Name
	}
	call := fmt.Sprintf("%s.%s(%s)", className, fn.Name, strings.Join(argNames, ", "))

	if strings.ToLower(strings.TrimSpace(fn.ReturnType)) == "void" || fn.ReturnType == "" {
		fmt.Fprintf(b, "            %s;\n", call)
		fmt.Fprintf(b, "            Console.WriteLine(\"Test %s: completed\");\n", tc.ID)
	} else {
		fmt.Fprintf(b, "            var result = %s;\n", call)
		fmt.Fprintf(b, "            Console.WriteLine(\"Test %s: result = \" + result);\n", tc.ID)
	}

	b.WriteString("            passed++;\n        }\n")
	fmt.Fprintf(b, "        catch (Exception ex)\n        {\n            Console.WriteLine(\"Test %s: ERROR - \" + ex.Message);\n            failed++;\n        }\n\n", tc.ID)
}

// csharpLiteral renders an input value as a C# literal expression, mirroring
// formatLiteral's C rendering for the same value types.
func csharpLiteral(value any) string {
	switch v := value.(type) {
	case CLiteral:
		return v.Expr
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		switch {
		case math.IsNaN(v):
			return "double.NaN"
		case math.IsInf(v, 1):
			return "double.PositiveInfinity"
		case math.IsInf(v, -1):
			return "double.NegativeInfinity"
		default:
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
