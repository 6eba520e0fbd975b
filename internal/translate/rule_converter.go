// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
)

// callReplacements mirrors the rule-based converter's known-call
// transforms: textual, word-boundary substitutions applied to a function
// body before it is embedded in the generated class.
var callReplacements = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`\bprintf\b`), "Console.WriteLine"},
	{regexp.MustCompile(`\bscanf\b`), "Console.ReadLine"},
	{regexp.MustCompile(`\bmalloc\b`), "new"},
	{regexp.MustCompile(`\bfree\b`), "// GC will handle"},
	{regexp.MustCompile(`\bNULL\b`), "null"},
	{regexp.MustCompile(`\bnullptr\b`), "null"},
}

var numericLiteralPattern = regexp.MustCompile(`^-?[0-9.]+$`)

// ConvertRuleBased deterministically maps a CProgram to C# using
// TypeMapper and a fixed set of call-site rewrites, with no LLM
// involvement. It is the translator's fallback converter when no backend
// is available or an LLM backend's output fails structural validation.
func ConvertRuleBased(program *model.CProgram) string {
	var b strings.Builder
	b.WriteString("using System;\nusing System.Runtime.InteropServices;\n\n")
	b.WriteString("public class ConvertedCode\n{\n")

	if len(program.Defines) > 0 {
		b.WriteString("    // Constants (from #define)\n")
		for _, d := range program.Defines {
			if line := convertDefine(d); line != "" {
				b.WriteString("    " + line + "\n")
			}
		}
		b.WriteString("\n")
	}

	for _, e := range program.Enums {
		b.WriteString(indentBlock(convertEnum(e), "    "))
		b.WriteString("\n\n")
	}

	for _, s := range program.Structs {
		b.WriteString(indentBlock(convertStruct(s), "    "))
		b.WriteString("\n\n")
	}

	if len(program.Variables) > 0 {
		b.WriteString("    // Global variables\n")
		for _, v := range program.Variables {
			b.WriteString("    " + convertVariable(v) + "\n")
		}
		b.WriteString("\n")
	}

	for _, fn := range program.Functions {
		b.WriteString(indentBlock(convertFunction(fn), "    "))
		b.WriteString("\n\n")
	}

	b.WriteString("}\n")
	return b.String()
}

func convertDefine(d model.Define) string {
	value := strings.TrimSpace(d.Value)
	if value == "" {
		return fmt.Sprintf("// #define %s", d.Name)
	}
	if numericLiteralPattern.MatchString(value) {
		if strings.Contains(value, ".") {
			return fmt.Sprintf("public const double %s = %s;", d.Name, value)
		}
		return fmt.Sprintf("public const int %s = %s;", d.Name, value)
	}
	if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return fmt.Sprintf("public const string %s = %s;", d.Name, value)
	}
	return fmt.Sprintf("// #define %s %s", d.Name, value)
}

func convertEnum(e model.Enum) string {
	var b strings.Builder
	fmt.Fprintf(&b, "public enum %s\n{\n", e.Name)
	for _, member := range e.Members {
		fmt.Fprintf(&b, "    %s,\n", member)
	}
	b.WriteString("}")
	return b.String()
}

func convertStruct(s model.Struct) string {
	var b strings.Builder
	b.WriteString("[StructLayout(LayoutKind.Sequential)]\n")
	fmt.Fprintf(&b, "public struct %s\n{\n", s.Name)
	for _, field := range s.Fields {
		csharpType := MapType(field.DataType, field.PointerLevel)
		fmt.Fprintf(&b, "    public %s %s;\n", csharpType, field.Name)
	}
	b.WriteString("}")
	return b.String()
}

func convertVariable(v model.Variable) string {
	csharpType := MapType(v.DataType, v.PointerLevel)
	var modifiers []string
	modifiers = append(modifiers, "public")
	if v.IsStatic {
		modifiers = append(modifiers, "static")
	}
	if v.IsConst {
		modifiers = append(modifiers, "const")
	}
	init := ""
	if v.Initializer != "" {
		init = " = " + v.Initializer
	}
	return fmt.Sprintf("%s %s %s%s;", strings.Join(modifiers, " "), csharpType, v.Name, init)
}

func convertFunction(fn model.Function) string {
	returnType := MapType(fn.ReturnType, 0)
	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = fmt.Sprintf("%s %s", MapType(p.DataType, p.PointerLevel), p.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "public static %s %s(%s)\n{\n", returnType, fn.Name, strings.Join(params, ", "))
	b.WriteString(indentBlock(convertFunctionBody(fn.Body), "    "))
	b.WriteString("\n}")
	return b.String()
}

func convertFunctionBody(body string) string {
	trimmed := strings.TrimSpace(body)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")

	for _, r := range callReplacements {
		trimmed = r.pattern.ReplaceAllString(trimmed, r.replace)
	}

	var kept []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimRight(line, " \t")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func indentBlock(block, indent string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// EmergencyStub produces a minimal, always-compilable C# stub when even
// the rule-based converter's output fails validation: every function
// becomes a NotImplementedException throw.
func EmergencyStub(program *model.CProgram) string {
	var b strings.Builder
	b.WriteString("using System;\n\npublic class ConvertedCode\n{\n")
	b.WriteString("    // Emergency conversion - manual review required\n\n")
	for _, fn := range program.Functions {
		b.WriteString(indentBlock(emergencyFunctionStub(fn), "    "))
		b.WriteString("\n\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func emergencyFunctionStub(fn model.Function) string {
	params := make([]string, len(fn.Parameters))
	for i, p := range fn.Parameters {
		params[i] = fmt.Sprintf("%s %s", p.DataType, p.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "public static %s %s(%s)\n{\n", fn.ReturnType, fn.Name, strings.Join(params, ", "))
	b.WriteString("    throw new NotImplementedException();\n}")
	return b.String()
}

// definesBlock renders just the constant declarations for a "defines"
// chunk, with no surrounding class wrapper; the assembler supplies that.
func definesBlock(defines []model.Define) string {
	lines := make([]string, 0, len(defines))
	for _, d := range defines {
		if line := convertDefine(d); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// globalsBlock renders just the field declarations for a "globals" chunk.
func globalsBlock(vars []model.Variable) string {
	lines := make([]string, len(vars))
	for i, v := range vars {
		lines[i] = convertVariable(v)
	}
	return strings.Join(lines, "\n")
}

