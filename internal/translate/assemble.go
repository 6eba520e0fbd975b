// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
)

// Assemble concatenates converted chunks in canonical order (usings, class
// header, defines, enums, structs, globals, functions, class footer),
// skipping any chunk absent from converted (a failed chunk is simply
// omitted, not fatal; the caller decides whether a missing chunk gates
// the program's structural validation).
func Assemble(program *model.CProgram, converted map[string]string) string {
	var b strings.Builder
	b.WriteString("using System;\nusing System.Runtime.InteropServices;\n\n")
	b.WriteString("public class ConvertedCode\n{\n")

	appendIfPresent(&b, converted, "defines")
	for _, e := range program.Enums {
		appendIfPresent(&b, converted, "enum_"+e.Name)
	}
	for _, s := range program.Structs {
		appendIfPresent(&b, converted, "struct_"+s.Name)
	}
	appendIfPresent(&b, converted, "globals")
	for _, fn := range program.Functions {
		appendFunctionParts(&b, converted, fn.Name)
	}

	b.WriteString("}\n")
	return dedupeUsings(b.String())
}

func appendIfPresent(b *strings.Builder, converted map[string]string, id string) {
	if code, ok := converted[id]; ok && code != "" {
		b.WriteString(indentBlock(code, "    "))
		b.WriteString("\n\n")
	}
}

func appendFunctionParts(b *strings.Builder, converted map[string]string, fnName string) {
	base := "func_" + fnName
	if code, ok := converted[base]; ok {
		b.WriteString(indentBlock(code, "    "))
		b.WriteString("\n\n")
		return
	}
	for part := 1; ; part++ {
		id := base + partSuffix(part)
		code, ok := converted[id]
		if !ok {
			return
		}
		b.WriteString(indentBlock(code, "    "))
		b.WriteString("\n\n")
	}
}

func partSuffix(part int) string {
	return "_part" + itoa(part)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// dedupeUsings removes repeated `using` lines, keeping the first
// occurrence's position.
func dedupeUsings(code string) string {
	seen := make(map[string]bool)
	lines := strings.Split(code, "\n")
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "using ") {
			if seen[trimmed] {
				continue
			}
			seen[trimmed] = true
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
