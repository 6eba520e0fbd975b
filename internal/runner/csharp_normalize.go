// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package runner

import (
	"regexp"
	"strings"
)

var (
	usingPattern       = regexp.MustCompile(`^using\s+[\w.]+;`)
	classPattern       = regexp.MustCompile(`^\s*(?:public|private|internal|protected)?\s*class\s+\w+\s*$`)
	classWithBracePat  = regexp.MustCompile(`^\s*(?:public|private|internal|protected)?\s*class\s+\w+\s*\{\s*$`)
	accessModifierPat  = regexp.MustCompile(`\b(public|private|protected|internal|static)\s+`)
	methodSignaturePat = regexp.MustCompile(`\w+\s*\([^)]*\)`)
)

// NormalizeCSharpCode turns raw, possibly class-wrapped AI output into a
// single top-level class named className: markdown fences are stripped,
// any nested class declarations are unwrapped, members are re-indented
// under one class body, duplicate methods (same name and parameter list,
// regardless of access modifier) are dropped, and every method lacking an
// explicit access-modifier-adjacent "static" gets one added.
func NormalizeCSharpCode(code, className string) string {
	code = stripMarkdownFences(code)
	lines := strings.Split(code, "\n")

	usings := extractUsings(lines)
	body := reindentMembers(unwrapClasses(lines))

	var b strings.Builder
	for _, u := range usings {
		b.WriteString(u)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("public class " + className + "\n")
	b.WriteString("{\n")
	b.WriteString(body)
	b.WriteString("}\n")

	return ensureStatic(dedupeMethods(b.String()))
}

func stripMarkdownFences(code string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func extractUsings(lines []string) []string {
	var usings []string
	seen := make(map[string]bool)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if usingPattern.MatchString(trimmed) && !seen[trimmed] {
			usings = append(usings, trimmed)
			seen[trimmed] = true
		}
	}
	if len(usings) == 0 {
		return []string{"using System;", "using System.Runtime.InteropServices;"}
	}
	return usings
}

// unwrapClasses strips using directives and any "class Name { ... }"
// wrapper, tracking brace depth so only the class's own opening/closing
// braces are removed (member bodies keep theirs).
func unwrapClasses(lines []string) []string {
	var filtered []string
	var braceStack []string
	skipNextOpenBrace := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if usingPattern.MatchString(trimmed) {
			continue
		}

		if classPattern.MatchString(trimmed) || classWithBracePat.MatchString(trimmed) {
			if strings.Contains(trimmed, "{") {
				braceStack = append(braceStack, "class")
			} else {
				skipNextOpenBrace = true
			}
			continue
		}

		if skipNextOpenBrace && trimmed == "{" {
			skipNextOpenBrace = false
			braceStack = append(braceStack, "class")
			continue
		}

		if trimmed == "}" {
			if len(braceStack) > 0 {
				top := braceStack[len(braceStack)-1]
				braceStack = braceStack[:len(braceStack)-1]
				if top == "class" {
					continue
				}
			}
		}

		if strings.Contains(line, "{") && !classPattern.MatchString(trimmed) {
			for i := 0; i < strings.Count(line, "{"); i++ {
				braceStack = append(braceStack, "method")
			}
		}
		if strings.Contains(line, "}") && trimmed != "}" {
			for i := 0; i < strings.Count(line, "}"); i++ {
				if len(braceStack) > 0 && braceStack[len(braceStack)-1] == "method" {
					braceStack = braceStack[:len(braceStack)-1]
				}
			}
		}

		if trimmed != "" || (len(filtered) > 0 && strings.TrimSpace(filtered[len(filtered)-1]) != "") {
			filtered = append(filtered, line)
		}
	}
	return filtered
}

// reindentMembers strips each line's common leading indentation and
// re-adds it relative to a single 4-space class-member indent.
func reindentMembers(lines []string) string {
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent == -1 {
		minIndent = 0
	}

	var b strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		rel := indent - minIndent
		if rel < 0 {
			rel = 0
		}
		b.WriteString("    " + strings.Repeat(" ", rel) + strings.TrimLeft(line, " ") + "\n")
	}
	return b.String()
}

func isMemberDecl(trimmed string) bool {
	return (strings.HasPrefix(trimmed, "public") || strings.HasPrefix(trimmed, "private") ||
		strings.HasPrefix(trimmed, "protected") || strings.HasPrefix(trimmed, "internal")) &&
		strings.Contains(trimmed, "(") && strings.Contains(trimmed, ")") &&
		!strings.HasPrefix(trimmed, "public class") && !strings.HasPrefix(trimmed, "private class")
}

// dedupeMethods keeps only the first occurrence of each method, keyed by
// name and parameter list with access/static modifiers stripped, so a
// chunked translation that re-emits the same method twice across chunks
// collapses to one definition.
func dedupeMethods(code string) string {
	lines := strings.Split(code, "\n")
	seen := make(map[string]bool)
	var final []string
	var current []string
	inMethod := false
	braceLevel := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		key := extractMethodKey(current)
		if !seen[key] {
			seen[key] = true
			final = append(final, current...)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case isMemberDecl(trimmed):
			if inMethod {
				flush()
			}
			inMethod = true
			braceLevel = strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
			current = append(current, line)
		case inMethod:
			braceLevel += strings.Count(line, "{") - strings.Count(line, "}")
			current = append(current, line)
			if braceLevel <= 0 {
				flush()
				inMethod = false
			}
		default:
			final = append(final, line)
		}
	}
	flush()
	return strings.Join(final, "\n")
}

func extractMethodKey(methodLines []string) string {
	if len(methodLines) == 0 {
		return ""
	}
	first := strings.TrimSpace(methodLines[0])
	cleaned := accessModifierPat.ReplaceAllString(first, "")
	if m := methodSignaturePat.FindString(cleaned); m != "" {
		return m
	}
	return strings.TrimSpace(strings.SplitN(first, "{", 2)[0])
}

// ensureStatic appends "static" to every method declaration lacking one,
// required because ConvertedCode's members are invoked without an instance.
func ensureStatic(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !isMemberDecl(trimmed) || strings.Contains(trimmed, "static") {
			continue
		}
		switch {
		case strings.HasPrefix(trimmed, "public"):
			lines[i] = strings.Replace(line, "public ", "public static ", 1)
		case strings.HasPrefix(trimmed, "private"):
			lines[i] = strings.Replace(line, "private ", "private static ", 1)
		case strings.HasPrefix(trimmed, "protected"):
			lines[i] = strings.Replace(line, "protected ", "protected static ", 1)
		case strings.HasPrefix(trimmed, "internal"):
			lines[i] = strings.Replace(line, "internal ", "internal static ", 1)
		}
	}
	return strings.Join(lines, "\n")
}
