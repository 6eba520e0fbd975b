// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import "strings"

// typeMap is the explicit, testable C-to-C# primitive mapping table
// consumed by the rule-based converter.
var typeMap = map[string]string{
	"int":       "int",
	"short":     "short",
	"long":      "long",
	"long long": "long",
	"char":      "byte",

	"unsigned int":       "uint",
	"unsigned short":     "ushort",
	"unsigned long":      "ulong",
	"unsigned long long": "ulong",
	"unsigned char":      "byte",

	"float":       "float",
	"double":      "double",
	"long double": "double",

	"void": "void",
	"bool": "bool",
	"_Bool": "bool",

	"size_t":  "ulong",
	"ssize_t": "long",
}

// MapType maps one C type (plus pointer level) to its C# equivalent: a bare
// pointer-level-1 parameter becomes a `ref T`, anything deeper becomes an
// opaque `IntPtr`.
func MapType(cType string, pointerLevel int) string {
	base := cleanTypeToken(cType)
	csharpType, ok := typeMap[base]
	if !ok {
		csharpType = base
	}

	switch {
	case pointerLevel == 1:
		return "ref " + csharpType
	case pointerLevel > 1:
		return "IntPtr"
	default:
		return csharpType
	}
}

func cleanTypeToken(cType string) string {
	t := strings.TrimSpace(cType)
	t = strings.ReplaceAll(t, "const ", "")
	t = strings.ReplaceAll(t, "static ", "")
	t = strings.ReplaceAll(t, "extern ", "")
	return strings.TrimSpace(t)
}

// NeedsUnsafeContext reports whether a parameter's C type requires an
// `unsafe` C# context: any pointer-typed parameter does.
func NeedsUnsafeContext(pointerLevel int) bool {
	return pointerLevel > 0
}
