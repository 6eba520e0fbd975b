// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import "strings"

// typeClass is the generator's coarse classification of a C data type,
// used to decide which boundary/edge/random values make sense.
type typeClass int

const (
	classInt typeClass = iota
	classUnsignedInt
	classFloat
	classChar
	classBool
	classOther
)

// classify inspects a free-form C type token (as recovered by the analyzer)
// and returns the generator's best-effort classification. Unrecognized
// tokens fall back to classOther, which the value generators treat as a
// signed integer of bitWidth's width (4 bytes for unknown tokens).
func classify(dataType string) typeClass {
	t := strings.ToLower(strings.TrimSpace(dataType))
	t = strings.TrimPrefix(t, "const ")
	t = strings.TrimSpace(t)

	switch t {
	case "char", "signed char":
		return classChar
	case "unsigned char":
		return classChar
	case "_bool", "bool":
		return classBool
	case "float", "double", "long double":
		return classFloat
	}
	if strings.Contains(t, "unsigned") || t == "size_t" {
		return classUnsignedInt
	}
	switch t {
	case "short", "int", "long", "long long", "short int", "long int", "long long int":
		return classInt
	}
	return classOther
}

// bitWidth returns the little-endian byte width the symbolic driver uses to
// decode a raw byte sequence for this type.
// Unknown types fall back to 4 (treated as int).
func bitWidth(dataType string) int {
	t := strings.ToLower(strings.TrimSpace(dataType))
	t = strings.TrimPrefix(t, "const ")
	switch t {
	case "char", "signed char", "unsigned char", "_bool", "bool":
		return 1
	case "short", "unsigned short", "short int":
		return 2
	case "int", "unsigned int", "float":
		return 4
	case "long", "unsigned long", "long long", "unsigned long long", "double", "size_t":
		return 8
	default:
		return 4
	}
}
