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
	"math/rand"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultSeed is the input generator's default deterministic random seed.
const DefaultSeed = 42

// CLiteral is a C expression that needs a supporting local declaration,
// used for pointer-typed parameters where a bare Go value cannot carry
// the argument ("pass the address of this buffer" rather than a scalar).
type CLiteral struct {
	Decl string // local declaration statement, emitted before the call; "" if none
	Expr string // the expression passed as the argument itself
}

func pointerLiteral(v model.Variable, nameHint string, fill []int64) CLiteral {
	pointee := basePointeeType(v)
	paramName := v.Name
	if paramName == "" {
		paramName = "p"
	}
	varName := "buf_" + paramName + "_" + nameHint
	if len(fill) == 0 {
		return CLiteral{Expr: "NULL"}
	}
	elems := make([]string, len(fill))
	for i, f := range fill {
		elems[i] = fmt.Sprintf("%d", f)
	}
	decl := fmt.Sprintf("%s %s[%d] = {%s};", pointee, varName, len(fill), joinComma(elems))
	return CLiteral{Decl: decl, Expr: varName}
}

func basePointeeType(v model.Variable) string {
	if v.DataType == "" {
		return "int"
	}
	return v.DataType
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// MinValue returns the type's minimum representable scalar value (or a
// sentinel pointer literal for pointer parameters).
func MinValue(v model.Variable) any {
	if v.IsPointer() {
		return CLiteral{Expr: "NULL"}
	}
	switch classify(v.DataType) {
	case classUnsignedInt, classBool:
		return uint64(0)
	case classFloat:
		return -maxFloatForWidth(bitWidth(v.DataType))
	case classChar:
		return int64(-128)
	default:
		return minIntForWidth(bitWidth(v.DataType))
	}
}

// MaxValue returns the type's maximum representable scalar value (or a
// non-null pointer literal for pointer parameters).
func MaxValue(v model.Variable) any {
	if v.IsPointer() {
		return pointerLiteral(v, "max", []int64{1, 1, 1, 1, 1, 1, 1, 1})
	}
	switch classify(v.DataType) {
	case classUnsignedInt:
		return maxUintForWidth(bitWidth(v.DataType))
	case classBool:
		return uint64(1)
	case classFloat:
		return maxFloatForWidth(bitWidth(v.DataType))
	case classChar:
		return int64(127)
	default:
		return maxIntForWidth(bitWidth(v.DataType))
	}
}

// ZeroValue returns the type's zero/default value, used to hold parameters
// steady while another parameter is being stressed.
func ZeroValue(v model.Variable) any {
	if v.IsPointer() {
		return CLiteral{Expr: "NULL"}
	}
	switch classify(v.DataType) {
	case classUnsignedInt, classBool:
		return uint64(0)
	case classFloat:
		return float64(0)
	default:
		return int64(0)
	}
}

// BoundaryValues returns type min, -1, 0, 1, type max, plus domain-aware
// picks (ASCII letters for char parameters).
func BoundaryValues(v model.Variable) []any {
	if v.IsPointer() {
		return []any{
			CLiteral{Expr: "NULL"},
			pointerLiteral(v, "bnd", []int64{0}),
		}
	}
	values := []any{MinValue(v)}
	cls := classify(v.DataType)
	switch cls {
	case classUnsignedInt, classBool:
		values = append(values, uint64(0), uint64(1))
	case classFloat:
		values = append(values, float64(-1), float64(0), float64(1))
	default:
		values = append(values, int64(-1), int64(0), int64(1))
	}
	values = append(values, MaxValue(v))
	if cls == classChar {
		values = append(values, int64('A'), int64('a'), int64('0'))
	}
	return values
}

// EdgeValues returns overflow-triggering values, signed zero and infinities
// for floating types, and null for pointers.
func EdgeValues(v model.Variable) []any {
	if v.IsPointer() {
		return []any{CLiteral{Expr: "NULL"}}
	}
	switch classify(v.DataType) {
	case classFloat:
		return []any{float64(0), math.Copysign(0, -1), math.Inf(1), math.Inf(-1)}
	case classUnsignedInt:
		max := maxUintForWidth(bitWidth(v.DataType))
		return []any{max, uint64(0)}
	case classBool:
		return []any{uint64(0), uint64(1)}
	default:
		width := bitWidth(v.DataType)
		return []any{maxIntForWidth(width), minIntForWidth(width)}
	}
}

// RandomValues returns count seeded-uniform samples across the type's
// representable range. Callers own the *rand.Rand to keep generation
// deterministic end-to-end under a fixed seed.
func RandomValues(v model.Variable, count int, rnd *rand.Rand) []any {
	if v.IsPointer() {
		values := make([]any, count)
		for i := range values {
			fill := []int64{rnd.Int63n(1000), rnd.Int63n(1000), rnd.Int63n(1000)}
			values[i] = pointerLiteral(v, fmt.Sprintf("rnd%d", i), fill)
		}
		return values
	}
	values := make([]any, count)
	switch classify(v.DataType) {
	case classFloat:
		for i := range values {
			values[i] = rnd.NormFloat64() * 1000
		}
	case classUnsignedInt, classBool:
		max := maxUintForWidth(bitWidth(v.DataType))
		for i := range values {
			if max == 0 {
				values[i] = uint64(0)
				continue
			}
			if max > math.MaxInt64 {
				values[i] = rnd.Uint64()
				continue
			}
			values[i] = uint64(rnd.Int63n(int64(max)))
		}
	case classChar:
		for i := range values {
			values[i] = int64(32 + rnd.Intn(95)) // printable ASCII range
		}
	default:
		width := bitWidth(v.DataType)
		lo := minIntForWidth(width)
		hi := maxIntForWidth(width)
		span := hi - lo
		for i := range values {
			if span <= 0 {
				values[i] = int64(rnd.Uint64())
				continue
			}
			values[i] = lo + rnd.Int63n(span)
		}
	}
	return values
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func minIntForWidth(width int) int64 {
	bits := uint(width * 8)
	if bits >= 64 {
		return math.MinInt64
	}
	return -(int64(1) << (bits - 1))
}

func maxIntForWidth(width int) int64 {
	bits := uint(width * 8)
	if bits >= 64 {
		return math.MaxInt64
	}
	return (int64(1) << (bits - 1)) - 1
}

func maxUintForWidth(width int) uint64 {
	bits := uint(width * 8)
	if bits >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << bits) - 1
}

func maxFloatForWidth(width int) float64 {
	if width <= 4 {
		return math.MaxFloat32
	}
	return math.MaxFloat64
}
