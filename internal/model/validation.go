// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

// OutputDifference is one mismatched (or tolerated) output key between a
// C run and its C# counterpart.
type OutputDifference struct {
	VariableName string
	CValue       any
	CSharpValue  any
	Critical     bool
	Tolerance    float64 // 0 when not applicable
}

// ValidationResult is the outcome of comparing one test case's C and C#
// outputs.
//
// Invariant: Matching + Different == Total, and
// IsMatch <=> (Different == 0 && Total > 0).
type ValidationResult struct {
	TestID      string
	IsMatch     bool
	Differences []OutputDifference
	Total       int
	Matching    int
	Different   int
}

// Recompute derives Total/Matching/Different/IsMatch from Differences and
// the supplied key count. Callers build Differences first, then call this
// to keep the invariant in one place rather than duplicating the arithmetic.
func (v *ValidationResult) Recompute(totalKeys int) {
	v.Total = totalKeys
	v.Different = len(v.Differences)
	v.Matching = totalKeys - v.Different
	v.IsMatch = v.Different == 0 && v.Total > 0
}
