// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validate compares a program's C baseline outputs against its C#
// translation's outputs, test by test, producing a ValidationResult per
// test case.
package validate

import (
	"math"
	"reflect"
	"sort"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultFloatTolerance is the absolute tolerance applied to float
// comparisons below magnitude 1.0; above that, it scales with magnitude.
const DefaultFloatTolerance = 1e-6

const missingValue = "<missing>"

// Comparator compares C and C# TestResult output maps, test case by test
// case, applying numeric-aware and float-tolerant equality.
type Comparator struct {
	floatTolerance float64
}

// ComparatorOption configures a Comparator.
type ComparatorOption func(*Comparator)

// WithFloatTolerance overrides the default 1e-6 absolute/relative float
// tolerance.
func WithFloatTolerance(eps float64) ComparatorOption {
	return func(c *Comparator) {
		if eps > 0 {
			c.floatTolerance = eps
		}
	}
}

// NewComparator builds a Comparator with the default float tolerance.
func NewComparator(opts ...ComparatorOption) *Comparator {
	c := &Comparator{floatTolerance: DefaultFloatTolerance}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare pairs every test case in suite by ID against its C and C# result,
// producing one ValidationResult per test case in suite order.
func (c *Comparator) Compare(suite *model.TestSuite, cResults, csResults map[string]*model.TestResult) []model.ValidationResult {
	results := make([]model.ValidationResult, 0, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		results = append(results, c.compareOne(tc.ID, cResults[tc.ID], csResults[tc.ID]))
	}
	return results
}

// compareOne validates a single test case's C and C# outputs.
func (c *Comparator) compareOne(testID string, cResult, csResult *model.TestResult) model.ValidationResult {
	v := model.ValidationResult{TestID: testID}

	if cResult == nil || csResult == nil {
		v.Differences = []model.OutputDifference{{
			VariableName: "test_execution",
			CValue:       presence(cResult),
			CSharpValue:  presence(csResult),
			Critical:     true,
		}}
		v.Recompute(1)
		return v
	}

	keys := unionKeys(cResult.Outputs, csResult.Outputs)

	var diffs []model.OutputDifference
	for _, key := range keys {
		cVal, cOk := cResult.Outputs[key]
		csVal, csOk := csResult.Outputs[key]

		switch {
		case !cOk:
			diffs = append(diffs, model.OutputDifference{VariableName: key, CValue: missingValue, CSharpValue: csVal, Critical: true})
		case !csOk:
			diffs = append(diffs, model.OutputDifference{VariableName: key, CValue: cVal, CSharpValue: missingValue, Critical: true})
		default:
			if diff, ok := c.compareValues(key, cVal, csVal); !ok {
				diffs = append(diffs, diff)
			}
		}
	}

	v.Differences = diffs
	v.Recompute(len(keys))
	return v
}

func presence(r *model.TestResult) string {
	if r == nil {
		return "missing"
	}
	return "present"
}

// unionKeys returns the sorted union of two output maps' keys, so
// ValidationResult.Differences has a stable, reproducible order.
func unionKeys(a, b map[string]any) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// compareValues compares one output key's C and C# values: both numeric
// (even across int/float) promotes to float comparison, matching types
// compare for exact equality (or float tolerance when either is a float),
// and anything else is a critical type mismatch.
func (c *Comparator) compareValues(key string, cVal, csVal any) (model.OutputDifference, bool) {
	cNum, cIsNum := toFloat(cVal)
	csNum, csIsNum := toFloat(csVal)

	if cIsNum && csIsNum {
		_, cIsFloat := cVal.(float64)
		_, csIsFloat := csVal.(float64)
		if cIsFloat || csIsFloat {
			return c.compareFloats(key, cNum, csNum)
		}
		if cNum == csNum {
			return model.OutputDifference{}, true
		}
		return model.OutputDifference{VariableName: key, CValue: cVal, CSharpValue: csVal, Critical: true}, false
	}

	if reflect.TypeOf(cVal) != reflect.TypeOf(csVal) {
		return model.OutputDifference{VariableName: key, CValue: cVal, CSharpValue: csVal, Critical: true}, false
	}

	if cVal == csVal {
		return model.OutputDifference{}, true
	}
	return model.OutputDifference{VariableName: key, CValue: cVal, CSharpValue: csVal, Critical: true}, false
}

// compareFloats applies the tolerance rule: absolute 1e-6 (by default)
// below magnitude 1.0, scaled by the larger magnitude above it. NaN
// matches NaN; same-signed infinities match each other.
func (c *Comparator) compareFloats(key string, cVal, csVal float64) (model.OutputDifference, bool) {
	if math.IsNaN(cVal) && math.IsNaN(csVal) {
		return model.OutputDifference{}, true
	}
	if math.IsInf(cVal, 0) && math.IsInf(csVal, 0) && (cVal > 0) == (csVal > 0) {
		return model.OutputDifference{}, true
	}
	if math.IsInf(cVal, 0) || math.IsInf(csVal, 0) {
		return model.OutputDifference{VariableName: key, CValue: cVal, CSharpValue: csVal, Critical: true}, false
	}

	diff := math.Abs(cVal - csVal)
	tolerance := c.floatTolerance
	if maxVal := math.Max(math.Abs(cVal), math.Abs(csVal)); maxVal > 1.0 {
		tolerance = maxVal * c.floatTolerance
	}

	if diff <= tolerance {
		return model.OutputDifference{}, true
	}
	return model.OutputDifference{
		VariableName: key,
		CValue:       cVal,
		CSharpValue:  csVal,
		Critical:     true,
		Tolerance:    tolerance,
	}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
