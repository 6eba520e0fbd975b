// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package testgen

import (
	"fmt"
	"math/rand"

	"github.com/transmute-dev/transmute/internal/model"
)

// randomSamplesPerParameter bounds the random strategy's contribution to the
// linear (not cartesian) test count.
const randomSamplesPerParameter = 3

// GenerateTests implements the combination policy for one function: for
// each parameter, generate its strategy values and emit one test per value
// with every other parameter held at its zero/default; then add one
// all-minimums and one all-maximums test. Categories not in `categories`
// contribute no values. Random generation uses a seeded rand.Rand seeded
// from `seed` so output is deterministic across runs.
func GenerateTests(fn model.Function, programID string, categories []model.TestCategory, seed int64) model.TestSuite {
	suite := model.TestSuite{ProgramID: programID, FunctionName: fn.Name}
	if len(fn.Parameters) == 0 {
		return suite
	}

	rnd := rand.New(rand.NewSource(seed))
	wants := func(cat model.TestCategory) bool {
		for _, c := range categories {
			if c == cat {
				return true
			}
		}
		return false
	}

	zero := make(map[string]any, len(fn.Parameters))
	for _, p := range fn.Parameters {
		zero[p.Name] = ZeroValue(p)
	}

	counter := 0
	addCase := func(paramName string, value any, category model.TestCategory) {
		inputs := make(map[string]any, len(fn.Parameters))
		for k, v := range zero {
			inputs[k] = v
		}
		inputs[paramName] = value
		counter++
		suite.AddTestCase(model.TestCase{
			ID:           fmt.Sprintf("%s_%s_%d", fn.Name, category, counter),
			ProgramID:    programID,
			FunctionName: fn.Name,
			Inputs:       inputs,
			Category:     category,
			Description:  fmt.Sprintf("%s strategy on parameter %s", category, paramName),
		})
	}

	for _, p := range fn.Parameters {
		if wants(model.CategoryBoundary) {
			for _, v := range BoundaryValues(p) {
				addCase(p.Name, v, model.CategoryBoundary)
			}
		}
		if wants(model.CategoryEdge) {
			for _, v := range EdgeValues(p) {
				addCase(p.Name, v, model.CategoryEdge)
			}
		}
		if wants(model.CategoryRandom) {
			for _, v := range RandomValues(p, randomSamplesPerParameter, rnd) {
				addCase(p.Name, v, model.CategoryRandom)
			}
		}
	}

	allMin := make(map[string]any, len(fn.Parameters))
	allMax := make(map[string]any, len(fn.Parameters))
	for _, p := range fn.Parameters {
		allMin[p.Name] = MinValue(p)
		allMax[p.Name] = MaxValue(p)
	}
	suite.AddTestCase(model.TestCase{
		ID:           fn.Name + "_all_min",
		ProgramID:    programID,
		FunctionName: fn.Name,
		Inputs:       allMin,
		Category:     model.CategoryBoundary,
		Description:  "all parameters at type minimum",
	})
	suite.AddTestCase(model.TestCase{
		ID:           fn.Name + "_all_max",
		ProgramID:    programID,
		FunctionName: fn.Name,
		Inputs:       allMax,
		Category:     model.CategoryBoundary,
		Description:  "all parameters at type maximum",
	})

	return suite
}
