// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import "time"

// TestCategory classifies how a TestCase's inputs were produced.
type TestCategory string

const (
	CategoryBoundary  TestCategory = "boundary"
	CategoryEdge      TestCategory = "edge"
	CategoryRandom    TestCategory = "random"
	CategorySymbolic  TestCategory = "symbolic"
	CategoryFunctional TestCategory = "functional"
)

// TestCase is one generated invocation of a function under test.
//
// Invariant: every key of Inputs names a parameter of the named function.
type TestCase struct {
	ID           string
	ProgramID    string
	FunctionName string
	Inputs       map[string]any
	Expected     map[string]any // optional
	Actual       map[string]any // optional, filled in after a run
	Category     TestCategory
	Description  string
	CreatedAt    time.Time
}

// TestSuite is an ordered collection of test cases for one program (and,
// optionally, a single function within it).
type TestSuite struct {
	ProgramID    string
	FunctionName string // empty means "all functions"
	TestCases    []TestCase
}

// AddTestCase appends a test case, preserving insertion order (harness
// emission and output parsing both depend on this order being stable).
func (s *TestSuite) AddTestCase(tc TestCase) {
	s.TestCases = append(s.TestCases, tc)
}

// Len returns the number of test cases in the suite.
func (s *TestSuite) Len() int {
	return len(s.TestCases)
}
