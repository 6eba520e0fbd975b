// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionIsTestable(t *testing.T) {
	cases := []struct {
		name string
		fn   Function
		want bool
	}{
		{"ordinary", Function{Name: "square"}, true},
		{"main excluded", Function{Name: "main"}, false},
		{"static excluded", Function{Name: "helper", IsStatic: true}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.fn.IsTestable(), c.name)
	}
}

func TestCProgramTestableFunctions(t *testing.T) {
	p := &CProgram{Functions: []Function{
		{Name: "main"},
		{Name: "helper", IsStatic: true},
		{Name: "square"},
		{Name: "cube"},
	}}
	got := p.TestableFunctions()
	require.Len(t, got, 2)
	assert.Equal(t, "square", got[0].Name)
	assert.Equal(t, "cube", got[1].Name)
}

func TestCProgramGetFunctionByName(t *testing.T) {
	p := &CProgram{Functions: []Function{{Name: "square"}}}

	fn, ok := p.GetFunctionByName("square")
	require.True(t, ok)
	assert.Equal(t, "square", fn.Name)

	_, ok = p.GetFunctionByName("missing")
	assert.False(t, ok)
}

func TestValidationResultRecomputeInvariant(t *testing.T) {
	v := &ValidationResult{Differences: []OutputDifference{{VariableName: "x", Critical: true}}}
	v.Recompute(3)

	assert.Equal(t, 3, v.Total)
	assert.Equal(t, 1, v.Different)
	assert.Equal(t, 2, v.Matching)
	assert.False(t, v.IsMatch)
	assert.Equal(t, v.Total, v.Matching+v.Different)
}

func TestValidationResultIsMatchRequiresNonZeroTotal(t *testing.T) {
	v := &ValidationResult{}
	v.Recompute(0)
	assert.False(t, v.IsMatch, "zero-output results must never report a match")
}

func TestMigrationReportInvariant(t *testing.T) {
	m := &MigrationReport{}
	m.AddResult(ConversionResult{ProgramID: "a", Status: ConversionSuccess})
	m.AddResult(ConversionResult{ProgramID: "b", Status: ConversionFailed})
	m.AddResult(ConversionResult{ProgramID: "c", Status: ConversionSkipped})

	assert.Equal(t, 3, m.Total)
	assert.LessOrEqual(t, m.Converted+m.Failed+m.Skipped, m.Total)
	assert.Equal(t, 1, m.ExitCode())
}

func TestMigrationReportExitCodeZeroOnAllSuccess(t *testing.T) {
	m := &MigrationReport{}
	m.AddResult(ConversionResult{ProgramID: "a", Status: ConversionSuccess})
	assert.Equal(t, 0, m.ExitCode())
}
