// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package model

// Include is a single #include directive.
type Include struct {
	FileName string
	IsSystem bool // true for <...>, false for "..."
}

// Define is a single #define directive (name plus raw replacement text, if any).
type Define struct {
	Name  string
	Value string
}

// Variable is a declared variable, global, or function parameter.
type Variable struct {
	Name         string
	DataType     string
	PointerLevel int
	IsConst      bool
	IsStatic     bool
	IsExtern     bool
	Initializer  string
	ArraySize    int // 0 when not an array
	StructTag    string
}

// IsPointer reports whether the variable was declared with at least one
// level of pointer indirection.
func (v Variable) IsPointer() bool {
	return v.PointerLevel > 0
}

// Struct is a C struct definition.
type Struct struct {
	Name      string
	Fields    []Variable
	LineStart int
	LineEnd   int
	Raw       string
}

// Enum is a C enum definition.
type Enum struct {
	Name      string
	Members   []string
	LineStart int
	LineEnd   int
	Raw       string
}

// Function is a parsed C function: signature, body text, and derived metadata.
//
// Invariant: parameter names are unique within a function; a parameter with
// no recoverable name is assigned a synthetic "paramN" name by the analyzer.
type Function struct {
	Name         string
	ReturnType   string
	Parameters   []Variable
	Body         string
	LineStart    int
	LineEnd      int
	CalledNames  []string
	IsStatic     bool
	IsInline     bool
	Complexity   int // cyclomatic estimate
}

// ParamNames returns the ordered list of parameter names.
func (f Function) ParamNames() []string {
	names := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		names[i] = p.Name
	}
	return names
}

// IsTestable reports whether the orchestrator's test generator should emit
// tests for this function: not `main`, not file-static.
func (f Function) IsTestable() bool {
	return f.Name != "main" && !f.IsStatic
}

// CProgram is one parsed C translation unit (typically one file), the unit
// the orchestrator converts and the dependency graph's node.
//
// Invariant: Converted is true only after a validated successful run.
// Dependencies is a subset of other known program IDs, or of external
// (system) headers.
type CProgram struct {
	ProgramID    string
	SourcePath   string
	RawSource    string
	Includes     []Include
	Defines      []Define
	Variables    []Variable
	Functions    []Function
	Structs      []Struct
	Enums        []Enum
	Dependencies []string
	Converted    bool
}

// GetFunctionByName returns the first function with the given name, if any.
func (p *CProgram) GetFunctionByName(name string) (*Function, bool) {
	for i := range p.Functions {
		if p.Functions[i].Name == name {
			return &p.Functions[i], true
		}
	}
	return nil, false
}

// FunctionNames returns the names of every parsed function, in source order.
func (p *CProgram) FunctionNames() []string {
	names := make([]string, len(p.Functions))
	for i, f := range p.Functions {
		names[i] = f.Name
	}
	return names
}

// TestableFunctions returns the functions eligible for test generation:
// excludes `main` and any function declared `static`.
func (p *CProgram) TestableFunctions() []Function {
	out := make([]Function, 0, len(p.Functions))
	for _, f := range p.Functions {
		if f.IsTestable() {
			out = append(out, f)
		}
	}
	return out
}

// CyclomaticSummary returns the average cyclomatic complexity across the
// program's functions (0 when there are none).
func (p *CProgram) CyclomaticSummary() float64 {
	if len(p.Functions) == 0 {
		return 0
	}
	total := 0
	for _, f := range p.Functions {
		total += f.Complexity
	}
	return float64(total) / float64(len(p.Functions))
}
