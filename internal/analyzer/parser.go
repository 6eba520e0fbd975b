// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	tsc "github.com/smacker/go-tree-sitter/c"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultMaxFileSize is the largest source file the parser accepts (10MB),
// matching the file-size ceiling used elsewhere in the pack for untrusted
// source ingestion.
const DefaultMaxFileSize = 10 * 1024 * 1024

// ErrFileTooLarge is returned when input content exceeds the configured
// maximum file size.
var ErrFileTooLarge = fmt.Errorf("file exceeds maximum size limit")

// ErrInvalidContent is returned when input content is not valid UTF-8.
var ErrInvalidContent = fmt.Errorf("content is not valid UTF-8")

// CParserOption configures a CParser instance.
type CParserOption func(*CParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
func WithMaxFileSize(bytes int64) CParserOption {
	return func(p *CParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// CParser implements C source parsing using tree-sitter's C grammar.
//
// Description:
//
//	CParser walks the concrete syntax tree produced by tree-sitter to
//	recover function signatures, parameter lists, includes, and call sites.
//	It is error-tolerant: a tree with syntax errors is still walked for
//	whatever functions can be recovered.
//
// Thread Safety:
//
//	CParser instances are safe for concurrent use. Each Parse call creates
//	its own tree-sitter parser internally.
type CParser struct {
	maxFileSize int64
}

// NewCParser creates a CParser with the given options applied over sensible
// defaults.
func NewCParser(opts ...CParserOption) *CParser {
	p := &CParser{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts functions, includes, and call sites from C source.
//
// Parse never fabricates functions: a node the walk cannot resolve a name
// for is skipped and recorded in ParseResult.Errors rather than invented.
func (p *CParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	if int64(len(content)) > p.maxFileSize {
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w", ErrInvalidContent)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsc.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath:   filePath,
		TotalLines: strings.Count(string(content), "\n") + 1,
		Calls:      make(map[string][]string),
	}

	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		return result, nil
	}
	if root.HasError() {
		result.HasSyntaxError = true
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	p.extractIncludes(root, content, result)
	p.extractDefines(root, content, result)
	p.extractEnums(root, content, result)
	p.extractStructs(root, content, result)
	p.extractFunctions(root, content, result)

	return result, nil
}

// extractIncludes walks preproc_include nodes, partitioning system
// (<...>) from user ("...") includes.
func (p *CParser) extractIncludes(root *sitter.Node, source []byte, result *ParseResult) {
	for _, inc := range collectNodes(root, "preproc_include") {
		pathNode := childByFieldOrType(inc, "path", "system_lib_string")
		if pathNode == nil {
			pathNode = firstChildOfType(inc, "string_literal")
		}
		if pathNode == nil {
			result.Errors = append(result.Errors, "unresolvable #include")
			continue
		}
		raw := nodeText(pathNode, source)
		isSystem := pathNode.Type() == "system_lib_string"
		name := strings.Trim(raw, "<>\"")
		include := model.Include{FileName: name, IsSystem: isSystem}
		if isSystem {
			result.SystemIncludes = append(result.SystemIncludes, include)
		} else {
			result.UserIncludes = append(result.UserIncludes, include)
		}
	}
}

// extractDefines walks preproc_def nodes for simple #define NAME VALUE
// directives. Function-like macros (preproc_function_def) are not
// collected.
func (p *CParser) extractDefines(root *sitter.Node, source []byte, result *ParseResult) {
	for _, def := range collectNodes(root, "preproc_def") {
		nameNode := childByFieldOrType(def, "name", "identifier")
		valueNode := def.ChildByFieldName("value")
		result.Defines = append(result.Defines, model.Define{
			Name:  nodeText(nameNode, source),
			Value: strings.TrimSpace(nodeText(valueNode, source)),
		})
	}
}

// extractEnums walks enum_specifier nodes that have a name and a body,
// i.e. actual definitions rather than forward references.
func (p *CParser) extractEnums(root *sitter.Node, source []byte, result *ParseResult) {
	for _, e := range collectNodes(root, "enum_specifier") {
		body := childByFieldOrType(e, "body", "enumerator_list")
		if body == nil {
			continue
		}
		nameNode := childByFieldOrType(e, "name", "type_identifier")
		var members []string
		for _, m := range collectNodes(body, "enumerator") {
			id := childByFieldOrType(m, "name", "identifier")
			if id != nil {
				members = append(members, nodeText(id, source))
			}
		}
		result.Enums = append(result.Enums, model.Enum{
			Name:      nodeText(nameNode, source),
			Members:   members,
			LineStart: int(e.StartPoint().Row) + 1,
			LineEnd:   int(e.EndPoint().Row) + 1,
			Raw:       nodeText(e, source),
		})
	}
}

// extractStructs walks struct_specifier nodes with a field-declaration
// body, recovering each field as a model.Variable the same way parameters
// are recovered.
func (p *CParser) extractStructs(root *sitter.Node, source []byte, result *ParseResult) {
	for _, s := range collectNodes(root, "struct_specifier") {
		body := childByFieldOrType(s, "body", "field_declaration_list")
		if body == nil {
			continue
		}
		nameNode := childByFieldOrType(s, "name", "type_identifier")
		var fields []model.Variable
		for _, fd := range collectNodes(body, "field_declaration") {
			fields = append(fields, variableFromDeclaration(fd, source, len(fields))...)
		}
		result.Structs = append(result.Structs, model.Struct{
			Name:      nodeText(nameNode, source),
			Fields:    fields,
			LineStart: int(s.StartPoint().Row) + 1,
			LineEnd:   int(s.EndPoint().Row) + 1,
			Raw:       nodeText(s, source),
		})
	}
}

// extractFunctions walks function_definition nodes, recovering the
// outermost identifier under the declarator chain (tolerating pointer
// return types) as the function name, its parameter list, its body text,
// and its call sites.
func (p *CParser) extractFunctions(root *sitter.Node, source []byte, result *ParseResult) {
	for _, fn := range collectNodes(root, "function_definition") {
		declarator := childByFieldOrType(fn, "declarator", "function_declarator")
		funcDeclarator := unwrapToFunctionDeclarator(declarator)
		if funcDeclarator == nil {
			result.Errors = append(result.Errors, "function_definition without a recoverable declarator")
			continue
		}

		nameNode := childByFieldOrType(funcDeclarator, "declarator", "identifier")
		name := nodeText(nameNode, source)
		if name == "" {
			result.Errors = append(result.Errors, "function_definition without a recoverable name")
			continue
		}

		typeNode := childByFieldOrType(fn, "type", "primitive_type")
		returnType := strings.TrimSpace(nodeText(typeNode, source))
		if isPointerDeclarator(declarator, funcDeclarator) {
			returnType += " *"
		}

		paramList := childByFieldOrType(funcDeclarator, "parameters", "parameter_list")
		params := extractParameters(paramList, source)

		body := childByFieldOrType(fn, "body", "compound_statement")

		flags := extractStorageFlags(fn, source)

		f := model.Function{
			Name:        name,
			ReturnType:  returnType,
			Parameters:  params,
			Body:        nodeText(body, source),
			LineStart:   int(fn.StartPoint().Row) + 1,
			LineEnd:     int(fn.EndPoint().Row) + 1,
			IsStatic:    flags.isStatic,
			IsInline:    flags.isInline,
			CalledNames: extractCalls(body, source),
			Complexity:  estimateComplexity(body),
		}
		result.Functions = append(result.Functions, f)
		result.Calls[name] = f.CalledNames
	}
}

// unwrapToFunctionDeclarator descends through pointer_declarator wrappers
// (for pointer-returning functions) to find the function_declarator node
// that carries the name and parameter list.
func unwrapToFunctionDeclarator(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "function_declarator":
			return n
		case "pointer_declarator":
			n = childByFieldOrType(n, "declarator", "function_declarator")
		default:
			return firstChildOfType(n, "function_declarator")
		}
	}
	return nil
}

func isPointerDeclarator(declarator, funcDeclarator *sitter.Node) bool {
	return declarator != nil && declarator != funcDeclarator && declarator.Type() == "pointer_declarator"
}

type storageFlags struct {
	isStatic bool
	isInline bool
}

func extractStorageFlags(fn *sitter.Node, source []byte) storageFlags {
	var flags storageFlags
	for i := 0; i < int(fn.ChildCount()); i++ {
		switch nodeText(fn.Child(i), source) {
		case "static":
			flags.isStatic = true
		case "inline":
			flags.isInline = true
		}
	}
	return flags
}

// extractParameters walks parameter_declaration nodes, accumulating
// pointer_declarator depth into PointerLevel and resolving the innermost
// identifier as the parameter name, synthesizing paramN when absent.
func extractParameters(paramList *sitter.Node, source []byte) []model.Variable {
	if paramList == nil {
		return nil
	}
	var params []model.Variable
	for _, pd := range collectNodes(paramList, "parameter_declaration") {
		params = append(params, variableFromDeclaration(pd, source, len(params))...)
	}
	return params
}

// variableFromDeclaration recovers a single Variable from a
// parameter_declaration or field_declaration node. index is used only to
// synthesize a name ("paramN") when the declarator carries no identifier,
// e.g. an anonymous parameter in a prototype-style declaration.
func variableFromDeclaration(decl *sitter.Node, source []byte, index int) []model.Variable {
	typeNode := childByFieldOrType(decl, "type", "primitive_type")
	dataType := strings.TrimSpace(nodeText(typeNode, source))

	declarator := childByFieldOrType(decl, "declarator", "identifier")
	pointerLevel := 0
	arraySize := 0
	for declarator != nil && declarator.Type() == "pointer_declarator" {
		pointerLevel++
		declarator = childByFieldOrType(declarator, "declarator", "identifier")
	}
	if declarator != nil && declarator.Type() == "array_declarator" {
		sizeNode := declarator.ChildByFieldName("size")
		if n, err := strconv.Atoi(strings.TrimSpace(nodeText(sizeNode, source))); err == nil {
			arraySize = n
		}
		declarator = childByFieldOrType(declarator, "declarator", "identifier")
	}

	name := nodeText(declarator, source)
	if name == "" {
		name = fmt.Sprintf("param%d", index)
	}

	isConst := strings.Contains(nodeText(decl, source), "const")

	return []model.Variable{{
		Name:         name,
		DataType:     dataType,
		PointerLevel: pointerLevel,
		IsConst:      isConst,
		ArraySize:    arraySize,
	}}
}

// extractCalls walks call_expression nodes inside body, recording the text
// of each call's "function" child.
func extractCalls(body *sitter.Node, source []byte) []string {
	if body == nil {
		return nil
	}
	var calls []string
	seen := make(map[string]bool)
	for _, call := range collectNodes(body, "call_expression") {
		fn := childByFieldOrType(call, "function", "identifier")
		name := nodeText(fn, source)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		calls = append(calls, name)
	}
	return calls
}

// estimateComplexity is a cyclomatic estimate: one plus the count of
// decision-introducing node types in the function body.
func estimateComplexity(body *sitter.Node) int {
	if body == nil {
		return 1
	}
	decisionTypes := []string{
		"if_statement", "for_statement", "while_statement", "do_statement",
		"case_statement", "&&", "||", "?",
	}
	complexity := 1
	for _, t := range decisionTypes {
		complexity += len(collectNodes(body, t))
	}
	return complexity
}
