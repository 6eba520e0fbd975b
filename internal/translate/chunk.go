// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"fmt"
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultChunkSize is the target chunk size, in characters, above which a
// function body is split across multiple chunks.
const DefaultChunkSize = 2000

// ChunkType classifies a Chunk for prompting and assembly-order purposes.
type ChunkType string

const (
	ChunkStructure ChunkType = "structure"
	ChunkDefine    ChunkType = "define"
	ChunkEnum      ChunkType = "enum"
	ChunkStruct    ChunkType = "struct"
	ChunkGlobal    ChunkType = "global"
	ChunkFunction  ChunkType = "function"
	ChunkHarness   ChunkType = "harness"
)

// Chunk is one unit of C source handed to the translator backend.
type Chunk struct {
	ID           string
	Content      string
	Type         ChunkType
	Dependencies []string
}

// BuildChunks partitions a program into the ordered chunk set described by
// the chunking contract: one program_structure scaffold, then defines,
// enums, structs, globals, and finally one-or-more function chunks (split
// at line boundaries when a body exceeds chunkSize characters), all
// depending directly on program_structure.
func BuildChunks(program *model.CProgram, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	chunks := []Chunk{{ID: "program_structure", Content: "", Type: ChunkStructure}}

	if len(program.Defines) > 0 {
		chunks = append(chunks, Chunk{
			ID:           "defines",
			Content:      defineContent(program.Defines),
			Type:         ChunkDefine,
			Dependencies: []string{"program_structure"},
		})
	}

	for _, enum := range program.Enums {
		chunks = append(chunks, Chunk{
			ID:           "enum_" + enum.Name,
			Content:      enum.Raw,
			Type:         ChunkEnum,
			Dependencies: []string{"program_structure"},
		})
	}

	for _, s := range program.Structs {
		chunks = append(chunks, Chunk{
			ID:           "struct_" + s.Name,
			Content:      s.Raw,
			Type:         ChunkStruct,
			Dependencies: []string{"program_structure"},
		})
	}

	if len(program.Variables) > 0 {
		chunks = append(chunks, Chunk{
			ID:           "globals",
			Content:      globalsContent(program.Variables),
			Type:         ChunkGlobal,
			Dependencies: []string{"program_structure"},
		})
	}

	for _, fn := range program.Functions {
		parts := splitFunctionBody(fn.Body, chunkSize)
		for i, part := range parts {
			id := "func_" + fn.Name
			if len(parts) > 1 {
				id = fmt.Sprintf("%s_part%d", id, i+1)
			}
			chunks = append(chunks, Chunk{
				ID:           id,
				Content:      part,
				Type:         ChunkFunction,
				Dependencies: []string{"program_structure"},
			})
		}
	}

	return chunks
}

func defineContent(defines []model.Define) string {
	lines := make([]string, len(defines))
	for i, d := range defines {
		if d.Value == "" {
			lines[i] = fmt.Sprintf("#define %s", d.Name)
		} else {
			lines[i] = fmt.Sprintf("#define %s %s", d.Name, d.Value)
		}
	}
	return strings.Join(lines, "\n")
}

func globalsContent(vars []model.Variable) string {
	lines := make([]string, len(vars))
	for i, v := range vars {
		typ := v.DataType + strings.Repeat("*", v.PointerLevel)
		prefix := ""
		if v.IsStatic {
			prefix += "static "
		}
		if v.IsConst {
			prefix += "const "
		}
		init := ""
		if v.Initializer != "" {
			init = " = " + v.Initializer
		}
		lines[i] = fmt.Sprintf("%s%s %s%s;", prefix, typ, v.Name, init)
	}
	return strings.Join(lines, "\n")
}

// splitFunctionBody splits a function body at line boundaries, preserving
// order, so no chunk exceeds chunkSize characters unless a single line does.
func splitFunctionBody(body string, chunkSize int) []string {
	if len(body) <= chunkSize {
		return []string{body}
	}

	lines := strings.Split(body, "\n")
	var parts []string
	var current []string
	currentSize := 0

	for _, line := range lines {
		if len(current) > 0 && currentSize+1+len(line) > chunkSize {
			parts = append(parts, strings.Join(current, "\n"))
			current = []string{line}
			currentSize = len(line)
			continue
		}
		if len(current) > 0 {
			currentSize++ // the joining newline
		}
		current = append(current, line)
		currentSize += len(line)
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n"))
	}
	return parts
}

// ReadySet returns the chunks whose dependencies are all present in done,
// preserving input order. An empty result with len(chunks) > 0 signals a
// circular dependency to the caller.
func ReadySet(chunks []Chunk, done map[string]bool) []Chunk {
	var ready []Chunk
	for _, c := range chunks {
		allDone := true
		for _, dep := range c.Dependencies {
			if !done[dep] {
				allDone = false
				break
			}
		}
		if allDone {
			ready = append(ready, c)
		}
	}
	return ready
}
