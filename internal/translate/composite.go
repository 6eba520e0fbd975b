// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/transmute-dev/transmute/internal/model"
)

// minValidCodeLength is the shortest converted body that structuralValidate
// treats as plausible output rather than a truncated or empty response.
// Chunk-scoped output is much shorter than a whole program's, so this is
// far below ConvertRuleBased's own sanity bar.
const minValidCodeLength = 15

// ConversionStage names which link of the composite chain ultimately
// produced a chunk's output.
type ConversionStage string

const (
	StageBackend   ConversionStage = "backend"
	StageRuleBased ConversionStage = "rule_based"
	StageEmergency ConversionStage = "emergency"
)

// CompositeResult carries one chunk's converted code plus which stage in
// the chain produced it, so callers can surface a conversion's confidence.
type CompositeResult struct {
	Code  string
	Stage ConversionStage
}

// CompositeConverter chains an LLM backend, then the rule-based converter,
// then an emergency stub, falling through to the next link whenever the
// current link's output fails structuralValidate or errors outright. Each
// link operates on a single chunk's scope, matching what the assembler
// expects to slot into the shared ConvertedCode class body.
type CompositeConverter struct {
	backend Backend
	log     *slog.Logger
}

// NewCompositeConverter builds a chain around backend. backend may be nil,
// in which case the chain starts at the rule-based link.
func NewCompositeConverter(backend Backend, log *slog.Logger) *CompositeConverter {
	if log == nil {
		log = slog.Default()
	}
	return &CompositeConverter{backend: backend, log: log}
}

// Convert runs prompt through the backend (if available) and falls back to
// the rule-based converter, then the emergency stub, scoped to chunk.
func (c *CompositeConverter) Convert(ctx context.Context, prompt string, chunk Chunk, program *model.CProgram) CompositeResult {
	if c.backend != nil && c.backend.Available() {
		code, err := c.backend.Generate(ctx, prompt)
		if err == nil && structuralValidate(code) {
			return CompositeResult{Code: code, Stage: StageBackend}
		}
		if err != nil {
			c.log.Warn("backend conversion failed, falling back to rule-based converter", "chunk", chunk.ID, "error", err)
		} else {
			c.log.Warn("backend output failed structural validation, falling back to rule-based converter", "chunk", chunk.ID)
		}
	}

	ruleBased := ruleBasedChunk(chunk, program)
	if structuralValidate(ruleBased) {
		return CompositeResult{Code: ruleBased, Stage: StageRuleBased}
	}

	c.log.Warn("rule-based conversion failed structural validation, falling back to emergency stub", "chunk", chunk.ID)
	return CompositeResult{Code: emergencyChunk(chunk, program), Stage: StageEmergency}
}

var functionChunkPattern = regexp.MustCompile(`^func_(.+?)(?:_part\d+)?$`)

// ruleBasedChunk dispatches a chunk to the rule-based converter scoped to
// just that chunk's slice of the program: the whole-program ConvertRuleBased
// renders a full class, which is the right shape for a standalone fallback
// but not for a piece of a class the assembler is still building.
func ruleBasedChunk(chunk Chunk, program *model.CProgram) string {
	switch chunk.Type {
	case ChunkDefine:
		return definesBlock(program.Defines)
	case ChunkEnum:
		if e, ok := findEnum(program, strings.TrimPrefix(chunk.ID, "enum_")); ok {
			return convertEnum(e)
		}
	case ChunkStruct:
		if s, ok := findStruct(program, strings.TrimPrefix(chunk.ID, "struct_")); ok {
			return convertStruct(s)
		}
	case ChunkGlobal:
		return globalsBlock(program.Variables)
	case ChunkFunction:
		if match := functionChunkPattern.FindStringSubmatch(chunk.ID); match != nil {
			if fn, ok := program.GetFunctionByName(match[1]); ok {
				return convertFunction(*fn)
			}
		}
	}
	return ""
}

// emergencyChunk mirrors ruleBasedChunk but stubs functions out with a
// NotImplementedException throw; declarations (defines, enums, structs,
// globals) have no meaningful "emergency" form distinct from their
// rule-based rendering, since nothing about them depends on the backend.
func emergencyChunk(chunk Chunk, program *model.CProgram) string {
	if chunk.Type == ChunkFunction {
		if match := functionChunkPattern.FindStringSubmatch(chunk.ID); match != nil {
			if fn, ok := program.GetFunctionByName(match[1]); ok {
				return emergencyFunctionStub(*fn)
			}
		}
	}
	return ruleBasedChunk(chunk, program)
}

func findEnum(program *model.CProgram, name string) (model.Enum, bool) {
	for _, e := range program.Enums {
		if e.Name == name {
			return e, true
		}
	}
	return model.Enum{}, false
}

func findStruct(program *model.CProgram, name string) (model.Struct, bool) {
	for _, s := range program.Structs {
		if s.Name == name {
			return s, true
		}
	}
	return model.Struct{}, false
}

// structuralValidate mirrors the hybrid converter's sanity check on
// generated C#: non-trivial length and every opened brace closed, a cheap
// signals that the backend didn't truncate or return prose instead of code.
func structuralValidate(code string) bool {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) < minValidCodeLength {
		return false
	}
	return strings.Count(trimmed, "{") == strings.Count(trimmed, "}")
}
