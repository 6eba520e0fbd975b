// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config is the YAML-backed configuration singleton for the
// migration tool, covering every key the CLI and pipeline consult.
package config

import "time"

// CurrentConfigVersion stamps the schema a written default file conforms
// to, so a future loader can detect and migrate older files.
const CurrentConfigVersion = "1"

// MigrateConfig is the root configuration object, unmarshaled from YAML and
// validated with struct tags before anything in the pipeline consults it.
type MigrateConfig struct {
	Version           string          `yaml:"version" validate:"required"`
	MaxRetries        int             `yaml:"max_retries" validate:"min=1,max=20"`
	ParallelExecution bool            `yaml:"parallel_execution"`
	OutputDir         string          `yaml:"output_dir" validate:"required"`
	Verbose           bool            `yaml:"verbose"`
	Converter         ConverterConfig `yaml:"converter" validate:"required"`
	Runner            RunnerConfig    `yaml:"runner" validate:"required"`
	Symbolic          SymbolicConfig  `yaml:"symbolic" validate:"required"`
	Logging           LoggingConfig   `yaml:"logging" validate:"required"`
}

// ConverterConfig selects and tunes the translator backend.
type ConverterConfig struct {
	Backend string       `yaml:"backend" validate:"oneof=gemini openai"`
	Gemini  GeminiConfig `yaml:"gemini"`
	OpenAI  OpenAIConfig `yaml:"openai"`
}

// GeminiConfig is the Gemini-style REST backend's settings, named to match
// the CLI surface's dotted config keys (`converter.gemini.*`).
type GeminiConfig struct {
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model" validate:"required_with=APIKey"`
	MaxTokens       int           `yaml:"max_tokens" validate:"min=0"`
	MaxParallel     int           `yaml:"max_parallel" validate:"min=1,max=64"`
	ChunkSize       int           `yaml:"chunk_size" validate:"min=1"`
	RateLimiting    RateLimiting  `yaml:"rate_limiting"`
	FallbackToRules bool          `yaml:"fallback_to_rules"`
	Enabled         bool          `yaml:"enabled"`
	Timeout         time.Duration `yaml:"timeout"`
}

// OpenAIConfig is the OpenAI-chat-style backend's settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model" validate:"required_with=APIKey"`
	Enabled bool   `yaml:"enabled"`
}

// RateLimiting bounds the sliding-window request rate.
type RateLimiting struct {
	MaxRequestsPerMinute int `yaml:"max_requests_per_minute" validate:"min=1"`
}

// RunnerConfig tunes the C and C# test runners.
type RunnerConfig struct {
	CCompiler      string        `yaml:"c_compiler"`
	CCompilerFlags []string      `yaml:"c_compiler_flags"`
	DotnetPath     string        `yaml:"dotnet_path"`
	CompileTimeout time.Duration `yaml:"compile_timeout" validate:"min=0"`
	RunTimeout     time.Duration `yaml:"run_timeout" validate:"min=0"`
	MaxOutputBytes int           `yaml:"max_output_bytes" validate:"min=0"`
}

// SymbolicConfig tunes the optional symbolic-execution test generator.
type SymbolicConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
	MaxTests          int           `yaml:"max_tests" validate:"min=0"`
	PointerBufferSize int           `yaml:"pointer_buffer_size" validate:"min=0"`
}

// LoggingConfig mirrors the teacher's layered-logger configuration,
// adapted to this pipeline's components.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	LogDir string `yaml:"log_dir"`
	JSON   bool   `yaml:"json"`
	Quiet  bool   `yaml:"quiet"`
}

// DefaultConfig returns the configuration written to disk on first run.
func DefaultConfig() MigrateConfig {
	return MigrateConfig{
		Version:           CurrentConfigVersion,
		MaxRetries:        3,
		ParallelExecution: false,
		OutputDir:         "./transmute-output",
		Verbose:           false,
		Converter: ConverterConfig{
			Backend: "gemini",
			Gemini: GeminiConfig{
				Model:       "gemini-1.5-flash",
				MaxTokens:   2048,
				MaxParallel: 4,
				ChunkSize:   4000,
				RateLimiting: RateLimiting{
					MaxRequestsPerMinute: 60,
				},
				FallbackToRules: true,
				Enabled:         false,
				Timeout:         30 * time.Second,
			},
			OpenAI: OpenAIConfig{
				Model:   "gpt-4o-mini",
				Enabled: false,
			},
		},
		Runner: RunnerConfig{
			CCompiler:      "gcc",
			CCompilerFlags: []string{"-std=c99", "-Wall", "-lm"},
			DotnetPath:     "dotnet",
			CompileTimeout: 30 * time.Second,
			RunTimeout:     30 * time.Second,
			MaxOutputBytes: 1 << 20,
		},
		Symbolic: SymbolicConfig{
			Enabled:           false,
			Timeout:           60 * time.Second,
			MaxTests:          100,
			PointerBufferSize: 8,
		},
		Logging: LoggingConfig{
			Level:  "info",
			LogDir: "",
			JSON:   false,
			Quiet:  false,
		},
	}
}
