// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCreateDefaultWritesValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transmute.yaml")

	require.NoError(t, createDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg MigrateConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "gemini", cfg.Converter.Backend)
	assert.NoError(t, validate.Struct(cfg))
}

func TestCreateDefaultCreatesNestedDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c", "transmute.yaml")
	require.NoError(t, createDefault(path))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadInternalRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transmute.yaml")
	require.NoError(t, os.WriteFile(path, []byte("converter:\n  backend: not-a-real-backend\n"), 0o644))

	err := loadInternal(path)
	assert.Error(t, err)
}

func TestLoadInternalAcceptsOverridesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transmute.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 7\n"), 0o644))

	require.NoError(t, loadInternal(path))
	assert.Equal(t, 7, Global.MaxRetries)
	assert.Equal(t, "gemini", Global.Converter.Backend, "unspecified keys keep their default value")
}

func TestDefaultPathIsUnderUserHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Contains(t, path, home)
	assert.Contains(t, path, "transmute.yaml")
}
