// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package translate converts a parsed CProgram to C# by chunking it,
// submitting each chunk to a pluggable LLM backend under rate-limiting,
// retry, and caching, then assembling the converted chunks back into one
// source file. It falls back to a deterministic rule-based converter, and
// finally to an emergency stub, when no LLM backend is available or a
// backend's output fails structural validation.
package translate
