// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer parses C translation units into the entities in
// internal/model: functions with recovered signatures, partitioned
// includes, and call-site names. It also walks a project's root paths to
// build the per-file and aggregate views the dependency graph builder
// consumes.
//
// Parsing uses tree-sitter's C grammar and is error-tolerant: a source file
// with syntax errors still yields whatever functions the walk can recover,
// and unreadable files are skipped rather than aborting the whole run.
package analyzer
