// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model holds the passive value types shared by every stage of the
// C-to-C# migration pipeline: parsed C entities, generated test cases, their
// execution results, validation diffs, and the aggregate migration report.
//
// Types in this package carry no behavior beyond simple lookups and derived
// summaries. They are created by their owning component (the analyzer for
// CProgram/Function, the generators for TestCase) and are otherwise read-only
// to the rest of the pipeline.
package model
