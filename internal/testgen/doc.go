// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package testgen synthesizes test inputs for C functions and emits the
// C harness source that exercises them. It combines boundary/edge/random
// input generation with an optional external symbolic-execution pass into
// a single TestSuite, then renders that suite as a runnable C program.
package testgen
