// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import "context"

// Backend is the narrow capability every pluggable translator backend
// shares: generate text from a prompt, and report whether it is configured
// at all (e.g. an API key is present). The rate-limit/retry/cache wrapper
// in client.go is backend-agnostic and depends only on this interface.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Available() bool
}
