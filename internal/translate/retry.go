// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrTranslatorQuota marks a quota-exhaustion error from a backend that
// carried no retry delay the caller could use.
var ErrTranslatorQuota = errors.New("translator quota exceeded")

// DefaultMaxRetries is the default per-chunk retry ceiling.
const DefaultMaxRetries = 3

// retryDelayPattern matches a free-text "retry in Ns" fallback when the
// error body carries no structured retryDelay field.
var retryDelayPattern = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`)

// IsQuotaError reports whether an HTTP 429 response body indicates a quota
// (rather than a generic rate-limit) condition.
func IsQuotaError(statusCode int, body string) bool {
	return statusCode == 429 && strings.Contains(strings.ToLower(body), "quota")
}

// QuotaRetryDelay extracts the backend-suggested retry delay from a quota
// error body: first a structured google.rpc.RetryInfo.retryDelay field
// (e.g. "12s"), then a free-text "retry in Ns" match, falling back to
// exponential backoff capped at 300 seconds when neither is present.
func QuotaRetryDelay(body string, attempt int) int {
	if delay, ok := parseStructuredRetryDelay(body); ok {
		return delay
	}
	if match := retryDelayPattern.FindStringSubmatch(body); match != nil {
		if f, err := strconv.ParseFloat(match[1], 64); err == nil {
			return int(f)
		}
	}
	return min(60*pow2(attempt), 300)
}

// NetworkRetryDelay returns the exponential backoff delay, in seconds, for
// a transport-level (non-HTTP-status) failure, capped at 30 seconds.
func NetworkRetryDelay(attempt int) int {
	return min(pow2(attempt), 30)
}

func pow2(attempt int) int {
	if attempt < 0 {
		return 1
	}
	return int(math.Pow(2, float64(attempt)))
}

type retryInfoDetail struct {
	Type       string `json:"@type"`
	RetryDelay string `json:"retryDelay"`
}

type retryInfoError struct {
	Error struct {
		Details []retryInfoDetail `json:"details"`
	} `json:"error"`
}

func parseStructuredRetryDelay(body string) (int, bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return 0, false
	}
	var parsed retryInfoError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return 0, false
	}
	for _, detail := range parsed.Error.Details {
		if detail.Type != "type.googleapis.com/google.rpc.RetryInfo" {
			continue
		}
		if strings.HasSuffix(detail.RetryDelay, "s") {
			seconds := strings.TrimSuffix(detail.RetryDelay, "s")
			if n, err := strconv.Atoi(seconds); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
