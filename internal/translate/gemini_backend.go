// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultGeminiModel matches the original converter's default.
const DefaultGeminiModel = "gemini-2.5-pro"

// GeminiBackend talks to the Gemini generateContent REST endpoint directly,
// following its literal wire contract. There is no Gemini Go SDK in the
// example corpus, so this hand-rolls the request the same way the teacher's
// own ollama_llm.go/local_llm.go clients do for backends without a binding.
type GeminiBackend struct {
	httpClient *http.Client
	apiKey     string
	model      string
	maxTokens  int
	apiURL     string
}

// NewGeminiBackend reads GEMINI_API_KEY when apiKey is empty. A backend
// with no key is still constructed (Available() reports false) so callers
// can uniformly probe availability rather than handling a constructor error.
func NewGeminiBackend(apiKey, model string, maxTokens int) *GeminiBackend {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &GeminiBackend{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		model:      model,
		maxTokens:  maxTokens,
		apiURL:     fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", model),
	}
}

// Available reports whether an API key was configured.
func (g *GeminiBackend) Available() bool {
	return g.apiKey != ""
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int     `json:"topK"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// geminiHTTPError carries the response status and body so the caller's
// retry logic can classify quota vs other failures without re-parsing.
type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini API error: %d - %s", e.StatusCode, e.Body)
}

// Generate issues one generateContent call. It does not itself retry or
// rate-limit (that is the wrapping Client's job, in ratelimit.go and
// retry.go), but it does return a *geminiHTTPError so the wrapper can inspect the
// status code and body for the quota-retry decision.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: g.maxTokens,
			Temperature:     0.1,
			TopP:            0.8,
			TopK:            40,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("gemini API call failed", "status", resp.StatusCode, "body", string(respBody))
		return "", &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	slog.Debug("gemini generation complete", "tokens_used", parsed.UsageMetadata.TotalTokenCount)
	return strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text), nil
}
