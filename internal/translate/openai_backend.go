// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend is the second pluggable translator backend, sharing the
// same narrow Backend capability as GeminiBackend, grounded directly on
// services/llm's OpenAIClient.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	key    string
}

// NewOpenAIBackend reads OPENAI_API_KEY/OPENAI_MODEL when apiKey/model are
// empty, mirroring the teacher's env-var defaults.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return &OpenAIBackend{client: client, model: model, key: apiKey}
}

// Available reports whether an API key was configured.
func (o *OpenAIBackend) Available() bool {
	return o.client != nil
}

// Generate issues one chat completion request with a system prompt
// instructing idiomatic C# conversion.
func (o *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if o.client == nil {
		return "", fmt.Errorf("openai backend not configured: OPENAI_API_KEY not set")
	}
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are an expert C to C# converter."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.1,
	}
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("openai conversion call failed", "error", err)
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
