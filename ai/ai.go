// Copyright 2025 AdMesh
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ai wraps the OpenAI API behind the three narrow capabilities the
// gateway consumes: text embedding, query expansion, and product ranking.
//
// The gateway must stay available without an API key: a keyless client
// reports ErrUnavailable from ranking and embedding, and callers degrade to
// their retrieval-only fallbacks.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"admesh/platform/shared/logger"
)

// ErrUnavailable signals that the AI capability is not configured. Callers
// match it with errors.Is to pick their degraded path.
var ErrUnavailable = errors.New("ranking capability unavailable")

// Client wraps the OpenAI SDK. A nil inner client (no API key) is valid and
// makes every capability report ErrUnavailable.
type Client struct {
	oa         *openai.Client
	chatModel  openai.ChatModel
	embedModel openai.EmbeddingModel
	log        *logger.Logger
}

// New builds a Client. An empty apiKey yields a keyless client rather than
// an error, so deployments without AI still serve retrieval-only results.
func New(apiKey string) *Client {
	c := &Client{
		chatModel:  openai.ChatModelGPT4oMini,
		embedModel: openai.EmbeddingModelTextEmbedding3Small,
		log:        logger.New("ai"),
	}
	if apiKey != "" {
		oa := openai.NewClient(option.WithAPIKey(apiKey))
		c.oa = &oa
	}
	return c
}

// Available reports whether the client holds credentials.
func (c *Client) Available() bool {
	return c.oa != nil
}

// EmbedTexts returns one embedding vector per input text.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if c.oa == nil {
		return nil, fmt.Errorf("embedding not configured: %w", ErrUnavailable)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.oa.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: c.embedModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// complete issues one chat completion and returns the assistant text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.oa.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
