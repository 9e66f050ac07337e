package llm

import (
	"errors"
	"fmt"

	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Request is one chat completion request. JSONMode asks the model for a JSON
// object response (the structured output path); without it the raw text of
// the completion is returned as-is.
type Request struct {
	System   string
	User     string
	JSONMode bool
}

// Completer produces chat completions. Workers depend on this interface so
// tests can substitute a scripted fake for the OpenAI-compatible backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAIClient is a Completer backed by an OpenAI-compatible chat API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// Compile-time interface satisfaction check.
var _ Completer = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for the given API key, base URL, and model.
// An empty baseURL uses the default OpenAI endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends one system+user exchange and returns the assistant content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
