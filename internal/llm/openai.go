package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient talks to OpenAI and to OpenAI-compatible servers such as
// Ollama's /v1 endpoint.
type OpenAIClient struct {
	client         *openai.Client
	model          string
	embeddingModel string
}

func NewOpenAIClient(apiKey, model, embeddingModel, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	return &OpenAIClient{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		embeddingModel: embeddingModel,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, prompt, nil)
}

// GenerateJSON requests json_object output. The prompt must mention JSON.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (c *OpenAIClient) chat(ctx context.Context, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature:    0,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding for %q: %w", text, err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embedding")
	}
	return resp.Data[0].Embedding, nil
}
