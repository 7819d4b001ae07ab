package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient generates with one model and embeds with another.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func NewGeminiClient(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-004"
	}
	return &GeminiClient{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "")
}

// GenerateJSON sets the response MIME type to application/json.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, "application/json")
}

func (c *GeminiClient) generate(ctx context.Context, prompt, mimeType string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0)
	model.ResponseMIMEType = mimeType
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", errors.New("gemini returned no text")
}

func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := c.client.EmbeddingModel(c.embeddingModel).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res.Embedding != nil {
		return res.Embedding.Values, nil
	}
	return nil, errors.New("gemini returned no embedding")
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
