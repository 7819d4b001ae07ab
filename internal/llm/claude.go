package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

const claudeMaxTokens = 1024

// ClaudeClient generates text only; it has no embedding endpoint and no
// JSON mode, so grounding prompts rely on ParseJSON tolerating prose.
type ClaudeClient struct {
	client *anthropic.Client
	model  string
	system string
}

func NewClaudeClient(apiKey, model, baseURL string) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
		system: "You curate ontology annotations for ecological metadata. Answer in exactly the format requested.",
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    c.system,
		MaxTokens: claudeMaxTokens,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(prompt)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create message: %w", err)
	}
	for _, part := range resp.Content {
		if part.Text != nil {
			return *part.Text, nil
		}
	}
	return "", errors.New("claude returned no text content")
}
