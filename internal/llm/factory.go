package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/weft/internal/config"
)

// NewClient builds the generator and, where the provider has one, the
// embedder described by cfg. The embedder is nil for Claude.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)

	switch provider {
	case "openai":
		c := NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.EmbeddingModel, cfg.BaseURL)
		return c, c, nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case "claude":
		c := NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
		return c, nil, nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		slog.Debug("using ollama through its OpenAI-compatible API", "base_url", baseURL)

		// Ollama ignores the key but the client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		c := NewOpenAIClient(apiKey, cfg.Model, cfg.EmbeddingModel, baseURL)
		return c, c, nil

	default:
		return nil, nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}
