package llm

import (
	"context"
)

type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// JSONGenerator is implemented by clients whose provider can constrain the
// answer to a single JSON object.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RerankerClient orders documents by relevance to query, most relevant
// first, returning indices into documents.
type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}

// GenerateJSON uses the client's JSON mode when it has one and plain
// generation otherwise.
func GenerateJSON(ctx context.Context, client LLMClient, prompt string) (string, error) {
	if j, ok := client.(JSONGenerator); ok {
		return j.GenerateJSON(ctx, prompt)
	}
	return client.Generate(ctx, prompt)
}
