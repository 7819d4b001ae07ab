package llm

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRerankPrompt takes the query and the numbered document list.
const DefaultRerankPrompt = `You are a controlled-vocabulary matching system.
Query: %s

Candidate terms:
%s

Rank the candidate terms above by how well they describe the query.
Output ONLY the indices of the candidates in order of relevance, separated by commas.
Example: 0, 2, 1
Do not output any other text.`

// SimpleLLMReranker asks a generator to order documents. Its result is
// always a permutation of the input indices.
type SimpleLLMReranker struct {
	LLM    LLMClient
	Prompt string
	Logger *slog.Logger
}

func NewSimpleLLMReranker(client LLMClient) *SimpleLLMReranker {
	return &SimpleLLMReranker{LLM: client, Prompt: DefaultRerankPrompt, Logger: slog.Default()}
}

func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		content := d
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		fmt.Fprintf(&docList, "[%d] %s\n", i, content)
	}

	prompt := r.Prompt
	if prompt == "" {
		prompt = DefaultRerankPrompt
	}
	resp, err := r.LLM.Generate(ctx, fmt.Sprintf(prompt, query, docList.String()))
	if err != nil {
		// Keep the original order when the generator is unavailable.
		if r.Logger != nil {
			r.Logger.Warn("rerank failed, keeping original order", "error", err)
		}
		return identity(len(docs)), nil
	}

	return completePermutation(parseIndices(resp), len(docs)), nil
}

var indexPattern = regexp.MustCompile(`\d+`)

func parseIndices(s string) []int {
	matches := indexPattern.FindAllString(s, -1)
	var indices []int
	for _, m := range matches {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}

// completePermutation drops out-of-range and repeated indices, then appends
// whatever the model left out in original order.
func completePermutation(indices []int, n int) []int {
	seen := make([]bool, n)
	res := make([]int, 0, n)
	for _, i := range indices {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		res = append(res, i)
	}
	for i := range n {
		if !seen[i] {
			res = append(res, i)
		}
	}
	return res
}

func identity(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = i
	}
	return res
}
