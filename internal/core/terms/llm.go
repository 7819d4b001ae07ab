package terms

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/weft/internal/core/common"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/llm"
)

// DefaultGroundingPrompt takes the vocabulary, its identifier prefixes and
// the text to ground.
const DefaultGroundingPrompt = `You annotate ecological metadata with terms from the %s ontology.
Identifiers must be compact identifiers using one of these prefixes: %s.

Text:
%s

Return the terms from the ontology that best describe the text, most
relevant first. If no term fits, return an empty list. Never invent an
identifier; when you are unsure of it, leave "id" empty.

Return a JSON object with key "terms", a list of objects with "label" and "id".
Example JSON:
{
  "terms": [
    {"label": "kelp forest", "id": "ENVO:01000059"}
  ]
}`

type groundingResult struct {
	Terms []Term `json:"terms"`
}

// LLMResolver grounds text by prompting a language model.
type LLMResolver struct {
	LLM    llm.LLMClient
	Kind   model.Kind
	Prompt string
	// MaxTerms truncates the answer. Zero keeps everything.
	MaxTerms int
}

func NewLLMResolver(client llm.LLMClient, kind model.Kind, prompt string) *LLMResolver {
	if prompt == "" {
		prompt = DefaultGroundingPrompt
	}
	return &LLMResolver{LLM: client, Kind: kind, Prompt: prompt, MaxTerms: 1}
}

func (r *LLMResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	prompt := fmt.Sprintf(r.Prompt, r.Kind.Vocabulary, strings.Join(r.Kind.IDPrefixes, ", "), text)

	response, err := llm.GenerateJSON(ctx, r.LLM, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate terms: %w", err)
	}

	result, err := common.ParseJSON[groundingResult](response)
	if err != nil {
		// A garbled answer will not improve on retry.
		return nil, NewFatalError(fmt.Errorf("failed to parse terms: %w", err))
	}

	var res []Term
	for _, t := range result.Terms {
		t.Label = strings.TrimSpace(t.Label)
		t.ID = strings.TrimSpace(t.ID)
		if t.Label == "" && t.ID == "" {
			continue
		}
		// Identifiers outside the vocabulary are hallucinations; keep the
		// label for the audit trail, OntoGPT style.
		if t.ID != "" && !hasPrefix(t.ID, r.Kind.IDPrefixes) {
			t.ID = model.UngroundedPrefix + strings.ReplaceAll(t.Label, " ", "%20")
		}
		t.Vocabulary = r.Kind.Vocabulary
		res = append(res, t)
		if r.MaxTerms > 0 && len(res) == r.MaxTerms {
			break
		}
	}
	return res, nil
}
