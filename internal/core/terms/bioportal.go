package terms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/agenthands/weft/internal/llm"
)

const maxResponseSize = 10 << 20

// BioPortalResolver queries the BioPortal annotator for one ontology.
type BioPortalResolver struct {
	HTTP       *http.Client
	URL        string
	APIKey     string
	Ontology   string
	MaxResults int
	// Reranker optionally reorders matches by relevance to the text.
	Reranker llm.RerankerClient
	Logger   *slog.Logger
}

type bioPortalAnnotation struct {
	AnnotatedClass struct {
		ID        string `json:"@id"`
		PrefLabel string `json:"prefLabel"`
	} `json:"annotatedClass"`
}

func (r *BioPortalResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	if r.APIKey == "" {
		return nil, NewFatalError(fmt.Errorf("bioportal api key is not set"))
	}
	q := url.Values{}
	q.Set("text", text)
	q.Set("ontologies", r.Ontology)
	q.Set("include", "prefLabel")
	q.Set("whole_word_only", "true")
	q.Set("minimum_match_length", "3")
	q.Set("longest_only", "false")
	q.Set("page_size", "100")
	q.Set("format", "json")
	q.Set("apikey", r.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create bioportal request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	body, err := doRequest(r.client(), req, "bioportal")
	if err != nil {
		return nil, err
	}

	var anns []bioPortalAnnotation
	if err := json.Unmarshal(body, &anns); err != nil {
		return nil, NewTransientError(fmt.Errorf("decode bioportal response: %w", err))
	}

	seen := make(map[string]bool)
	var res []Term
	for _, a := range anns {
		id := a.AnnotatedClass.ID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		res = append(res, Term{Label: a.AnnotatedClass.PrefLabel, ID: id, Vocabulary: r.Ontology})
	}

	if r.Reranker != nil && len(res) > 1 {
		res = r.rerank(ctx, text, res)
	}
	if r.MaxResults > 0 && len(res) > r.MaxResults {
		res = res[:r.MaxResults]
	}
	return res, nil
}

func (r *BioPortalResolver) rerank(ctx context.Context, text string, res []Term) []Term {
	labels := make([]string, len(res))
	for i, t := range res {
		labels[i] = t.Label
	}
	order, err := r.Reranker.Rank(ctx, text, labels)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Warn("rerank failed", "error", err)
		}
		return res
	}
	ranked := make([]Term, 0, len(res))
	for _, i := range order {
		if i >= 0 && i < len(res) {
			ranked = append(ranked, res[i])
		}
	}
	if len(ranked) == 0 {
		return res
	}
	return ranked
}

func (r *BioPortalResolver) client() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return http.DefaultClient
}

// doRequest executes req and returns the body of a 200 response.
func doRequest(client *http.Client, req *http.Request, service string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		// Network errors are transient
		return nil, NewTransientError(fmt.Errorf("%s request failed: %w", service, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read %s response: %w", service, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(service, resp.StatusCode, body)
	}
	return body, nil
}

