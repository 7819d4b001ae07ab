package terms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const noMatch = "No_Match"

// UnitResolver maps EML unit names to QUDT units through the LTER unit
// annotation webservice.
type UnitResolver struct {
	HTTP *http.Client
	URL  string
}

type unitMatch struct {
	Label string `json:"qudtLabel"`
	URI   string `json:"qudtURI"`
}

func (r *UnitResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("rawunit", text)
	q.Set("returntype", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create units request: %w", err))
	}

	client := r.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	body, err := doRequest(client, req, "units webservice")
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if string(body) == noMatch {
		return nil, nil
	}
	var m unitMatch
	if err := json.Unmarshal(body, &m); err != nil {
		// The service emits malformed JSON for some units.
		return nil, NewFatalError(fmt.Errorf("decode units response for %q: %w", text, err))
	}
	if m.URI == "" {
		return nil, nil
	}
	return []Term{{Label: m.Label, ID: m.URI, Vocabulary: "QUDT"}}, nil
}
