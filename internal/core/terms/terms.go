// Package terms maps free text to controlled-vocabulary terms.
//
// A Resolver is built per annotation kind by Factory and wrapped with retry
// and batch-scoped caching. Backends: an LLM grounding prompt, the BioPortal
// annotator, the LTER unit webservice and a static lookup table.
package terms

import (
	"context"
	"strings"
)

// Term is one candidate match. ID is empty when the backend could not ground
// the text to an identifier.
type Term struct {
	Label      string `json:"label"`
	ID         string `json:"id"`
	Vocabulary string `json:"vocabulary,omitempty"`
}

type Resolver interface {
	Resolve(ctx context.Context, text string) ([]Term, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, text string) ([]Term, error)

func (f ResolverFunc) Resolve(ctx context.Context, text string) ([]Term, error) {
	return f(ctx, text)
}

// normalize is the lookup key for text: lower case, single spaces.
func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// hasPrefix reports whether id belongs to one of the vocabularies named by
// prefixes, either as a compact identifier or as an IRI containing the
// prefix followed by "_" or "/".
func hasPrefix(id string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	upper := strings.ToUpper(id)
	for _, p := range prefixes {
		p = strings.ToUpper(p)
		if strings.HasPrefix(upper, p+":") || strings.HasPrefix(upper, p+";") ||
			strings.Contains(upper, "/"+p+"_") || strings.Contains(upper, "/"+p+"/") {
			return true
		}
	}
	return false
}
