// Package extraction produces annotation candidates for the elements of an
// EML document.
package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/core/terms"
	"github.com/agenthands/weft/internal/eml"
)

// Source yields the candidates to record for a document. Implementations may
// assign ids to the document's elements.
type Source interface {
	Candidates(ctx context.Context, doc *eml.Document) ([]model.Candidate, error)
}

// NoMatch is the comment recorded on the ungrounded candidate kept when a
// resolver finds nothing.
const NoMatch = "no match"

type Extractor struct {
	Kinds     []model.Kind
	Resolvers map[string]terms.Resolver
	Author    string
	Now       func() time.Time
	Logger    *slog.Logger
}

func NewExtractor(kinds []model.Kind, resolvers map[string]terms.Resolver, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		Kinds:     kinds,
		Resolvers: resolvers,
		Now:       time.Now,
		Logger:    logger,
	}
}

// Candidates resolves the text of every element each kind targets. Every
// returned term becomes one candidate; an element the resolver finds nothing
// for still gets one ungrounded candidate so the miss is auditable.
func (e *Extractor) Candidates(ctx context.Context, doc *eml.Document) ([]model.Candidate, error) {
	now := e.Now()
	var res []model.Candidate
	for _, k := range e.Kinds {
		r, ok := e.Resolvers[k.Name]
		if !ok {
			return nil, fmt.Errorf("no resolver for kind %s", k.Name)
		}
		for _, n := range Targets(doc, k) {
			base := describe(doc, n, k)
			base.Source = e.Author
			base.Date = now

			text := Text(doc, n, k.Text)
			if text == "" {
				base.Comment = "no text to resolve"
				res = append(res, base)
				continue
			}

			found, err := r.Resolve(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s for %s: %w", k.Name, n.Path(), err)
			}
			e.Logger.Debug("resolved terms",
				"document", doc.PackageID(),
				"kind", k.Name,
				"element", base.Ref.ID,
				"terms", len(found))

			if len(found) == 0 {
				base.Comment = NoMatch
				res = append(res, base)
				continue
			}
			for _, t := range found {
				c := base
				c.Object = t.Label
				c.ObjectID = t.ID
				res = append(res, c)
			}
		}
	}
	return res, nil
}

// Targets lists the elements k annotates, skipping reference stubs and
// elements whose schema forbids annotations.
func Targets(doc *eml.Document, k model.Kind) []eml.Node {
	var res []eml.Node
	for _, n := range doc.Elements(k.Element) {
		if eml.CheckAnnotatable(n) != nil {
			continue
		}
		res = append(res, n)
	}
	return res
}

var entityKinds = []string{"dataTable", "otherEntity", "spatialRaster", "spatialVector", "storedProcedure", "view"}

// describe fills the element columns of a candidate for k, assigning the
// element an id if it has none.
func describe(doc *eml.Document, n eml.Node, k model.Kind) model.Candidate {
	c := model.Candidate{
		Ref:         doc.Ref(n),
		Element:     n.Kind(),
		Predicate:   k.Predicate,
		PredicateID: k.PredicateID,
	}
	switch n.Kind() {
	case "dataset":
		c.Subject = "dataset"
		c.Context = doc.PackageID()
		c.Description = n.ChildText("title")
	case "attribute":
		c.Subject = n.ChildText("attributeName")
		if ent, ok := n.Ancestor(entityKinds...); ok {
			c.Context = entityName(ent)
		}
		c.Description = n.ChildText("attributeDefinition")
	default:
		c.Subject = entityName(n)
		c.Context = "dataset"
		c.Description = n.ChildText("entityDescription")
	}
	return c
}

func entityName(n eml.Node) string {
	if name := n.DescendantText("objectName"); name != "" {
		return name
	}
	return n.ChildText("entityName")
}

// Text returns the text of n that src selects for resolution.
func Text(doc *eml.Document, n eml.Node, src model.TextSource) string {
	switch src {
	case model.TextUnit:
		if u := n.DescendantText("standardUnit"); u != "" {
			return u
		}
		return n.DescendantText("customUnit")

	case model.TextMethods:
		if m, ok := n.Child("methods"); ok {
			return m.Content()
		}
		if ds, ok := n.Ancestor("dataset"); ok {
			return ds.ChildText("methods")
		}
		return ""

	case model.TextEnvironment:
		parts := []string{n.ChildText("title"), n.ChildText("abstract"), keywords(n)}
		for _, cov := range doc.GeographicCoverages() {
			parts = append(parts, cov.Description())
		}
		return join(parts)

	default:
		switch n.Kind() {
		case "dataset":
			return join([]string{n.ChildText("title"), n.ChildText("abstract"), keywords(n)})
		case "attribute":
			return join([]string{n.ChildText("attributeName"), n.ChildText("attributeDefinition")})
		default:
			return join([]string{n.ChildText("entityName"), n.ChildText("entityDescription")})
		}
	}
}

func keywords(n eml.Node) string {
	var kws []string
	for _, ks := range n.Descendants("keywordSet") {
		for _, kw := range ks.Descendants("keyword") {
			kws = append(kws, kw.Content())
		}
	}
	return strings.Join(kws, ", ")
}

func join(parts []string) string {
	var res []string
	for _, p := range parts {
		if p = strings.TrimRight(strings.TrimSpace(p), ". "); p != "" {
			res = append(res, p)
		}
	}
	return strings.Join(res, ". ")
}
