package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/driver"
	"github.com/agenthands/weft/internal/eml"
	"github.com/agenthands/weft/internal/llm"
)

// Publisher mirrors committed annotations into a graph store as
// (Dataset)-[:HAS_ELEMENT]->(Element)-[:ANNOTATED]->(Term).
type Publisher struct {
	Driver driver.GraphDriver
	// Embedder, when set, attaches a label embedding to every term.
	Embedder llm.EmbedderClient
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewPublisher(d driver.GraphDriver, embedder llm.EmbedderClient, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{Driver: d, Embedder: embedder, Logger: logger, Now: time.Now}
}

// Publish writes the accepted rows of l. It must run after the rows were
// written into doc.
func (p *Publisher) Publish(ctx context.Context, doc *eml.Document, l *ledger.Ledger) error {
	now := p.Now().UTC()
	id := doc.PackageID()

	_, err := p.Driver.ExecuteQuery(ctx, driver.SaveDatasetQuery, map[string]interface{}{
		"package_id": id,
		"url":        l.URL,
		"title":      doc.Root().DescendantText("title"),
		"updated_at": now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	elements := make(map[string]bool)
	savedTerms := make(map[string]bool)
	count := 0
	for _, row := range l.RowsByStatus(model.StatusAccepted) {
		n, ok := doc.Resolve(row.Ref)
		if !ok {
			return fmt.Errorf("%w: %s", model.ErrUnknownElement, row.Ref)
		}
		elementID := n.ID()

		if !elements[elementID] {
			_, err := p.Driver.ExecuteQuery(ctx, driver.SaveElementQuery, map[string]interface{}{
				"package_id": id,
				"element_id": elementID,
				"kind":       n.Kind(),
				"path":       n.Path(),
				"subject":    row.Subject,
			})
			if err != nil {
				return fmt.Errorf("failed to save element %s: %w", elementID, err)
			}
			elements[elementID] = true
		}

		pair := curie.Canonical(row.Pair())
		if !savedTerms[pair.ObjectID] {
			if err := p.saveTerm(ctx, pair.ObjectID, row.Object); err != nil {
				return err
			}
			savedTerms[pair.ObjectID] = true
		}

		_, err := p.Driver.ExecuteQuery(ctx, driver.SaveAnnotationEdgeQuery, map[string]interface{}{
			"package_id":    id,
			"element_id":    elementID,
			"iri":           pair.ObjectID,
			"predicate_iri": pair.PredicateID,
			"predicate":     row.Predicate,
			"annotation_id": annotationID(doc, n, pair),
			"source":        row.Source,
			"created_at":    now.Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("failed to save annotation on %s: %w", elementID, err)
		}
		count++
	}

	p.Logger.Debug("published annotations", "document", id, "elements", len(elements), "annotations", count)
	return nil
}

func (p *Publisher) saveTerm(ctx context.Context, iri, label string) error {
	vocabulary := ""
	if prefix, _, ok := curie.Split(curie.Compress(iri)); ok {
		vocabulary = prefix
	}
	params := map[string]interface{}{
		"iri":             iri,
		"label":           label,
		"vocabulary":      vocabulary,
		"label_embedding": nil,
	}
	if p.Embedder != nil && label != "" {
		vec, err := p.Embedder.Embed(ctx, label)
		if err != nil {
			p.Logger.Warn("failed to embed term label", "iri", iri, "error", err)
		} else {
			params["label_embedding"] = vec
		}
	}
	if _, err := p.Driver.ExecuteQuery(ctx, driver.SaveTermQuery, params); err != nil {
		return fmt.Errorf("failed to save term %s: %w", iri, err)
	}
	return nil
}

func annotationID(doc *eml.Document, n eml.Node, pair model.Pair) string {
	for _, a := range doc.Annotations(n) {
		if curie.Canonical(a.Pair()) == pair {
			return a.ID
		}
	}
	return ""
}

// PublishedAnnotation is one ANNOTATED edge read back from the graph.
type PublishedAnnotation struct {
	ElementID    string
	PredicateIRI string
	IRI          string
}

// Annotations lists the edges stored for a dataset, ordered by element and
// term.
func (p *Publisher) Annotations(ctx context.Context, packageID string) ([]PublishedAnnotation, error) {
	res, err := p.Driver.ExecuteQuery(ctx, driver.DatasetTermsQuery, map[string]interface{}{"package_id": packageID})
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations of %s: %w", packageID, err)
	}
	var out []PublishedAnnotation
	for _, rec := range res.Records {
		elementID, _ := rec.Get("element_id")
		predicate, _ := rec.Get("predicate_iri")
		iri, _ := rec.Get("iri")
		out = append(out, PublishedAnnotation{
			ElementID:    asString(elementID),
			PredicateIRI: asString(predicate),
			IRI:          asString(iri),
		})
	}
	return out, nil
}

// Delete removes a dataset and its elements. Terms are shared and kept.
func (p *Publisher) Delete(ctx context.Context, packageID string) error {
	if _, err := p.Driver.ExecuteQuery(ctx, driver.DeleteDatasetQuery, map[string]interface{}{"package_id": packageID}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", packageID, err)
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
