// Package core runs the annotation pipeline over EML documents: candidate
// extraction, ledger recording, duplicate resolution, writing and optional
// publication to a knowledge graph.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agenthands/weft/internal/core/dedupe"
	"github.com/agenthands/weft/internal/core/extraction"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/core/terms"
	"github.com/agenthands/weft/internal/core/writer"
	"github.com/agenthands/weft/internal/eml"
)

type Annotator struct {
	Source extraction.Source
	// Deduplicator decides pending rows. Nil leaves every row pending.
	Deduplicator *dedupe.Deduplicator
	// Writer commits accepted rows. Nil leaves the document untouched.
	Writer    *writer.Writer
	Publisher *Publisher
	// Cache is purged when a batch ends.
	Cache  terms.Cache
	Logger *slog.Logger

	// Workers bounds how many documents a batch processes at once.
	Workers           int
	Shadow            bool
	MarkUnannotatable bool
	Portal            string
}

func NewAnnotator(source extraction.Source, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{
		Source:       source,
		Deduplicator: dedupe.NewDeduplicator(logger),
		Writer:       writer.NewWriter(logger),
		Logger:       logger,
		Workers:      1,
		Portal:       "production",
	}
}

// Result is what annotating one document produced.
type Result struct {
	Ledger  *ledger.Ledger
	Summary model.Summary
	Written int
	Marked  int
}

// AnnotateDocument runs the pipeline on doc, mutating it in place. On error
// doc must be discarded.
func (a *Annotator) AnnotateDocument(ctx context.Context, doc *eml.Document) (*Result, error) {
	id := doc.PackageID()
	if a.Shadow {
		if n := doc.ConvertUserIDs(); n > 0 {
			a.Logger.Debug("converted user ids", "document", id, "count", n)
		}
	}

	cands, err := a.Source.Candidates(ctx, doc)
	if err != nil {
		return nil, err
	}

	l := ledger.New(id, doc.PackageURL(a.Portal))
	for _, c := range cands {
		l.Add(c)
	}
	res := &Result{Ledger: l}

	if a.Deduplicator != nil {
		if res.Summary, err = a.Deduplicator.Resolve(doc, l); err != nil {
			return nil, err
		}
	}
	if a.Writer != nil {
		if res.Written, err = a.Writer.Write(doc, l); err != nil {
			return nil, err
		}
		if a.MarkUnannotatable {
			if res.Marked, err = a.Writer.MarkUnannotatable(doc, l); err != nil {
				return nil, err
			}
		}
	}
	if a.Publisher != nil {
		if err := a.Publisher.Publish(ctx, doc, l); err != nil {
			return nil, fmt.Errorf("failed to publish %s: %w", id, err)
		}
	}

	a.Logger.Info("annotated document",
		"document", id,
		"rows", l.Len(),
		"accepted", res.Summary.Accepted,
		"duplicates", res.Summary.Duplicates,
		"ungrounded", res.Summary.Ungrounded,
		"skipped", res.Summary.Skipped,
		"written", res.Written)
	return res, nil
}
