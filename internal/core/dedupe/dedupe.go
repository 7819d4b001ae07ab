// Package dedupe decides which candidate annotations in a ledger are
// committed to a document.
package dedupe

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

type Deduplicator struct {
	Logger *slog.Logger

	// Sentinel is the value identifier of the "could not be annotated"
	// annotation. Elements carrying it are skipped.
	Sentinel string
}

func NewDeduplicator(logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{
		Logger:   logger,
		Sentinel: model.Unannotatable,
	}
}

// existing is the annotation state of one element during a pass.
type existing struct {
	pairs    map[model.Pair]struct{}
	sentinel bool
}

// Resolve marks every pending row of l as accepted, rejected-duplicate or
// rejected-ungrounded against the annotations currently in doc. Rows for
// sentineled elements stay pending. Annotation sets are read from the live
// document on every call and discarded when it returns.
//
// A row whose element cannot be found fails the whole pass with
// model.ErrUnknownElement before any row is marked.
func (d *Deduplicator) Resolve(doc *eml.Document, l *ledger.Ledger) (model.Summary, error) {
	var summary model.Summary

	targets := make(map[int]eml.Node)
	for i, row := range l.RowsByStatus(model.StatusPending) {
		n, ok := doc.Resolve(row.Ref)
		if !ok {
			return summary, fmt.Errorf("%w: %s (row %d)", model.ErrUnknownElement, row.Ref, i)
		}
		targets[i] = n
	}

	sets := make(map[eml.Node]*existing)
	for i, row := range l.RowsByStatus(model.StatusPending) {
		n := targets[i]
		set, ok := sets[n]
		if !ok {
			set = d.load(doc, n)
			sets[n] = set
		}

		if set.sentinel {
			summary.Skipped++
			continue
		}

		status := d.decide(set, row.Candidate)
		if err := l.Mark(i, status); err != nil {
			return summary, fmt.Errorf("failed to mark row %d: %w", i, err)
		}
		switch status {
		case model.StatusAccepted:
			summary.Accepted++
		case model.StatusRejectedDuplicate:
			summary.Duplicates++
		case model.StatusRejectedUngrounded:
			summary.Ungrounded++
		}
		d.Logger.Debug("resolved candidate",
			"document", l.DocumentID,
			"element", row.Ref.String(),
			"predicate_id", row.PredicateID,
			"object_id", row.ObjectID,
			"status", status)
	}

	d.Logger.Info("resolved ledger",
		"document", l.DocumentID,
		"accepted", summary.Accepted,
		"duplicates", summary.Duplicates,
		"ungrounded", summary.Ungrounded,
		"skipped", summary.Skipped)
	return summary, nil
}

func (d *Deduplicator) decide(set *existing, c model.Candidate) model.Status {
	if !c.Grounded() || strings.TrimSpace(c.PredicateID) == "" {
		return model.StatusRejectedUngrounded
	}
	pair := curie.Canonical(c.Pair())
	if _, dup := set.pairs[pair]; dup {
		return model.StatusRejectedDuplicate
	}
	set.pairs[pair] = struct{}{}
	return model.StatusAccepted
}

func (d *Deduplicator) load(doc *eml.Document, n eml.Node) *existing {
	set := &existing{pairs: make(map[model.Pair]struct{})}
	sentinel := curie.Expand(d.Sentinel)
	for _, a := range doc.Annotations(n) {
		if sentinel != "" && curie.Expand(a.ValueURI) == sentinel {
			set.sentinel = true
		}
		if a.Malformed() {
			d.Logger.Warn("ignoring annotation",
				"error", model.ErrMalformedAnnotation,
				"element", n.Path(),
				"annotation_id", a.ID,
				"property_uri", a.PropertyURI,
				"value_uri", a.ValueURI)
			continue
		}
		set.pairs[curie.Canonical(a.Pair())] = struct{}{}
	}
	return set
}
