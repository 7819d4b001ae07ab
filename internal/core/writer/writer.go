// Package writer commits accepted ledger rows into an EML document.
package writer

import (
	"fmt"
	"log/slog"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

type Writer struct {
	Logger *slog.Logger

	// Sentinel is the value identifier written by MarkUnannotatable.
	Sentinel string
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{Logger: logger, Sentinel: model.Unannotatable}
}

type target struct {
	row  int
	node eml.Node
	cand model.Candidate
}

// Write inserts one annotation element per accepted row, in ledger order,
// at the schema position of its element. Every target is checked before
// the document is touched, so a SchemaPositionError leaves it unchanged.
// It returns the number of annotations written.
func (w *Writer) Write(doc *eml.Document, l *ledger.Ledger) (int, error) {
	var targets []target
	for i, row := range l.RowsByStatus(model.StatusAccepted) {
		n, ok := doc.Resolve(row.Ref)
		if !ok {
			return 0, fmt.Errorf("%w: %s (row %d)", model.ErrUnknownElement, row.Ref, i)
		}
		if err := eml.CheckAnnotatable(n); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i, err)
		}
		targets = append(targets, target{row: i, node: n, cand: row.Candidate})
	}

	ids := newIDMinter(doc)
	for _, t := range targets {
		a := eml.Annotation{
			ID:            ids.next(doc.EnsureID(t.node)),
			PropertyLabel: t.cand.Predicate,
			PropertyURI:   curie.Expand(t.cand.PredicateID),
			ValueLabel:    t.cand.Object,
			ValueURI:      curie.Expand(t.cand.ObjectID),
		}
		if _, err := eml.AddAnnotation(t.node, a); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", t.row, err)
		}
		w.Logger.Debug("wrote annotation",
			"document", l.DocumentID,
			"element", t.node.Path(),
			"annotation_id", a.ID,
			"value_uri", a.ValueURI)
	}
	return len(targets), nil
}

// MarkUnannotatable adds the sentinel annotation to every element whose
// rows were all rejected as ungrounded and which carries no annotation yet.
// Elements that cannot hold annotations are left alone.
func (w *Writer) MarkUnannotatable(doc *eml.Document, l *ledger.Ledger) (int, error) {
	type group struct {
		predicate string
		propID    string
		allFailed bool
	}
	var order []eml.Node
	groups := make(map[eml.Node]*group)
	for _, row := range l.Rows() {
		n, ok := doc.Resolve(row.Ref)
		if !ok {
			continue
		}
		g, seen := groups[n]
		if !seen {
			g = &group{predicate: row.Predicate, propID: row.PredicateID, allFailed: true}
			groups[n] = g
			order = append(order, n)
		}
		if row.Status != model.StatusRejectedUngrounded {
			g.allFailed = false
		}
	}

	ids := newIDMinter(doc)
	marked := 0
	for _, n := range order {
		g := groups[n]
		if !g.allFailed || len(doc.Annotations(n)) > 0 || eml.CheckAnnotatable(n) != nil {
			continue
		}
		a := eml.Annotation{
			ID:            ids.next(doc.EnsureID(n)),
			PropertyLabel: g.predicate,
			PropertyURI:   curie.Expand(g.propID),
			ValueLabel:    "unannotatable",
			ValueURI:      w.Sentinel,
		}
		if _, err := eml.AddAnnotation(n, a); err != nil {
			return marked, fmt.Errorf("failed to mark %s: %w", n.Path(), err)
		}
		marked++
	}
	if marked > 0 {
		w.Logger.Info("marked unannotatable elements", "document", l.DocumentID, "count", marked)
	}
	return marked, nil
}

// idMinter hands out "<elementID>.annotation.<n>" identifiers that are
// unique within the document.
type idMinter struct {
	used  map[string]struct{}
	count map[string]int
}

func newIDMinter(doc *eml.Document) *idMinter {
	return &idMinter{used: doc.IDs(), count: make(map[string]int)}
}

func (m *idMinter) next(elementID string) string {
	for {
		m.count[elementID]++
		id := fmt.Sprintf("%s.annotation.%d", elementID, m.count[elementID])
		if _, taken := m.used[id]; !taken {
			m.used[id] = struct{}{}
			return id
		}
	}
}
