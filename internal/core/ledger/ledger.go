// Package ledger holds the annotation workbook: an ordered list of candidate
// annotations and their workflow status.
//
// The ledger is a plain container. It never deduplicates; status transitions
// are decided by the conflict resolver.
package ledger

import (
	"fmt"
	"iter"

	"github.com/agenthands/weft/internal/core/model"
)

// Ledger is an ordered sequence of rows for one document.
type Ledger struct {
	DocumentID string
	URL        string

	rows []model.Row
}

// New returns an empty ledger for a document.
func New(documentID, url string) *Ledger {
	return &Ledger{DocumentID: documentID, URL: url}
}

// Add appends c as a pending row and returns its index.
func (l *Ledger) Add(c model.Candidate) int {
	l.rows = append(l.rows, model.Row{
		DocumentID: l.DocumentID,
		URL:        l.URL,
		Candidate:  c,
		Status:     model.StatusPending,
	})
	return len(l.rows) - 1
}

// AddRow appends a row keeping its status. Used when loading a persisted
// workbook.
func (l *Ledger) AddRow(r model.Row) int {
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	l.rows = append(l.rows, r)
	return len(l.rows) - 1
}

// Rows yields every row in insertion order. The sequence may be iterated
// any number of times.
func (l *Ledger) Rows() iter.Seq2[int, model.Row] {
	return func(yield func(int, model.Row) bool) {
		for i, r := range l.rows {
			if !yield(i, r) {
				return
			}
		}
	}
}

// RowsByStatus yields the rows with status s in insertion order.
func (l *Ledger) RowsByStatus(s model.Status) iter.Seq2[int, model.Row] {
	return func(yield func(int, model.Row) bool) {
		for i, r := range l.rows {
			if r.Status != s {
				continue
			}
			if !yield(i, r) {
				return
			}
		}
	}
}

// Row returns the row at index i.
func (l *Ledger) Row(i int) (model.Row, bool) {
	if i < 0 || i >= len(l.rows) {
		return model.Row{}, false
	}
	return l.rows[i], true
}

// Mark sets the status of row i.
func (l *Ledger) Mark(i int, s model.Status) error {
	if i < 0 || i >= len(l.rows) {
		return fmt.Errorf("row %d out of range [0,%d)", i, len(l.rows))
	}
	l.rows[i].Status = s
	return nil
}

// Len is the number of rows.
func (l *Ledger) Len() int {
	return len(l.rows)
}

// Counts tallies rows per status.
func (l *Ledger) Counts() map[model.Status]int {
	res := make(map[model.Status]int)
	for _, r := range l.rows {
		res[r.Status]++
	}
	return res
}
