package extraction

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

// WorkbookSuffix is appended to the package id to name a document's workbook.
const WorkbookSuffix = "_annotation_workbook.tsv"

// WorkbookPath returns where the workbook for documentID lives in dir.
func WorkbookPath(dir, documentID string) string {
	return filepath.Join(dir, documentID+WorkbookSuffix)
}

// Workbook replays the rows of curated workbooks. Statuses are discarded so
// every row is resolved again against the current document.
type Workbook struct {
	Dir string
	// Optional skips documents that have no workbook instead of failing.
	Optional bool
}

func (w *Workbook) Candidates(ctx context.Context, doc *eml.Document) ([]model.Candidate, error) {
	path := WorkbookPath(w.Dir, doc.PackageID())
	l, err := ledger.LoadFile(path)
	if err != nil {
		if w.Optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var res []model.Candidate
	for i, row := range l.Rows() {
		if row.DocumentID != "" && row.DocumentID != doc.PackageID() {
			return nil, fmt.Errorf("workbook %s row %d belongs to %s", path, i+2, row.DocumentID)
		}
		res = append(res, row.Candidate)
	}
	return res, nil
}

// Blank lists one candidate without an object for every element the kinds
// target. It seeds a workbook for manual curation.
type Blank struct {
	Kinds  []model.Kind
	Author string
	Now    func() time.Time
}

func (b *Blank) Candidates(ctx context.Context, doc *eml.Document) ([]model.Candidate, error) {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	var res []model.Candidate
	for _, k := range b.Kinds {
		for _, n := range Targets(doc, k) {
			c := describe(doc, n, k)
			c.Source = b.Author
			c.Date = now
			res = append(res, c)
		}
	}
	return res, nil
}
