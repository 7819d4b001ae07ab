package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/model"
)

// Columns is the workbook header, in order.
var Columns = []string{
	"package_id", "url", "element", "element_id", "element_xpath", "context",
	"description", "subject", "predicate", "predicate_id", "object", "object_id",
	"author", "date", "comment", "status",
}

const dateLayout = "2006-01-02 15:04:05"

// WriteOption tunes WriteTSV.
type WriteOption func(*writeOptions)

type writeOptions struct {
	compact bool
}

// WithCompactIDs writes predicate and object identifiers in prefix:local
// form where the namespace is known.
func WithCompactIDs() WriteOption {
	return func(o *writeOptions) { o.compact = true }
}

// WriteTSV writes the ledger as a tab-separated workbook with a header row.
func (l *Ledger) WriteTSV(w io.Writer, opts ...WriteOption) error {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write workbook header: %w", err)
	}
	for _, r := range l.Rows() {
		if err := cw.Write(record(r, o.compact)); err != nil {
			return fmt.Errorf("failed to write workbook row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// record renders r in Columns order.
func record(r model.Row, compact bool) []string {
	predicateID, objectID := r.PredicateID, r.ObjectID
	if compact {
		predicateID, objectID = curie.Compress(predicateID), curie.Compress(objectID)
	}
	date := ""
	if !r.Date.IsZero() {
		date = r.Date.Format(dateLayout)
	}
	return []string{
		r.DocumentID, r.URL, r.Element, r.Ref.ID, r.Ref.Path, r.Context,
		r.Description, r.Subject, r.Predicate, predicateID, r.Object, objectID,
		r.Source, date, r.Comment, string(r.Status),
	}
}

// ReadTSV parses a workbook written by WriteTSV. Columns may appear in any
// order; unknown columns are ignored and missing ones read as empty.
func ReadTSV(r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("workbook is empty")
		}
		return nil, fmt.Errorf("failed to read workbook header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	if _, ok := index["element_id"]; !ok {
		if _, ok := index["element_xpath"]; !ok {
			return nil, errors.New("workbook has neither element_id nor element_xpath column")
		}
	}

	l := &Ledger{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read workbook line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		row := model.Row{
			DocumentID: get("package_id"),
			URL:        get("url"),
			Candidate: model.Candidate{
				Ref:         model.ElementRef{ID: get("element_id"), Path: get("element_xpath")},
				Element:     get("element"),
				Subject:     get("subject"),
				Context:     get("context"),
				Description: get("description"),
				Predicate:   get("predicate"),
				PredicateID: get("predicate_id"),
				Object:      get("object"),
				ObjectID:    get("object_id"),
				Source:      get("author"),
				Comment:     get("comment"),
			},
			Status: model.ParseStatus(get("status")),
		}
		if d := get("date"); d != "" {
			row.Date = parseDate(d)
		}
		if l.DocumentID == "" {
			l.DocumentID, l.URL = row.DocumentID, row.URL
		}
		l.AddRow(row)
	}
	return l, nil
}

func parseDate(s string) time.Time {
	for _, layout := range []string{dateLayout, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// WriteFile writes the workbook to path.
func (l *Ledger) WriteFile(path string, opts ...WriteOption) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook '%s': %w", path, err)
	}
	if err := l.WriteTSV(f, opts...); err != nil {
		f.Close()
		return fmt.Errorf("failed to write workbook '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close workbook '%s': %w", path, err)
	}
	return nil
}

// LoadFile reads the workbook at path.
func LoadFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook '%s': %w", path, err)
	}
	defer f.Close()
	l, err := ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load workbook '%s': %w", path, err)
	}
	return l, nil
}
