package ledger

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Delete returns a copy of the ledger without the rows that match every
// criterion. A criterion maps a workbook column to a substring of its value;
// matching is case-sensitive and uses the stored, uncompacted identifiers.
// The second result is the number of rows removed.
func (l *Ledger) Delete(criteria map[string]string) (*Ledger, int, error) {
	if len(criteria) == 0 {
		return nil, 0, errors.New("no deletion criteria")
	}
	cols := make([]string, 0, len(criteria))
	for col := range criteria {
		if !slices.Contains(Columns, col) {
			return nil, 0, fmt.Errorf("unknown workbook column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	res := New(l.DocumentID, l.URL)
	removed := 0
	for _, r := range l.rows {
		rec := record(r, false)
		matched := true
		for _, col := range cols {
			if !strings.Contains(rec[slices.Index(Columns, col)], criteria[col]) {
				matched = false
				break
			}
		}
		if matched {
			removed++
			continue
		}
		res.rows = append(res.rows, r)
	}
	return res, removed, nil
}

// ParseCriteria turns "column=substring" pairs into Delete criteria.
func ParseCriteria(pairs []string) (map[string]string, error) {
	res := make(map[string]string, len(pairs))
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("criterion %q is not column=value", p)
		}
		res[col] = val
	}
	return res, nil
}
