package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReportColumns is the header written by WriteTSV.
var ReportColumns = []string{
	"standard_dir", "test_dir", "standard_file", "predicate_value",
	"element_xpath_value", "standard_set", "test_set", "scored",
	"average_score", "best_score", "jaccard_similarity",
}

// WriteTSV writes one line per result. Term sets are space separated.
func WriteTSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(ReportColumns); err != nil {
		return fmt.Errorf("failed to write benchmark header: %w", err)
	}
	for _, r := range results {
		rec := []string{
			r.StandardDir, r.TestDir, r.File, r.Predicate, r.Element,
			strings.Join(r.Standard, " "), strings.Join(r.Test, " "),
			strconv.FormatBool(r.Scored),
			score(r.AverageScore), score(r.BestScore), score(r.Jaccard),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write benchmark row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
