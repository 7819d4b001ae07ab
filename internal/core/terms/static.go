package terms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StaticResolver answers from a fixed table keyed by normalized text.
type StaticResolver struct {
	Terms map[string][]Term
}

func NewStaticResolver(entries map[string][]Term) *StaticResolver {
	s := &StaticResolver{Terms: make(map[string][]Term, len(entries))}
	for text, ts := range entries {
		key := normalize(text)
		s.Terms[key] = append(s.Terms[key], ts...)
	}
	return s
}

func (s *StaticResolver) Resolve(ctx context.Context, text string) ([]Term, error) {
	return append([]Term(nil), s.Terms[normalize(text)]...), nil
}

// LoadStaticTerms reads a tab-separated table of text, label, id and
// vocabulary columns. Lines starting with "#" are comments.
func LoadStaticTerms(path string) (*StaticResolver, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open static terms '%s': %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	s := &StaticResolver{Terms: make(map[string][]Term)}
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read static terms '%s' line %d: %w", path, line, err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("static terms '%s' line %d: want at least 3 columns, got %d", path, line, len(rec))
		}
		t := Term{Label: strings.TrimSpace(rec[1]), ID: strings.TrimSpace(rec[2])}
		if len(rec) > 3 {
			t.Vocabulary = strings.TrimSpace(rec[3])
		}
		key := normalize(rec[0])
		s.Terms[key] = append(s.Terms[key], t)
	}
	return s, nil
}
