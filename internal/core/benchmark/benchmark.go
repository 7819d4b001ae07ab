// Package benchmark compares annotated workbooks against a curated standard.
//
// Rows are grouped by (predicate, element) and each group's object terms are
// compared as sets: every term is matched to its most similar counterpart in
// the other set, and the matches are summarized as average and best scores
// alongside the Jaccard overlap of the identifiers.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agenthands/weft/internal/core/curie"
	"github.com/agenthands/weft/internal/core/ledger"
)

// DefaultVocabularies are the prefixes whose terms are scored.
var DefaultVocabularies = []string{"ENVO", "ECSO", "ENVTHES"}

// Term is one object of a workbook group.
type Term struct {
	ID    string
	Label string
}

// Key identifies a group of rows.
type Key struct {
	Predicate string
	Element   string
}

// Scores summarize one termset comparison. Scored is false when the sets
// could not be compared, in which case every score is zero.
type Scores struct {
	Scored       bool
	AverageScore float64
	BestScore    float64
	Jaccard      float64
}

// Result is the comparison of one group in one file.
type Result struct {
	StandardDir string
	TestDir     string
	File        string
	Key
	Standard []string
	Test     []string
	Scores
}

// Similarity scores two terms between 0 and 1.
type Similarity interface {
	Similarity(ctx context.Context, a, b Term) (float64, error)
}

// ExactMatch scores 1 for equal identifiers and 0 otherwise.
type ExactMatch struct{}

func (ExactMatch) Similarity(ctx context.Context, a, b Term) (float64, error) {
	if a.ID == b.ID {
		return 1, nil
	}
	return 0, nil
}

type Benchmark struct {
	Similarity   Similarity
	Vocabularies []string
	Logger       *slog.Logger
}

func NewBenchmark(sim Similarity, logger *slog.Logger) *Benchmark {
	if sim == nil {
		sim = ExactMatch{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Benchmark{Similarity: sim, Vocabularies: DefaultVocabularies, Logger: logger}
}

// Groups cleans a workbook for comparison and groups its object terms.
// Ungrounded rows are dropped, rows repeating an (element, object,
// identifier) triple are kept once, and identifiers are compacted.
func Groups(l *ledger.Ledger) map[Key][]Term {
	type triple struct{ element, object, id string }
	seen := make(map[triple]bool)
	res := make(map[Key][]Term)
	for _, r := range l.Rows() {
		if !r.Grounded() {
			continue
		}
		element := r.Ref.Path
		if element == "" {
			element = r.Ref.ID
		}
		t := triple{element, r.Object, r.ObjectID}
		if seen[t] {
			continue
		}
		seen[t] = true
		k := Key{Predicate: r.Predicate, Element: element}
		res[k] = append(res[k], Term{ID: curie.Compress(curie.Expand(r.ObjectID)), Label: r.Object})
	}
	return res
}

// Compare scores a test workbook against a standard one, one Result per
// group present in both. Results are ordered by predicate, then element.
func (b *Benchmark) Compare(ctx context.Context, standard, test *ledger.Ledger) ([]Result, error) {
	sg, tg := Groups(standard), Groups(test)
	keys := make([]Key, 0, len(sg))
	for k := range sg {
		if _, ok := tg[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Predicate != keys[j].Predicate {
			return keys[i].Predicate < keys[j].Predicate
		}
		return keys[i].Element < keys[j].Element
	})

	res := make([]Result, 0, len(keys))
	for _, k := range keys {
		scores, err := b.Termset(ctx, sg[k], tg[k])
		if err != nil {
			return nil, fmt.Errorf("failed to score %s on %s: %w", k.Predicate, k.Element, err)
		}
		res = append(res, Result{
			Key:      k,
			Standard: ids(sg[k]),
			Test:     ids(tg[k]),
			Scores:   scores,
		})
	}
	return res, nil
}

// Termset compares two term sets. Terms outside the configured vocabularies
// are ignored; sets without a vocabulary in common are not scored.
func (b *Benchmark) Termset(ctx context.Context, standard, test []Term) (Scores, error) {
	standard, test = b.supported(standard), b.supported(test)
	if len(standard) == 0 || len(test) == 0 {
		b.Logger.Debug("cannot score empty termsets")
		return Scores{}, nil
	}
	if !sharePrefix(standard, test) {
		b.Logger.Debug("termsets share no vocabulary", "standard", ids(standard), "test", ids(test))
		return Scores{}, nil
	}

	bestStandard := make([]float64, len(standard))
	bestTest := make([]float64, len(test))
	for i, s := range standard {
		for j, t := range test {
			v, err := b.Similarity.Similarity(ctx, s, t)
			if err != nil {
				return Scores{}, err
			}
			bestStandard[i] = max(bestStandard[i], v)
			bestTest[j] = max(bestTest[j], v)
		}
	}

	all := append(bestStandard, bestTest...)
	var sum, best float64
	for _, v := range all {
		sum += v
		best = max(best, v)
	}
	return Scores{
		Scored:       true,
		AverageScore: sum / float64(len(all)),
		BestScore:    best,
		Jaccard:      jaccard(standard, test),
	}, nil
}

func (b *Benchmark) supported(terms []Term) []Term {
	var res []Term
	for _, t := range terms {
		prefix, _, ok := curie.Split(t.ID)
		if !ok {
			continue
		}
		for _, v := range b.Vocabularies {
			if strings.EqualFold(prefix, v) {
				res = append(res, t)
				break
			}
		}
	}
	return res
}

func sharePrefix(a, b []Term) bool {
	prefixes := make(map[string]bool)
	for _, t := range a {
		p, _, _ := curie.Split(t.ID)
		prefixes[strings.ToUpper(p)] = true
	}
	for _, t := range b {
		p, _, _ := curie.Split(t.ID)
		if prefixes[strings.ToUpper(p)] {
			return true
		}
	}
	return false
}

func jaccard(a, b []Term) float64 {
	union := make(map[string]int)
	for _, t := range a {
		union[t.ID] |= 1
	}
	for _, t := range b {
		union[t.ID] |= 2
	}
	both := 0
	for _, v := range union {
		if v == 3 {
			both++
		}
	}
	return float64(both) / float64(len(union))
}

func ids(terms []Term) []string {
	res := make([]string, len(terms))
	for i, t := range terms {
		res[i] = t.ID
	}
	return res
}

// CompareDirs benchmarks every workbook in standardDir against the workbook
// of the same name in each test directory. Missing test workbooks are
// skipped.
func (b *Benchmark) CompareDirs(ctx context.Context, standardDir string, testDirs []string) ([]Result, error) {
	entries, err := os.ReadDir(standardDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read standard directory '%s': %w", standardDir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".tsv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	var res []Result
	for _, file := range files {
		standard, err := ledger.LoadFile(filepath.Join(standardDir, file))
		if err != nil {
			return nil, err
		}
		for _, dir := range testDirs {
			path := filepath.Join(dir, file)
			if _, err := os.Stat(path); err != nil {
				b.Logger.Debug("no matching test workbook", "path", path)
				continue
			}
			test, err := ledger.LoadFile(path)
			if err != nil {
				return nil, err
			}
			results, err := b.Compare(ctx, standard, test)
			if err != nil {
				return nil, fmt.Errorf("failed to compare %s: %w", file, err)
			}
			for i := range results {
				results[i].StandardDir, results[i].TestDir, results[i].File = standardDir, dir, file
			}
			res = append(res, results...)
		}
	}
	return res, nil
}
