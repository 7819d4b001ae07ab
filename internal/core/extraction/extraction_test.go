package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/core/terms"
	"github.com/agenthands/weft/internal/eml"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func loadFixture(t *testing.T) *eml.Document {
	t.Helper()
	doc, err := eml.LoadFile(filepath.Join("..", "..", "eml", "testdata", "knb-lter-kel.3.1.xml"))
	require.NoError(t, err)
	seq := 0
	doc.NewID = func() string {
		seq++
		return fmt.Sprintf("gen-%d", seq)
	}
	return doc
}

func lookupKinds(t *testing.T, names ...string) []model.Kind {
	t.Helper()
	var res []model.Kind
	for _, name := range names {
		k, err := model.LookupKind(name)
		require.NoError(t, err)
		res = append(res, k)
	}
	return res
}

func TestText(t *testing.T) {
	doc := loadFixture(t)
	ds := doc.Elements("dataset")[0]
	attr5, _ := doc.ByID("attr5")
	depth := doc.Elements("attribute")[2]

	assert.Equal(t, "Kelp forest community surveys. Annual diver surveys of giant kelp and understory algae. kelp, subtidal",
		Text(doc, ds, model.TextDescription))
	assert.Equal(t, "Kelp forest community surveys. Annual diver surveys of giant kelp and understory algae. kelp, subtidal. Santa Barbara Channel reefs. Mohawk reef transect",
		Text(doc, ds, model.TextEnvironment))
	assert.Equal(t, "TEMP. Bottom water temperature", Text(doc, attr5, model.TextDescription))
	assert.Equal(t, "celsius", Text(doc, attr5, model.TextUnit))
	assert.Equal(t, "fathomsPerTide", Text(doc, depth, model.TextUnit))
	assert.Empty(t, Text(doc, attr5, model.TextMethods))
}

func TestExtractorCandidates(t *testing.T) {
	doc := loadFixture(t)
	measurement := &MockResolver{Answers: map[string][]terms.Term{
		"TEMP. Bottom water temperature": {{Label: "water temperature", ID: "http://purl.dataone.org/odo/ECSO_00001528"}},
	}}
	unit := &MockResolver{Answers: map[string][]terms.Term{
		"celsius": {{Label: "Degree Celsius", ID: "http://qudt.org/vocab/unit/DEG_C"}},
	}}
	e := NewExtractor(lookupKinds(t, "attribute_measurement", "attribute_unit"), map[string]terms.Resolver{
		"attribute_measurement": measurement,
		"attribute_unit":        unit,
	}, nil)
	e.Author = "weft"
	e.Now = func() time.Time { return fixedNow }

	cands, err := e.Candidates(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 6)

	temp := cands[1]
	assert.Equal(t, model.ElementRef{ID: "attr5", Path: "/eml:eml/dataset/dataTable/attributeList/attribute[2]"}, temp.Ref)
	assert.Equal(t, "attribute", temp.Element)
	assert.Equal(t, "TEMP", temp.Subject)
	assert.Equal(t, "kelp_survey.csv", temp.Context)
	assert.Equal(t, "Bottom water temperature", temp.Description)
	assert.Equal(t, "contains measurements of type", temp.Predicate)
	assert.Equal(t, "water temperature", temp.Object)
	assert.Equal(t, "weft", temp.Source)
	assert.Equal(t, fixedNow, temp.Date)
	assert.True(t, temp.Grounded())

	// Misses are kept as ungrounded rows.
	assert.Equal(t, NoMatch, cands[0].Comment)
	assert.False(t, cands[0].Grounded())
	assert.Equal(t, "gen-1", cands[2].Ref.ID)
	assert.Equal(t, "no text to resolve", cands[3].Comment)
	assert.Equal(t, "http://qudt.org/vocab/unit/DEG_C", cands[4].ObjectID)
	assert.Equal(t, NoMatch, cands[5].Comment)

	// The unit of an attribute without one is never sent.
	assert.Equal(t, []string{"celsius", "fathomsPerTide"}, unit.Queries)
}

func TestExtractorPropagatesResolverErrors(t *testing.T) {
	doc := loadFixture(t)
	failing := &MockResolver{Err: fmt.Errorf("%w: timeout", model.ErrResolverUnavailable)}
	e := NewExtractor(lookupKinds(t, "dataset_is_about"), map[string]terms.Resolver{"dataset_is_about": failing}, nil)

	_, err := e.Candidates(context.Background(), doc)
	require.ErrorIs(t, err, model.ErrResolverUnavailable)
	assert.Equal(t, model.FailureResolver, model.FailureKind(err))
}

func TestExtractorNeedsResolverPerKind(t *testing.T) {
	e := NewExtractor(lookupKinds(t, "env_medium"), nil, nil)
	_, err := e.Candidates(context.Background(), loadFixture(t))
	assert.ErrorContains(t, err, "no resolver for kind env_medium")
}

func TestBlankCandidates(t *testing.T) {
	doc := loadFixture(t)
	b := &Blank{Kinds: lookupKinds(t, "dataset_is_about", "attribute_measurement"), Author: "curator", Now: func() time.Time { return fixedNow }}

	cands, err := b.Candidates(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 4)

	assert.Equal(t, "dataset", cands[0].Subject)
	assert.Equal(t, "knb-lter-kel.3.1", cands[0].Context)
	assert.Equal(t, "Kelp forest community surveys", cands[0].Description)
	assert.Equal(t, "gen-1", cands[0].Ref.ID)
	for _, c := range cands {
		assert.Empty(t, c.ObjectID)
		assert.Equal(t, "curator", c.Source)
	}
	// Ids assigned while listing are persisted in the document.
	ds, ok := doc.ByID("gen-1")
	require.True(t, ok)
	assert.Equal(t, "dataset", ds.Kind())
}

func TestWorkbookCandidates(t *testing.T) {
	doc := loadFixture(t)
	dir := t.TempDir()

	l := ledger.New("knb-lter-kel.3.1", "")
	l.Add(model.Candidate{Ref: model.ElementRef{ID: "attr5"}, PredicateID: "OBOE:containsMeasurementsOfType", ObjectID: "ECSO:00001528"})
	l.Add(model.Candidate{Ref: model.ElementRef{ID: "attr-site"}, PredicateID: "OBOE:containsMeasurementsOfType", ObjectID: "ECSO:00002565"})
	require.NoError(t, l.Mark(0, model.StatusRejectedDuplicate))
	require.NoError(t, l.WriteFile(WorkbookPath(dir, "knb-lter-kel.3.1")))

	cands, err := (&Workbook{Dir: dir}).Candidates(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "attr-site", cands[1].Ref.ID)
	assert.Equal(t, "ECSO:00002565", cands[1].ObjectID)

	other := t.TempDir()
	_, err = (&Workbook{Dir: other}).Candidates(context.Background(), doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	cands, err = (&Workbook{Dir: other, Optional: true}).Candidates(context.Background(), doc)
	require.NoError(t, err)
	assert.Empty(t, cands)
}
