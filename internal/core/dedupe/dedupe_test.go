package dedupe

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/ledger"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

const (
	measures  = "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#containsMeasurementsOfType"
	usesMeth  = "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#usesMethod"
	attrFive  = "/eml:eml/dataset/dataTable/attributeList/attribute[2]"
	fixtureID = "knb-lter-test.5.1"
)

const fixture = `<?xml version="1.0" encoding="UTF-8"?>
<eml:eml xmlns:eml="https://eml.ecoinformatics.org/eml-2.2.0" packageId="knb-lter-test.5.1">
  <dataset>
    <title>Test</title>
    <dataTable id="tbl">
      <entityName>t</entityName>
      <attributeList>
        <attribute id="attr1">
          <attributeName>A</attributeName>
          <annotation>
            <propertyURI label="contains measurements of type">` + measures + `</propertyURI>
            <valueURI label=""></valueURI>
          </annotation>
        </attribute>
        <attribute id="attr5">
          <attributeName>B</attributeName>
          <annotation id="attr5.annotation.1">
            <propertyURI label="contains measurements of type">` + measures + `</propertyURI>
            <valueURI label="first">http://purl.dataone.org/odo/ECSO_001</valueURI>
          </annotation>
        </attribute>
        <attribute id="attr9">
          <attributeName>C</attributeName>
          <annotation>
            <propertyURI label="is about">http://purl.obolibrary.org/obo/IAO_0000136</propertyURI>
            <valueURI label="unannotatable">AUTO:unannotatable</valueURI>
          </annotation>
        </attribute>
      </attributeList>
    </dataTable>
  </dataset>
</eml:eml>`

func load(t *testing.T) *eml.Document {
	t.Helper()
	doc, err := eml.ParseBytes([]byte(fixture))
	require.NoError(t, err)
	return doc
}

func cand(id, predicateID, objectID string) model.Candidate {
	return model.Candidate{
		Ref:         model.ElementRef{ID: id},
		Element:     "attribute",
		PredicateID: predicateID,
		ObjectID:    objectID,
	}
}

func statuses(l *ledger.Ledger) []model.Status {
	var res []model.Status
	for _, r := range l.Rows() {
		res = append(res, r.Status)
	}
	return res
}

func TestResolveAttrFiveScenario(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr5", "OBOE:containsMeasurementsOfType", "ECSO:001"))
	l.Add(cand("attr5", "OBOE:containsMeasurementsOfType", "ECSO:002"))
	l.Add(cand("attr5", usesMeth, ""))

	summary, err := NewDeduplicator(nil).Resolve(doc, l)
	require.NoError(t, err)

	assert.Equal(t, []model.Status{
		model.StatusRejectedDuplicate,
		model.StatusAccepted,
		model.StatusRejectedUngrounded,
	}, statuses(l))
	assert.Equal(t, model.Summary{Accepted: 1, Duplicates: 1, Ungrounded: 1}, summary)
}

func TestResolveSeesAcceptedRowsInSamePass(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr5", measures, "ECSO:007"))
	l.Add(cand("attr5", measures, "ECSO;007"))
	// Same element addressed by path shares the pass state.
	l.Add(model.Candidate{Ref: model.ElementRef{Path: attrFive}, PredicateID: measures, ObjectID: "http://purl.dataone.org/odo/ECSO_007"})
	// Other elements are independent.
	l.Add(cand("attr1", measures, "ECSO:007"))

	_, err := NewDeduplicator(nil).Resolve(doc, l)
	require.NoError(t, err)

	assert.Equal(t, []model.Status{
		model.StatusAccepted,
		model.StatusRejectedDuplicate,
		model.StatusRejectedDuplicate,
		model.StatusAccepted,
	}, statuses(l))
}

func TestResolveUngrounded(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr1", measures, ""))
	l.Add(cand("attr1", measures, "AUTO:kelp%20forest"))
	l.Add(cand("attr1", "", "ECSO:001"))
	l.Add(cand("attr1", measures, "auto:kelp%20forest"))

	summary, err := NewDeduplicator(nil).Resolve(doc, l)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Ungrounded)
	assert.Zero(t, summary.Accepted)
}

func TestResolveMalformedExistingIsNonMatching(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr1", measures, "ECSO:001"))

	summary, err := NewDeduplicator(logger).Resolve(doc, l)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Accepted)
	assert.Contains(t, logs.String(), "malformed existing annotation")
}

func TestResolveSkipsSentineledElement(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr9", measures, "ECSO:001"))
	l.Add(cand("attr9", measures, ""))

	summary, err := NewDeduplicator(nil).Resolve(doc, l)
	require.NoError(t, err)
	assert.Equal(t, model.Summary{Skipped: 2}, summary)
	assert.Equal(t, []model.Status{model.StatusPending, model.StatusPending}, statuses(l))
}

func TestResolveUnknownElementMarksNothing(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr5", measures, "ECSO:002"))
	l.Add(cand("nope", measures, "ECSO:002"))

	_, err := NewDeduplicator(nil).Resolve(doc, l)
	require.ErrorIs(t, err, model.ErrUnknownElement)
	assert.Equal(t, model.FailureReference, model.FailureKind(err))
	assert.Equal(t, []model.Status{model.StatusPending, model.StatusPending}, statuses(l))
}

func TestResolveLeavesDecidedRows(t *testing.T) {
	doc := load(t)
	l := ledger.New(fixtureID, "")
	l.Add(cand("attr5", measures, "ECSO:002"))
	require.NoError(t, l.Mark(0, model.StatusRejectedDuplicate))
	l.Add(cand("attr5", measures, "ECSO:002"))

	summary, err := NewDeduplicator(nil).Resolve(doc, l)
	require.NoError(t, err)
	assert.Equal(t, []model.Status{model.StatusRejectedDuplicate, model.StatusAccepted}, statuses(l))
	assert.Equal(t, 1, summary.Accepted)
}
