package ledger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/model"
)

func candidate(id, object string) model.Candidate {
	return model.Candidate{
		Ref:         model.ElementRef{ID: id, Path: "/eml:eml/dataset/dataTable/attributeList/attribute[5]"},
		Element:     "attribute",
		Predicate:   "contains measurements of type",
		PredicateID: "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#containsMeasurementsOfType",
		Object:      "temperature",
		ObjectID:    object,
	}
}

func TestLedgerKeepsInsertionOrder(t *testing.T) {
	l := New("knb-lter-kel.3.1", "https://example.org/kel.3.1")

	assert.Equal(t, 0, l.Add(candidate("attr5", "ECSO:001")))
	assert.Equal(t, 1, l.Add(candidate("attr5", "ECSO:001")))
	assert.Equal(t, 2, l.Add(candidate("attr6", "")))
	assert.Equal(t, 3, l.Len())

	// Identical candidates are both kept.
	var objects []string
	for _, r := range l.Rows() {
		objects = append(objects, r.ObjectID)
		assert.Equal(t, model.StatusPending, r.Status)
		assert.Equal(t, "knb-lter-kel.3.1", r.DocumentID)
	}
	assert.Equal(t, []string{"ECSO:001", "ECSO:001", ""}, objects)

	// Restartable.
	n := 0
	for range l.Rows() {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestLedgerMarkAndFilter(t *testing.T) {
	l := New("doc", "")
	l.Add(candidate("a", "ECSO:001"))
	l.Add(candidate("a", "ECSO:002"))
	l.Add(candidate("b", ""))

	require.NoError(t, l.Mark(0, model.StatusRejectedDuplicate))
	require.NoError(t, l.Mark(1, model.StatusAccepted))
	require.NoError(t, l.Mark(2, model.StatusRejectedUngrounded))
	assert.Error(t, l.Mark(3, model.StatusAccepted))
	assert.Error(t, l.Mark(-1, model.StatusAccepted))

	var accepted []int
	for i := range l.RowsByStatus(model.StatusAccepted) {
		accepted = append(accepted, i)
	}
	assert.Equal(t, []int{1}, accepted)

	// Early break stops the sequence.
	seen := 0
	for range l.Rows() {
		seen++
		break
	}
	assert.Equal(t, 1, seen)

	assert.Equal(t, map[model.Status]int{
		model.StatusAccepted:           1,
		model.StatusRejectedDuplicate:  1,
		model.StatusRejectedUngrounded: 1,
	}, l.Counts())

	_, ok := l.Row(5)
	assert.False(t, ok)
}

func TestTSVRoundTrip(t *testing.T) {
	l := New("knb-lter-kel.3.1", "https://example.org/kel.3.1")
	c := candidate("attr5", "http://purl.dataone.org/odo/ECSO_00001528")
	c.Description = "Bottom water\ttemperature"
	c.Source = "bioportal"
	c.Date = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	l.Add(c)
	l.Add(candidate("attr6", ""))
	require.NoError(t, l.Mark(1, model.StatusRejectedUngrounded))

	var buf bytes.Buffer
	require.NoError(t, l.WriteTSV(&buf))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(Columns, "\t"), header)

	back, err := ReadTSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "knb-lter-kel.3.1", back.DocumentID)
	require.Equal(t, 2, back.Len())

	r0, _ := back.Row(0)
	assert.Equal(t, "Bottom water\ttemperature", r0.Description)
	assert.True(t, c.Date.Equal(r0.Date))
	assert.Equal(t, "attr5", r0.Ref.ID)
	assert.Equal(t, model.StatusPending, r0.Status)

	r1, _ := back.Row(1)
	assert.Equal(t, model.StatusRejectedUngrounded, r1.Status)
}

func TestWriteTSVCompactIDs(t *testing.T) {
	l := New("doc", "")
	l.Add(candidate("attr5", "http://purl.dataone.org/odo/ECSO_00001528"))

	var buf bytes.Buffer
	require.NoError(t, l.WriteTSV(&buf, WithCompactIDs()))
	assert.Contains(t, buf.String(), "\tOBOE:containsMeasurementsOfType\t")
	assert.Contains(t, buf.String(), "\tECSO:00001528\t")
}

func TestReadTSVHandEdited(t *testing.T) {
	// Reordered columns, a missing status column and an extra column.
	in := "element_id\tobject_id\tpredicate_id\tnotes\n" +
		"attr5\tECSO;00000512\tOBOE:containsMeasurementsOfType\tcurated\n"
	l, err := ReadTSV(strings.NewReader(in))
	require.NoError(t, err)

	r, ok := l.Row(0)
	require.True(t, ok)
	assert.Equal(t, "ECSO;00000512", r.ObjectID)
	assert.Equal(t, model.StatusPending, r.Status)

	_, err = ReadTSV(strings.NewReader("object_id\tstatus\n"))
	assert.Error(t, err)
	_, err = ReadTSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	l := New("doc", "")
	l.Add(candidate("attr5", "ECSO:001"))
	path := filepath.Join(t.TempDir(), "doc_annotation_workbook.tsv")

	require.NoError(t, l.WriteFile(path))
	back, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.tsv"))
	assert.Error(t, err)
}
