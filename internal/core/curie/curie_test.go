package curie

import (
	"testing"

	"github.com/agenthands/weft/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestSplitFirstSeparatorWins(t *testing.T) {
	cases := []struct {
		in            string
		prefix, local string
		ok            bool
	}{
		{"ECSO:00000512", "ECSO", "00000512", true},
		{"ECSO;00000512", "ECSO", "00000512", true},
		{"ENVTHES:c_1e2f:3", "ENVTHES", "c_1e2f:3", true},
		{"GEO;a:b;c", "GEO", "a:b;c", true},
		{"http://purl.obolibrary.org/obo/ENVO_00000447", "", "", false},
		{"urn:uuid:1234", "", "", false},
		{":orphan", "", "", false},
		{"dangling:", "", "", false},
		{"plain", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			prefix, local, ok := Split(c.in)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.prefix, prefix)
			assert.Equal(t, c.local, local)
		})
	}
}

func TestExpand(t *testing.T) {
	assert.Equal(t, "http://purl.obolibrary.org/obo/ENVO_00000447", Expand("ENVO:00000447"))
	assert.Equal(t, "http://purl.obolibrary.org/obo/ENVO_00000447", Expand("envo;00000447"))
	assert.Equal(t, "http://purl.dataone.org/odo/ECSO_00000512", Expand(" ECSO:00000512 "))
	assert.Equal(t, "FOO:bar:baz", Expand("foo;bar:baz"))
	assert.Equal(t, "http://example.org/x", Expand("http://example.org/x"))
	assert.Equal(t, "", Expand(""))
}

func TestDelimiterVariantsCompareEqual(t *testing.T) {
	a := Canonical(model.Pair{PredicateID: "OBOE:containsMeasurementsOfType", ObjectID: "ECSO:00000512"})
	b := Canonical(model.Pair{
		PredicateID: "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#containsMeasurementsOfType",
		ObjectID:    "ECSO;00000512",
	})
	assert.Equal(t, a, b)
}

func TestCompress(t *testing.T) {
	assert.Equal(t, "ENVO:00000447", Compress("http://purl.obolibrary.org/obo/ENVO_00000447"))
	assert.Equal(t, "UNIT:DEG_C", Compress("http://qudt.org/vocab/unit/DEG_C"))
	assert.Equal(t, "http://example.org/x", Compress("http://example.org/x"))
	assert.Equal(t, "ECSO:00000512", Compress(Expand("ECSO:00000512")))
}
