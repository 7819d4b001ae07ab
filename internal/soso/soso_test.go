package soso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

const fixture = "../eml/testdata/knb-lter-kel.3.1.xml"

func loadFixture(t *testing.T) *eml.Document {
	t.Helper()
	doc, err := eml.LoadFile(fixture)
	require.NoError(t, err)
	return doc
}

func TestConvertFixture(t *testing.T) {
	doc := loadFixture(t)
	dataset, ok := doc.Root().Child("dataset")
	require.True(t, ok)
	_, err := eml.AddAnnotation(dataset, eml.Annotation{
		PropertyLabel: "is about",
		PropertyURI:   "http://purl.obolibrary.org/obo/IAO_0000136",
		ValueLabel:    "kelp forest",
		ValueURI:      "http://purl.obolibrary.org/obo/ENVO_01000059",
	})
	require.NoError(t, err)

	ds, err := NewConverter(nil).Convert(context.Background(), doc)
	require.NoError(t, err)

	landing := "https://portal.edirepository.org/nis/mapbrowse?identifier=3&revision=1&scope=knb-lter-kel"
	assert.Equal(t, landing, ds.ID)
	assert.Equal(t, landing, ds.URL)
	assert.Equal(t, "Kelp forest community surveys", ds.Name)
	assert.Equal(t, "Annual diver surveys of giant kelp and understory algae.", ds.Description)
	assert.Equal(t, "1", ds.Version)
	assert.True(t, ds.IsAccessibleForFree)
	assert.Nil(t, ds.Identifier)
	assert.Equal(t, &Ref{ID: DefaultProvider}, ds.Publisher)

	assert.Equal(t, []any{"kelp", "subtidal", DefinedTerm{
		Type:     "DefinedTerm",
		Name:     "kelp forest",
		TermCode: "ENVO:01000059",
		URL:      "http://purl.obolibrary.org/obo/ENVO_01000059",
	}}, ds.Keywords)
	assert.Equal(t, []Agent{{Type: "Person", ID: "https://orcid.org/0000-0002-1825-0097", Name: "Reed"}}, ds.Creator)

	assert.Equal(t, []Place{
		{Type: "Place", Description: "Santa Barbara Channel reefs", Geo: GeoShape{Type: "GeoShape", Box: "34 -120.5 34.5 -119.5"}},
		{Type: "Place", Description: "Mohawk reef transect", Geo: GeoCoordinates{Type: "GeoCoordinates", Latitude: 34.39, Longitude: -119.73}},
	}, ds.SpatialCoverage)

	require.Len(t, ds.VariableMeasured, 3)
	assert.Equal(t, PropertyValue{
		Type:        "PropertyValue",
		Name:        "TEMP",
		Description: "Bottom water temperature",
		PropertyID:  "http://purl.dataone.org/odo/ECSO_00001528",
		UnitText:    "celsius",
	}, ds.VariableMeasured[1])
	assert.Equal(t, "fathomsPerTide", ds.VariableMeasured[2].UnitText)
	assert.Empty(t, ds.VariableMeasured[0].PropertyID)

	require.NotNil(t, ds.SubjectOf)
	assert.Equal(t, "https://eml.ecoinformatics.org/eml-2.2.0", ds.SubjectOf.EncodingFormat)
	assert.Equal(t, "https://pasta.lternet.edu/package/metadata/eml/knb-lter-kel/3/1", ds.SubjectOf.ContentURL)

	data, err := Marshal(ds)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]any{"@vocab": "https://schema.org/"}, decoded["@context"])
	assert.Equal(t, "Dataset", decoded["@type"])
	assert.NotContains(t, decoded, "citation")
}

func TestConvertPolygonAndTemporalCoverage(t *testing.T) {
	doc, err := eml.ParseBytes([]byte(`<eml:eml xmlns:eml="https://eml.ecoinformatics.org/eml-2.2.0" packageId="edi.9.2">
	<dataset>
		<title>Lake</title>
		<creator><organizationName>Lake Lab</organizationName></creator>
		<coverage>
			<geographicCoverage>
				<geographicDescription>Lake outline</geographicDescription>
				<boundingCoordinates>
					<westBoundingCoordinate>1</westBoundingCoordinate><eastBoundingCoordinate>2</eastBoundingCoordinate>
					<northBoundingCoordinate>4</northBoundingCoordinate><southBoundingCoordinate>3</southBoundingCoordinate>
				</boundingCoordinates>
				<datasetGPolygon><datasetGPolygonOuterGRing><gRing>1,3 2,3 2,4</gRing></datasetGPolygonOuterGRing></datasetGPolygon>
			</geographicCoverage>
			<temporalCoverage><rangeOfDates>
				<beginDate><calendarDate>2001-05-01</calendarDate></beginDate>
				<endDate><calendarDate>2019-09-30</calendarDate></endDate>
			</rangeOfDates></temporalCoverage>
		</coverage>
	</dataset></eml:eml>`))
	require.NoError(t, err)

	ds, err := NewConverter(nil).Convert(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "2001-05-01/2019-09-30", ds.TemporalCoverage)
	assert.Equal(t, []Agent{{Type: "Organization", Name: "Lake Lab"}}, ds.Creator)
	require.Len(t, ds.SpatialCoverage, 1)
	assert.Equal(t, GeoShape{Type: "GeoShape", Polygon: "3 1 3 2 4 2 3 1"}, ds.SpatialCoverage[0].Geo)
}

func TestPolygonRejectsMalformedRing(t *testing.T) {
	_, ok := polygon("1 3 2 3 2 4")
	assert.False(t, ok)
	_, ok = polygon("1,3 2,3")
	assert.False(t, ok)
	ring, ok := polygon("1,3 2,3 2,4 1,3")
	require.True(t, ok)
	assert.Equal(t, "3 1 3 2 4 2 3 1", ring)
}

func TestConvertRejectsMalformedPackageID(t *testing.T) {
	doc, err := eml.ParseBytes([]byte(`<eml:eml packageId="edi.9"><dataset><title>x</title></dataset></eml:eml>`))
	require.NoError(t, err)
	_, err = NewConverter(nil).Convert(context.Background(), doc)
	assert.ErrorIs(t, err, model.ErrMalformedDocument)
}

func TestConvertLooksUpDOI(t *testing.T) {
	var accepts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accepts = append(accepts, r.Header.Get("Accept"))
		switch r.URL.Path {
		case "/package/doi/eml/knb-lter-kel/3/1":
			w.Write([]byte("doi:10.6073/pasta/abc123"))
		case "/10.6073/pasta/abc123":
			w.Write([]byte("Reed, D. (2024). Kelp forest community surveys.\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewConverter(nil)
	c.PastaURL, c.DOIURL, c.LookupDOI = srv.URL, srv.URL, true
	ds, err := c.Convert(context.Background(), loadFixture(t))
	require.NoError(t, err)

	require.NotNil(t, ds.Identifier)
	assert.Equal(t, srv.URL+"/10.6073/pasta/abc123", ds.Identifier.ID)
	assert.Equal(t, "10.6073/pasta/abc123", ds.Identifier.Value)
	assert.Equal(t, doiRegistry, ds.Identifier.PropertyID)
	assert.Equal(t, "Reed, D. (2024). Kelp forest community surveys.", ds.Citation)
	assert.Equal(t, []string{"text/plain", citationAccept}, accepts)
}

func TestConvertWithoutDOI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewConverter(nil)
	c.PastaURL, c.LookupDOI = srv.URL, true
	ds, err := c.Convert(context.Background(), loadFixture(t))
	require.NoError(t, err)
	assert.Nil(t, ds.Identifier)
	assert.Empty(t, ds.Citation)
}

func TestConvertDir(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "soso")
	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(in, "knb-lter-kel.3.1.xml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.xml"), []byte("<eml"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0o644))

	c := NewConverter(nil)
	written, failed, err := c.ConvertDir(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(out, "knb-lter-kel.3.1.json")}, written)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed["broken.xml"], model.ErrMalformedDocument)

	var ds map[string]any
	raw, err := os.ReadFile(written[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &ds))
	assert.Equal(t, "Kelp forest community surveys", ds["name"])

	// Existing outputs are left alone.
	written, _, err = c.ConvertDir(context.Background(), in, out)
	require.NoError(t, err)
	assert.Empty(t, written)
}
