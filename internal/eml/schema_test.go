package eml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/model"
)

func TestAddAnnotationDatasetPosition(t *testing.T) {
	doc := loadFixture(t)
	ds := doc.Elements("dataset")[0]

	_, err := AddAnnotation(ds, Annotation{
		ID:            "ds.annotation.1",
		PropertyLabel: "is about",
		PropertyURI:   "http://purl.obolibrary.org/obo/IAO_0000136",
		ValueLabel:    "kelp forest",
		ValueURI:      "http://purl.obolibrary.org/obo/ENVO_01000059",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"title", "creator", "abstract", "keywordSet", "coverage",
		"annotation", "contact", "dataTable", "otherEntity",
	}, childKinds(ds))
	assert.NoError(t, doc.Validate())

	anns := doc.Annotations(ds)
	require.Len(t, anns, 1)
	assert.Equal(t, "ds.annotation.1", anns[0].ID)
	assert.Equal(t, "kelp forest", anns[0].ValueLabel)
}

func TestAddAnnotationAfterExistingAnnotation(t *testing.T) {
	doc := loadFixture(t)
	attr, ok := doc.ByID("attr5")
	require.True(t, ok)

	added, err := AddAnnotation(attr, Annotation{ID: "attr5.annotation.2", PropertyURI: "p", ValueURI: "v"})
	require.NoError(t, err)

	children := attr.Children()
	assert.Equal(t, "attr5.annotation.1", children[len(children)-2].ID())
	assert.Same(t, added.Element, children[len(children)-1].Element)
	assert.NoError(t, ValidateOrder(attr))
}

func TestAddAnnotationSkipsUnknownChildren(t *testing.T) {
	doc, err := ParseBytes([]byte(`<eml:eml xmlns:eml="x" packageId="p"><dataset>
		<title>t</title><custom>c</custom><coverage/><extra/><contact/><methods/>
	</dataset></eml:eml>`))
	require.NoError(t, err)
	ds := doc.Elements("dataset")[0]

	_, err = AddAnnotation(ds, Annotation{PropertyURI: "p", ValueURI: "v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "custom", "coverage", "annotation", "extra", "contact", "methods"}, childKinds(ds))
}

func TestAddAnnotationBeforeLaterSiblings(t *testing.T) {
	// Only children ranked after annotation are present.
	doc, err := ParseBytes([]byte(`<eml:eml packageId="p"><dataset><contact/><dataTable/></dataset></eml:eml>`))
	require.NoError(t, err)
	ds := doc.Elements("dataset")[0]

	_, err = AddAnnotation(ds, Annotation{PropertyURI: "p", ValueURI: "v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"annotation", "contact", "dataTable"}, childKinds(ds))
}

func TestAddAnnotationRejectsUnannotatable(t *testing.T) {
	doc, err := ParseBytes([]byte(`<eml:eml packageId="p"><dataset>
		<dataTable><attributeList><attribute><references>attr5</references></attribute></attributeList></dataTable>
	</dataset></eml:eml>`))
	require.NoError(t, err)

	var schemaErr *model.SchemaPositionError

	_, err = AddAnnotation(doc.Elements("attribute")[0], Annotation{PropertyURI: "p", ValueURI: "v"})
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "attribute", schemaErr.Element)

	_, err = AddAnnotation(doc.Elements("attributeList")[0], Annotation{PropertyURI: "p", ValueURI: "v"})
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, model.FailureSchema, model.FailureKind(err))

	assert.Empty(t, doc.Elements("annotation"))
}

func TestValidateOrderDetectsViolation(t *testing.T) {
	doc, err := ParseBytes([]byte(`<eml:eml packageId="p"><dataset><dataTable>
		<entityName>e</entityName>
		<attributeList><attribute><annotation/><attributeName>a</attributeName></attribute></attributeList>
	</dataTable></dataset></eml:eml>`))
	require.NoError(t, err)

	err = ValidateOrder(doc.Elements("attribute")[0])
	var schemaErr *model.SchemaPositionError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, schemaErr.Reason, "<attributeName> must not follow <annotation>")
	assert.Error(t, doc.Validate())

	assert.NoError(t, ValidateOrder(doc.Elements("dataTable")[0]))
}

func TestInsertionIndexUnknownKind(t *testing.T) {
	doc := loadFixture(t)
	_, err := InsertionIndex(doc.Elements("dataset")[0], "bogus")
	assert.Error(t, err)
	assert.True(t, Annotatable("spatialVector"))
	assert.False(t, Annotatable("physical"))
}

func TestInsertionIndexWithoutKnownChildren(t *testing.T) {
	doc, err := ParseBytes([]byte(`<eml:eml xmlns:eml="x" packageId="p"><dataset><dataTable><attributeList>
		<attribute id="empty"/><attribute id="odd"><custom/><other/></attribute>
	</attributeList></dataTable></dataset></eml:eml>`))
	require.NoError(t, err)

	empty, ok := doc.ByID("empty")
	require.True(t, ok)
	idx, err := InsertionIndex(empty, AnnotationTag)
	require.NoError(t, err)
	assert.Zero(t, idx)

	_, err = AddAnnotation(empty, Annotation{ID: "empty.annotation.1", PropertyURI: "p", ValueURI: "v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"annotation"}, childKinds(empty))

	odd, ok := doc.ByID("odd")
	require.True(t, ok)
	idx, err = InsertionIndex(odd, AnnotationTag)
	require.NoError(t, err)
	assert.Equal(t, len(odd.Element.Child), idx)

	_, err = AddAnnotation(odd, Annotation{ID: "odd.annotation.1", PropertyURI: "p", ValueURI: "v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"custom", "other", "annotation"}, childKinds(odd))
}
