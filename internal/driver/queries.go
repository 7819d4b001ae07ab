package driver

const (
	SaveDatasetQuery = `
		MERGE (d:Dataset {package_id: $package_id})
		SET d.url = $url,
			d.title = $title,
			d.updated_at = $updated_at
		RETURN d.package_id AS package_id
	`

	SaveElementQuery = `
		MATCH (d:Dataset {package_id: $package_id})
		MERGE (e:Element {package_id: $package_id, element_id: $element_id})
		SET e.kind = $kind,
			e.path = $path,
			e.subject = $subject
		MERGE (d)-[:HAS_ELEMENT]->(e)
		RETURN e.element_id AS element_id
	`

	SaveTermQuery = `
		MERGE (t:Term {iri: $iri})
		SET t.label = $label,
			t.vocabulary = $vocabulary,
			t.label_embedding = coalesce($label_embedding, t.label_embedding)
		RETURN t.iri AS iri
	`

	SaveAnnotationEdgeQuery = `
		MATCH (e:Element {package_id: $package_id, element_id: $element_id})
		MATCH (t:Term {iri: $iri})
		MERGE (e)-[a:ANNOTATED {predicate_iri: $predicate_iri}]->(t)
		SET a.predicate = $predicate,
			a.annotation_id = $annotation_id,
			a.source = $source,
			a.created_at = $created_at
		RETURN a.annotation_id AS annotation_id
	`

	DatasetTermsQuery = `
		MATCH (:Dataset {package_id: $package_id})-[:HAS_ELEMENT]->(e:Element)-[a:ANNOTATED]->(t:Term)
		RETURN e.element_id AS element_id, a.predicate_iri AS predicate_iri, t.iri AS iri
		ORDER BY element_id, iri
	`

	DeleteDatasetQuery = `
		MATCH (d:Dataset {package_id: $package_id})
		OPTIONAL MATCH (d)-[:HAS_ELEMENT]->(e:Element)
		DETACH DELETE e, d
	`
)

var indexQueries = []string{
	"CREATE INDEX ON :Dataset(package_id);",
	"CREATE INDEX ON :Element(package_id);",
	"CREATE INDEX ON :Element(element_id);",
	"CREATE INDEX ON :Term(iri);",
}
