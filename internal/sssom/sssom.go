// Package sssom writes SSSOM (Simple Standard for Sharing Ontological
// Mappings) templates for a SKOS vocabulary, seeded with one row per
// preferred label so curators can fill in the mapped objects.
package sssom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"gopkg.in/yaml.v3"
)

const (
	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	skosNS = "http://www.w3.org/2004/02/skos/core#"

	DataFile     = "lter.sssom.tsv"
	MetadataFile = "lter.sssom.yml"
)

// Columns is the SSSOM header, in order.
var Columns = []string{
	"subject_id", "subject_label", "predicate_id", "object_id", "object_label",
	"confidence", "comment", "mapping_justification", "mapping_date",
	"author_id", "subject_source_version", "object_source_version",
}

// Mapping is one SSSOM row. Fields left empty are for curators.
type Mapping struct {
	SubjectID            string
	SubjectLabel         string
	PredicateID          string
	ObjectID             string
	ObjectLabel          string
	Confidence           string
	Comment              string
	MappingJustification string
	MappingDate          string
	AuthorID             string
	SubjectSourceVersion string
	ObjectSourceVersion  string
}

func (m Mapping) record() []string {
	return []string{
		m.SubjectID, m.SubjectLabel, m.PredicateID, m.ObjectID, m.ObjectLabel,
		m.Confidence, m.Comment, m.MappingJustification, m.MappingDate,
		m.AuthorID, m.SubjectSourceVersion, m.ObjectSourceVersion,
	}
}

// MappingSet is the metadata file that accompanies the rows.
type MappingSet struct {
	MappingSetID          string            `yaml:"mapping_set_id"`
	License               string            `yaml:"license"`
	MappingSetVersion     string            `yaml:"mapping_set_version"`
	MappingSetDescription string            `yaml:"mapping_set_description"`
	ObjectSource          string            `yaml:"object_source"`
	SubjectSource         string            `yaml:"subject_source"`
	CurieMap              map[string]string `yaml:"curie_map"`
}

// FromSKOS reads an RDF/XML vocabulary and returns one mapping per
// skos:prefLabel of every described resource, in document order.
func FromSKOS(r io.Reader) ([]Mapping, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("vocabulary has no root element")
	}

	type pair struct{ subject, label string }
	seen := make(map[pair]bool)
	var res []Mapping
	var visit func(e *etree.Element)
	visit = func(e *etree.Element) {
		if subject := about(e); subject != "" {
			for _, c := range e.ChildElements() {
				if c.Tag != "prefLabel" || c.NamespaceURI() != skosNS {
					continue
				}
				p := pair{subject, c.Text()}
				if seen[p] {
					continue
				}
				seen[p] = true
				res = append(res, Mapping{SubjectID: p.subject, SubjectLabel: p.label})
			}
		}
		for _, c := range e.ChildElements() {
			visit(c)
		}
	}
	visit(doc.Root())
	return res, nil
}

func about(e *etree.Element) string {
	for _, a := range e.Attr {
		if a.Key == "about" && a.NamespaceURI() == rdfNS {
			return a.Value
		}
	}
	return ""
}

// WriteTSV writes the mappings with a header row.
func WriteTSV(w io.Writer, mappings []Mapping) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write sssom header: %w", err)
	}
	for _, m := range mappings {
		if err := cw.Write(m.record()); err != nil {
			return fmt.Errorf("failed to write sssom row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Files are the paths written by FromLTER.
type Files struct {
	Data     string
	Metadata string
}

// FromLTER writes the SSSOM template and metadata for the LTER controlled
// vocabulary at path into dir. Existing files are never overwritten.
func FromLTER(path, dir string, meta MappingSet) (Files, error) {
	files := Files{Data: filepath.Join(dir, DataFile), Metadata: filepath.Join(dir, MetadataFile)}
	for _, p := range []string{files.Data, files.Metadata} {
		if _, err := os.Stat(p); err == nil {
			return Files{}, fmt.Errorf("refusing to overwrite '%s': %w", p, os.ErrExist)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Files{}, fmt.Errorf("failed to open vocabulary '%s': %w", path, err)
	}
	defer f.Close()
	mappings, err := FromSKOS(f)
	if err != nil {
		return Files{}, fmt.Errorf("failed to read vocabulary '%s': %w", path, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("failed to create output directory '%s': %w", dir, err)
	}
	if err := create(files.Data, func(w io.Writer) error { return WriteTSV(w, mappings) }); err != nil {
		return Files{}, err
	}
	if meta.CurieMap == nil {
		meta.CurieMap = map[string]string{}
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return Files{}, fmt.Errorf("failed to encode mapping set metadata: %w", err)
	}
	if err := create(files.Metadata, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return Files{}, err
	}
	return files, nil
}

// create writes a new file at path and fails if it already exists.
func create(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close '%s': %w", path, err)
	}
	return nil
}
