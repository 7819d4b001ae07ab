// Package eml loads, queries and serializes Ecological Metadata Language
// documents.
//
// The tree is held by github.com/beevik/etree so that child order, comments
// and unrelated content survive a load/serialize round trip unchanged apart
// from indentation. Elements are exposed as typed Node handles; lookups go
// through Elements, Lookup and ByID rather than ad-hoc tree walks.
package eml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/agenthands/weft/internal/core/model"
)

// Document is a parsed EML document.
type Document struct {
	tree *etree.Document

	// NewID mints identifiers for elements that lack one.
	NewID func() string
}

// Parse reads an EML document. Unparsable input is reported as
// model.ErrMalformedDocument.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses an EML document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedDocument, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", model.ErrMalformedDocument)
	}
	return &Document{tree: tree, NewID: uuid.NewString}, nil
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read EML file '%s': %w", path, err)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EML file '%s': %w", path, err)
	}
	return doc, nil
}

// Serialize renders the document with two-space indentation.
func (d *Document) Serialize() ([]byte, error) {
	d.tree.Indent(2)
	var buf bytes.Buffer
	if _, err := d.tree.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	data, err := d.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write EML file '%s': %w", path, err)
	}
	return nil
}

// Copy returns an independent deep copy of the document.
func (d *Document) Copy() *Document {
	return &Document{tree: d.tree.Copy(), NewID: d.NewID}
}

// Root returns the document element.
func (d *Document) Root() Node {
	return Node{d.tree.Root()}
}

// PackageID returns the packageId attribute of the root element.
func (d *Document) PackageID() string {
	return d.tree.Root().SelectAttrValue("packageId", "")
}

const (
	portalProduction  = "https://portal.edirepository.org/nis/metadataviewer?packageid="
	portalStaging     = "https://portal-s.edirepository.org/nis/metadataviewer?packageid="
	portalDevelopment = "https://portal-d.edirepository.org/nis/metadataviewer?packageid="
)

// PackageURL links to the data package landing page in the given portal
// environment ("production", "staging" or "development").
func (d *Document) PackageURL(env string) string {
	base := portalProduction
	switch env {
	case "staging":
		base = portalStaging
	case "development":
		base = portalDevelopment
	}
	return base + d.PackageID()
}

// Elements returns every element whose local name is kind, in document order.
func (d *Document) Elements(kind string) []Node {
	var res []Node
	walk(d.tree.Root(), func(e *etree.Element) {
		if e.Tag == kind {
			res = append(res, Node{e})
		}
	})
	return res
}

// ByID finds the element carrying the given id attribute.
func (d *Document) ByID(id string) (Node, bool) {
	if id == "" {
		return Node{}, false
	}
	var found *etree.Element
	walk(d.tree.Root(), func(e *etree.Element) {
		if found == nil && e.SelectAttrValue("id", "") == id {
			found = e
		}
	})
	return Node{found}, found != nil
}

// Lookup resolves an absolute path as produced by Node.Path.
func (d *Document) Lookup(path string) (Node, bool) {
	segments := strings.Split(strings.TrimPrefix(strings.TrimSpace(path), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return Node{}, false
	}
	cur := d.tree.Root()
	name, pos, ok := parseSegment(segments[0])
	if !ok || name != cur.FullTag() || pos > 1 {
		return Node{}, false
	}
	for _, seg := range segments[1:] {
		name, pos, ok := parseSegment(seg)
		if !ok {
			return Node{}, false
		}
		var next *etree.Element
		n := 0
		for _, c := range cur.ChildElements() {
			if c.FullTag() != name {
				continue
			}
			n++
			if n == pos {
				next = c
				break
			}
		}
		if next == nil {
			return Node{}, false
		}
		cur = next
	}
	return Node{cur}, true
}

// Resolve finds the element a reference points to, preferring its id.
func (d *Document) Resolve(ref model.ElementRef) (Node, bool) {
	if n, ok := d.ByID(ref.ID); ok {
		return n, true
	}
	if ref.Path == "" {
		return Node{}, false
	}
	return d.Lookup(ref.Path)
}

// EnsureID returns the element's id, assigning a fresh one when absent.
func (d *Document) EnsureID(n Node) string {
	if id := n.ID(); id != "" {
		return id
	}
	newID := d.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	id := newID()
	n.CreateAttr("id", id)
	return id
}

// Ref builds the reference for an element, assigning an id if needed.
func (d *Document) Ref(n Node) model.ElementRef {
	return model.ElementRef{Path: n.Path(), ID: d.EnsureID(n)}
}

// IDs returns every id attribute value in the document.
func (d *Document) IDs() map[string]struct{} {
	ids := make(map[string]struct{})
	walk(d.tree.Root(), func(e *etree.Element) {
		if id := e.SelectAttrValue("id", ""); id != "" {
			ids[id] = struct{}{}
		}
	})
	return ids
}

func parseSegment(seg string) (name string, pos int, ok bool) {
	pos = 1
	if i := strings.IndexByte(seg, '['); i >= 0 {
		if !strings.HasSuffix(seg, "]") {
			return "", 0, false
		}
		n, err := strconv.Atoi(seg[i+1 : len(seg)-1])
		if err != nil || n < 1 {
			return "", 0, false
		}
		seg, pos = seg[:i], n
	}
	return seg, pos, seg != ""
}

func walk(e *etree.Element, fn func(*etree.Element)) {
	if e == nil {
		return
	}
	fn(e)
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}
