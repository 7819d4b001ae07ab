package eml

import (
	"github.com/beevik/etree"

	"github.com/agenthands/weft/internal/core/model"
)

// Annotation is a semantic annotation as stored in EML:
//
//	<annotation id="...">
//	  <propertyURI label="...">...</propertyURI>
//	  <valueURI label="...">...</valueURI>
//	</annotation>
type Annotation struct {
	ID            string
	References    string
	PropertyLabel string
	PropertyURI   string
	ValueLabel    string
	ValueURI      string
}

// Pair returns the (property, value) identifiers of the annotation.
func (a Annotation) Pair() model.Pair {
	return model.Pair{PredicateID: a.PropertyURI, ObjectID: a.ValueURI}
}

// Malformed reports whether either half of the pair is missing.
func (a Annotation) Malformed() bool {
	return !a.Pair().Complete()
}

// Annotations returns the annotations attached to n: its direct annotation
// children followed by root-level annotations that reference n's id.
func (d *Document) Annotations(n Node) []Annotation {
	var res []Annotation
	for _, c := range n.ChildElements() {
		if c.Tag == AnnotationTag {
			res = append(res, readAnnotation(c))
		}
	}
	id := n.ID()
	if id == "" {
		return res
	}
	root := d.tree.Root()
	for _, group := range root.ChildElements() {
		if group.Tag != "annotations" {
			continue
		}
		for _, c := range group.ChildElements() {
			if c.Tag == AnnotationTag && c.SelectAttrValue("references", "") == id {
				res = append(res, readAnnotation(c))
			}
		}
	}
	return res
}

func readAnnotation(e *etree.Element) Annotation {
	a := Annotation{
		ID:         e.SelectAttrValue("id", ""),
		References: e.SelectAttrValue("references", ""),
	}
	if p, ok := (Node{e}).Child("propertyURI"); ok {
		a.PropertyURI = p.Content()
		a.PropertyLabel = p.SelectAttrValue("label", "")
	}
	if v, ok := (Node{e}).Child("valueURI"); ok {
		a.ValueURI = v.Content()
		a.ValueLabel = v.SelectAttrValue("label", "")
	}
	return a
}

// NewAnnotationElement builds a detached annotation element.
func NewAnnotationElement(a Annotation) *etree.Element {
	e := etree.NewElement(AnnotationTag)
	if a.ID != "" {
		e.CreateAttr("id", a.ID)
	}
	if a.References != "" {
		e.CreateAttr("references", a.References)
	}
	p := e.CreateElement("propertyURI")
	p.CreateAttr("label", a.PropertyLabel)
	p.SetText(a.PropertyURI)
	v := e.CreateElement("valueURI")
	v.CreateAttr("label", a.ValueLabel)
	v.SetText(a.ValueURI)
	return e
}

// AddAnnotation inserts a as a child of n at its schema position and checks
// that the parent's child order is still valid.
func AddAnnotation(n Node, a Annotation) (Node, error) {
	idx, err := InsertionIndex(n, AnnotationTag)
	if err != nil {
		return Node{}, err
	}
	e := NewAnnotationElement(a)
	n.InsertChildAt(idx, e)
	if err := ValidateOrder(n); err != nil {
		n.RemoveChild(e)
		return Node{}, err
	}
	return Node{e}, nil
}
