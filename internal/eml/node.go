package eml

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Node is a typed handle on an element of the document tree.
type Node struct {
	*etree.Element
}

// Valid reports whether the handle points at an element.
func (n Node) Valid() bool {
	return n.Element != nil
}

// Kind is the element's local name, e.g. "dataset" or "attribute".
func (n Node) Kind() string {
	return n.Tag
}

// ID returns the id attribute, or "" when absent.
func (n Node) ID() string {
	return n.SelectAttrValue("id", "")
}

// Children returns the element children in document order.
func (n Node) Children() []Node {
	els := n.ChildElements()
	res := make([]Node, len(els))
	for i, e := range els {
		res[i] = Node{e}
	}
	return res
}

// Child returns the first child element of the given kind.
func (n Node) Child(kind string) (Node, bool) {
	for _, c := range n.ChildElements() {
		if c.Tag == kind {
			return Node{c}, true
		}
	}
	return Node{}, false
}

// Descendants returns every descendant of the given kind in document order.
func (n Node) Descendants(kind string) []Node {
	var res []Node
	for _, c := range n.ChildElements() {
		walk(c, func(e *etree.Element) {
			if e.Tag == kind {
				res = append(res, Node{e})
			}
		})
	}
	return res
}

// Ancestor returns the nearest ancestor whose kind is one of kinds.
func (n Node) Ancestor(kinds ...string) (Node, bool) {
	for p := n.Parent(); p != nil; p = p.Parent() {
		for _, k := range kinds {
			if p.Tag == k {
				return Node{p}, true
			}
		}
	}
	return Node{}, false
}

// ChildText returns the trimmed text of the first child of the given kind.
func (n Node) ChildText(kind string) string {
	c, ok := n.Child(kind)
	if !ok {
		return ""
	}
	return c.Content()
}

// DescendantText returns the trimmed text of the first descendant of the
// given kind.
func (n Node) DescendantText(kind string) string {
	ds := n.Descendants(kind)
	if len(ds) == 0 {
		return ""
	}
	return ds[0].Content()
}

// Content flattens all character data below the element, collapsing runs of
// whitespace to single spaces.
func (n Node) Content() string {
	var b strings.Builder
	collectText(n.Element, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Path returns the absolute location of the element, with 1-based positions
// wherever siblings share a tag, e.g.
// /eml:eml/dataset/dataTable[2]/attributeList/attribute[5].
func (n Node) Path() string {
	var segs []string
	for e := n.Element; e != nil; e = e.Parent() {
		p := e.Parent()
		if p == nil || p.Parent() == nil && p.Tag == "" {
			segs = append(segs, e.FullTag())
			break
		}
		seg := e.FullTag()
		pos, total := 0, 0
		for _, s := range p.ChildElements() {
			if s.FullTag() != seg {
				continue
			}
			total++
			if s == e {
				pos = total
			}
		}
		if total > 1 {
			seg = fmt.Sprintf("%s[%d]", seg, pos)
		}
		segs = append(segs, seg)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return "/" + strings.Join(segs, "/")
}

func collectText(e *etree.Element, b *strings.Builder) {
	for _, t := range e.Child {
		switch v := t.(type) {
		case *etree.CharData:
			b.WriteString(v.Data)
			b.WriteByte(' ')
		case *etree.Element:
			collectText(v, b)
		}
	}
}
