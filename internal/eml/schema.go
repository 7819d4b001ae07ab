package eml

import (
	"github.com/beevik/etree"

	"github.com/agenthands/weft/internal/core/model"
)

// AnnotationTag is the local name of EML semantic annotation elements.
const AnnotationTag = "annotation"

var entityGroup = []string{
	"alternateIdentifier", "entityName", "entityDescription", "physical",
	"coverage", "methods", "additionalInfo", AnnotationTag,
}

func entity(specific ...string) []string {
	return append(append([]string(nil), entityGroup...), specific...)
}

// childOrder lists, per parent kind, the EML 2.2 order of child kinds.
// Repeatable children share a rank.
var childOrder = map[string][]string{
	"dataset": {
		"alternateIdentifier", "shortName", "title", "creator", "metadataProvider",
		"associatedParty", "pubDate", "language", "series", "abstract", "keywordSet",
		"additionalInfo", "intellectualRights", "licensed", "distribution", "coverage",
		AnnotationTag, "purpose", "introduction", "gettingStarted", "acknowledgements",
		"maintenance", "contact", "publisher", "pubPlace", "methods", "project",
		"dataTable|spatialRaster|spatialVector|storedProcedure|view|otherEntity",
		"referencePublication|usageCitation", "literatureCited",
	},
	"attribute": {
		"attributeName", "attributeLabel", "attributeDefinition", "storageType",
		"measurementScale", "missingValueCode", "accuracy", "coverage", "methods",
		AnnotationTag,
	},
	"dataTable":   entity("attributeList", "constraint", "caseSensitive", "numberOfRecords"),
	"otherEntity": entity("entityType"),
	"spatialRaster": entity("attributeList", "constraint", "spatialReference",
		"georeferenceInfo", "horizontalAccuracy", "verticalAccuracy", "cellSizeXDirection",
		"cellSizeYDirection", "numberOfBands", "rasterOrigin", "rows", "columns",
		"verticals", "cellGeometry", "toneGradation", "scaleFactor", "offset",
		"imageDescription"),
	"spatialVector": entity("attributeList", "constraint", "geometry",
		"geometricObjectCount", "topologyLevel", "spatialReference",
		"horizontalAccuracy", "verticalAccuracy"),
	"storedProcedure": entity("attributeList", "constraint", "parameter"),
	"view":            entity("attributeList", "constraint", "queryStatement"),
}

var ranks = buildRanks()

func buildRanks() map[string]map[string]int {
	res := make(map[string]map[string]int, len(childOrder))
	for parent, order := range childOrder {
		m := make(map[string]int)
		for i, group := range order {
			for _, kind := range splitAlternatives(group) {
				m[kind] = i
			}
		}
		res[parent] = m
	}
	return res
}

func splitAlternatives(group string) []string {
	var res []string
	start := 0
	for i := 0; i <= len(group); i++ {
		if i == len(group) || group[i] == '|' {
			res = append(res, group[start:i])
			start = i + 1
		}
	}
	return res
}

// Annotatable reports whether kind may carry annotation children.
func Annotatable(kind string) bool {
	_, ok := ranks[kind][AnnotationTag]
	return ok
}

// InsertionIndex returns the child token index at which a new child of the
// given kind belongs: after the last child whose schema rank does not exceed
// the kind's rank. Children the schema table does not know are ignored.
func InsertionIndex(n Node, kind string) (int, error) {
	if kind == AnnotationTag {
		if err := CheckAnnotatable(n); err != nil {
			return 0, err
		}
	}
	table := ranks[n.Kind()]
	r, ok := table[kind]
	if !ok {
		return 0, &model.SchemaPositionError{Element: n.Kind(), Path: n.Path(), Reason: "<" + kind + "> is not a permitted child"}
	}

	var last, firstAfter *etree.Element
	for _, c := range n.ChildElements() {
		cr, known := table[c.Tag]
		if !known {
			continue
		}
		if cr <= r {
			last = c
		} else if firstAfter == nil {
			firstAfter = c
		}
	}
	switch {
	case last != nil:
		return last.Index() + 1, nil
	case firstAfter != nil:
		return firstAfter.Index(), nil
	default:
		return len(n.Element.Child), nil
	}
}

// CheckAnnotatable fails with a SchemaPositionError when n cannot hold
// annotation children.
func CheckAnnotatable(n Node) error {
	if !n.Valid() {
		return &model.SchemaPositionError{Reason: "no element"}
	}
	if !Annotatable(n.Kind()) {
		return &model.SchemaPositionError{Element: n.Kind(), Path: n.Path(), Reason: "element kind does not allow annotations"}
	}
	if _, isRef := n.Child("references"); isRef {
		return &model.SchemaPositionError{Element: n.Kind(), Path: n.Path(), Reason: "element is a references stub"}
	}
	return nil
}

// ValidateOrder checks that n's known children appear in schema order.
func ValidateOrder(n Node) error {
	table, ok := ranks[n.Kind()]
	if !ok {
		return nil
	}
	prev, prevTag := -1, ""
	for _, c := range n.ChildElements() {
		r, known := table[c.Tag]
		if !known {
			continue
		}
		if r < prev {
			return &model.SchemaPositionError{
				Element: n.Kind(),
				Path:    n.Path(),
				Reason:  "<" + c.Tag + "> must not follow <" + prevTag + ">",
			}
		}
		prev, prevTag = r, c.Tag
	}
	return nil
}

// Validate runs ValidateOrder over every element kind the schema table covers.
func (d *Document) Validate() error {
	var firstErr error
	walk(d.tree.Root(), func(e *etree.Element) {
		if firstErr != nil {
			return
		}
		firstErr = ValidateOrder(Node{e})
	})
	return firstErr
}
