// Package curie normalizes compact identifiers (prefix:local) so that
// different spellings of the same term compare equal.
package curie

import (
	"sort"
	"strings"

	"github.com/agenthands/weft/internal/core/model"
)

// Separators recognized between prefix and local part. Only the first one
// found splits the identifier; local parts may contain either character.
const Separators = ":;"

// Prefixes maps known vocabulary prefixes to their IRI namespaces.
var Prefixes = map[string]string{
	"ENVO":    "http://purl.obolibrary.org/obo/ENVO_",
	"IAO":     "http://purl.obolibrary.org/obo/IAO_",
	"PATO":    "http://purl.obolibrary.org/obo/PATO_",
	"CHEBI":   "http://purl.obolibrary.org/obo/CHEBI_",
	"UO":      "http://purl.obolibrary.org/obo/UO_",
	"OBI":     "http://purl.obolibrary.org/obo/OBI_",
	"ECSO":    "http://purl.dataone.org/odo/ECSO_",
	"MIXS":    "https://w3id.org/mixs/",
	"UNIT":    "http://qudt.org/vocab/unit/",
	"OBOE":    "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#",
	"ENVTHES": "http://vocabs.lter-europe.net/EnvThes/",
}

// Split separates a compact identifier at its first separator. ok is false
// when id is not in prefix:local form or is already a full IRI.
func Split(id string) (prefix, local string, ok bool) {
	id = strings.TrimSpace(id)
	if isIRI(id) {
		return "", "", false
	}
	i := strings.IndexAny(id, Separators)
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// Expand returns the canonical form of id: the namespace IRI for known
// prefixes, "PREFIX:local" for unknown ones, and IRIs unchanged.
func Expand(id string) string {
	id = strings.TrimSpace(id)
	prefix, local, ok := Split(id)
	if !ok {
		return id
	}
	key := strings.ToUpper(prefix)
	if ns, found := Prefixes[key]; found {
		return ns + local
	}
	return key + ":" + local
}

// Compress is the inverse of Expand for known namespaces. Identifiers that do
// not fall in a known namespace are returned unchanged.
func Compress(iri string) string {
	iri = strings.TrimSpace(iri)
	best, bestNS := "", ""
	for prefix, ns := range Prefixes {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) && len(iri) > len(ns) {
			best, bestNS = prefix, ns
		}
	}
	if best == "" {
		return iri
	}
	return best + ":" + strings.TrimPrefix(iri, bestNS)
}

// Canonical normalizes both halves of a pair for comparison.
func Canonical(p model.Pair) model.Pair {
	return model.Pair{PredicateID: Expand(p.PredicateID), ObjectID: Expand(p.ObjectID)}
}

// PrefixNames lists the known prefixes in sorted order.
func PrefixNames() []string {
	names := make([]string, 0, len(Prefixes))
	for p := range Prefixes {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

func isIRI(id string) bool {
	if strings.Contains(id, "://") {
		return true
	}
	lower := strings.ToLower(id)
	return strings.HasPrefix(lower, "urn:") || strings.HasPrefix(lower, "mailto:")
}
