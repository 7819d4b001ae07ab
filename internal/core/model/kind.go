package model

import (
	"fmt"
	"sort"
)

// TextSource selects which part of an element is sent to the term resolver.
type TextSource string

const (
	TextDescription TextSource = "description"
	TextEnvironment TextSource = "environment"
	TextUnit        TextSource = "unit"
	TextMethods     TextSource = "methods"
)

// Resolver backends a kind can be bound to.
const (
	BackendBioPortal = "bioportal"
	BackendLLM       = "llm"
	BackendUnits     = "units"
	BackendStatic    = "static"
)

// Kind parameterizes one supported annotation: which element it targets,
// which predicate it asserts and which vocabulary answers it.
type Kind struct {
	Name        string
	Element     string
	Predicate   string
	PredicateID string
	Vocabulary  string
	IDPrefixes  []string
	Text        TextSource
	Backend     string
}

const (
	oboeCore = "http://ecoinformatics.org/oboe/oboe.1.2/oboe-core.owl#"
	mixs     = "https://w3id.org/mixs/"
)

var kinds = map[string]Kind{
	"dataset_is_about": {
		Name:        "dataset_is_about",
		Element:     "dataset",
		Predicate:   "is about",
		PredicateID: "http://purl.obolibrary.org/obo/IAO_0000136",
		Vocabulary:  "ENVO",
		IDPrefixes:  []string{"ENVO"},
		Text:        TextDescription,
		Backend:     BackendBioPortal,
	},
	"env_broad_scale": {
		Name:        "env_broad_scale",
		Element:     "dataset",
		Predicate:   "env_broad_scale",
		PredicateID: mixs + "0000012",
		Vocabulary:  "ENVO",
		IDPrefixes:  []string{"ENVO"},
		Text:        TextEnvironment,
		Backend:     BackendLLM,
	},
	"env_local_scale": {
		Name:        "env_local_scale",
		Element:     "dataset",
		Predicate:   "env_local_scale",
		PredicateID: mixs + "0000013",
		Vocabulary:  "ENVO",
		IDPrefixes:  []string{"ENVO"},
		Text:        TextEnvironment,
		Backend:     BackendLLM,
	},
	"env_medium": {
		Name:        "env_medium",
		Element:     "dataset",
		Predicate:   "env_medium",
		PredicateID: mixs + "0000014",
		Vocabulary:  "ENVO",
		IDPrefixes:  []string{"ENVO"},
		Text:        TextEnvironment,
		Backend:     BackendLLM,
	},
	"attribute_measurement": {
		Name:        "attribute_measurement",
		Element:     "attribute",
		Predicate:   "contains measurements of type",
		PredicateID: oboeCore + "containsMeasurementsOfType",
		Vocabulary:  "ECSO",
		IDPrefixes:  []string{"ECSO"},
		Text:        TextDescription,
		Backend:     BackendBioPortal,
	},
	"attribute_unit": {
		Name:        "attribute_unit",
		Element:     "attribute",
		Predicate:   "uses standard",
		PredicateID: oboeCore + "usesStandard",
		Vocabulary:  "QUDT",
		IDPrefixes:  []string{"UNIT", "QUDT"},
		Text:        TextUnit,
		Backend:     BackendUnits,
	},
	"attribute_method": {
		Name:        "attribute_method",
		Element:     "attribute",
		Predicate:   "uses method",
		PredicateID: oboeCore + "usesMethod",
		Vocabulary:  "ECSO",
		IDPrefixes:  []string{"ECSO"},
		Text:        TextMethods,
		Backend:     BackendLLM,
	},
}

// LookupKind returns the kind registered under name.
func LookupKind(name string) (Kind, error) {
	k, ok := kinds[name]
	if !ok {
		return Kind{}, fmt.Errorf("unknown annotation kind: %s", name)
	}
	k.IDPrefixes = append([]string(nil), k.IDPrefixes...)
	return k, nil
}

// KindNames lists the registered kinds in sorted order.
func KindNames() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultKinds is the set annotated when configuration names none.
func DefaultKinds() []string {
	return []string{"dataset_is_about", "attribute_measurement", "attribute_unit"}
}
