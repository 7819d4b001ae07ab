package model

import (
	"strings"
	"time"
)

// ElementRef identifies an annotatable element by its absolute path and,
// once assigned, its id attribute. The id wins when both are present.
type ElementRef struct {
	Path string `json:"element_xpath"`
	ID   string `json:"element_id"`
}

func (r ElementRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Path
}

// Key is the identity used to group rows by element.
func (r ElementRef) Key() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "path:" + r.Path
}

// UngroundedPrefix marks terms an extractor produced without a vocabulary
// match (OntoGPT convention, e.g. "AUTO:kelp%20forest").
const UngroundedPrefix = "AUTO:"

// Unannotatable is the default value identifier of the sentinel annotation
// marking an element that could not be annotated. Elements carrying it are
// skipped by later runs.
const Unannotatable = UngroundedPrefix + "unannotatable"

// Candidate is a suggested annotation for one element. Values are never
// mutated after the resolver returns them.
type Candidate struct {
	Ref         ElementRef `json:"ref"`
	Element     string     `json:"element"`
	Subject     string     `json:"subject,omitempty"`
	Context     string     `json:"context,omitempty"`
	Description string     `json:"description,omitempty"`
	Predicate   string     `json:"predicate,omitempty"`
	PredicateID string     `json:"predicate_id,omitempty"`
	Object      string     `json:"object,omitempty"`
	ObjectID    string     `json:"object_id,omitempty"`
	Source      string     `json:"author,omitempty"`
	Date        time.Time  `json:"date,omitempty"`
	Comment     string     `json:"comment,omitempty"`
}

// Grounded reports whether the candidate resolved to a concrete vocabulary
// identifier.
func (c Candidate) Grounded() bool {
	id := strings.TrimSpace(c.ObjectID)
	return id != "" && !IsUngroundedID(id)
}

// IsUngroundedID reports whether id carries the AUTO prefix, in any case and
// with either compact identifier separator.
func IsUngroundedID(id string) bool {
	prefix := strings.TrimSuffix(UngroundedPrefix, ":")
	id = strings.TrimSpace(id)
	if len(id) <= len(prefix) || !strings.EqualFold(id[:len(prefix)], prefix) {
		return false
	}
	return id[len(prefix)] == ':' || id[len(prefix)] == ';'
}

// Pair returns the (predicate identifier, object identifier) pair.
func (c Candidate) Pair() Pair {
	return Pair{PredicateID: strings.TrimSpace(c.PredicateID), ObjectID: strings.TrimSpace(c.ObjectID)}
}

// Pair is one entry of an element's existing annotation set.
type Pair struct {
	PredicateID string `json:"predicate_id"`
	ObjectID    string `json:"object_id"`
}

// Complete reports whether both halves of the pair are present.
func (p Pair) Complete() bool {
	return p.PredicateID != "" && p.ObjectID != ""
}

// Status is the workflow state of a ledger row.
type Status string

const (
	StatusPending            Status = "pending"
	StatusAccepted           Status = "accepted"
	StatusRejectedDuplicate  Status = "rejected-duplicate"
	StatusRejectedUngrounded Status = "rejected-ungrounded"
)

// ParseStatus maps a persisted status back to a Status. Unknown or empty
// values read as pending so that hand-edited workbooks re-enter resolution.
func ParseStatus(s string) Status {
	switch Status(strings.TrimSpace(s)) {
	case StatusAccepted:
		return StatusAccepted
	case StatusRejectedDuplicate:
		return StatusRejectedDuplicate
	case StatusRejectedUngrounded:
		return StatusRejectedUngrounded
	default:
		return StatusPending
	}
}

// Row is a candidate plus the workflow metadata the ledger tracks for it.
type Row struct {
	DocumentID string `json:"package_id"`
	URL        string `json:"url,omitempty"`
	Candidate
	Status Status `json:"status"`
}
