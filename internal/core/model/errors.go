package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUngrounded and ErrDuplicate describe rejected candidates. They are
	// recorded as row statuses and never fail a document.
	ErrUngrounded = errors.New("ungrounded candidate")
	ErrDuplicate  = errors.New("duplicate candidate")

	// ErrMalformedAnnotation marks an existing annotation missing one half of
	// its pair. It is logged and treated as non-matching.
	ErrMalformedAnnotation = errors.New("malformed existing annotation")

	// ErrResolverUnavailable is returned when the term resolver cannot answer.
	ErrResolverUnavailable = errors.New("term resolver unavailable")

	// ErrMalformedDocument is returned when a document cannot be parsed.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrUnknownElement is returned when a ledger row refers to an element
	// the document does not contain.
	ErrUnknownElement = errors.New("unknown element reference")

	// ErrDuplicateDocument is returned for a batch input whose package id an
	// earlier input of the same batch already carries.
	ErrDuplicateDocument = errors.New("duplicate document id in batch")
)

// SchemaPositionError reports that an element's schema does not allow an
// annotation child where one is required.
type SchemaPositionError struct {
	Element string
	Path    string
	Reason  string
}

func (e *SchemaPositionError) Error() string {
	return fmt.Sprintf("schema does not permit annotation in <%s> at %s: %s", e.Element, e.Path, e.Reason)
}

// Failure kinds recorded in batch reports.
const (
	FailureParse     = "parse"
	FailureSchema    = "schema"
	FailureResolver  = "resolver"
	FailureReference = "reference"
	FailureIO        = "io"
	FailureInternal  = "internal"
)

// FailureKind classifies a document failure for the batch report.
func FailureKind(err error) string {
	var schemaErr *SchemaPositionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &schemaErr):
		return FailureSchema
	case errors.Is(err, ErrMalformedDocument):
		return FailureParse
	case errors.Is(err, ErrResolverUnavailable):
		return FailureResolver
	case errors.Is(err, ErrUnknownElement), errors.Is(err, ErrDuplicateDocument):
		return FailureReference
	case isIOError(err):
		return FailureIO
	default:
		return FailureInternal
	}
}
