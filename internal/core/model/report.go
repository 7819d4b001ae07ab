package model

import (
	"errors"
	"io/fs"
)

// Summary counts the status transitions of one resolution pass.
type Summary struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Ungrounded int `json:"ungrounded"`
	Skipped    int `json:"skipped"`
}

// Outcome is the batch result for a single document.
type Outcome struct {
	DocumentID string `json:"document_id"`
	OK         bool   `json:"ok"`
	Kind       string `json:"kind,omitempty"`
	Message    string `json:"message,omitempty"`
	Summary
}

// Report holds one outcome per input document, in input order.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
}

func (r *Report) Succeeded() []Outcome {
	var res []Outcome
	for _, o := range r.Outcomes {
		if o.OK {
			res = append(res, o)
		}
	}
	return res
}

func (r *Report) Failed() []Outcome {
	var res []Outcome
	for _, o := range r.Outcomes {
		if !o.OK {
			res = append(res, o)
		}
	}
	return res
}

// Lookup returns the outcome recorded for a document.
func (r *Report) Lookup(documentID string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.DocumentID == documentID {
			return o, true
		}
	}
	return Outcome{}, false
}

func isIOError(err error) bool {
	var pathErr *fs.PathError
	return errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}
