package core

import (
	"context"
	"errors"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/eml"
)

type executedQuery struct {
	Query  string
	Params map[string]interface{}
}

type MockDriver struct {
	Executed   []executedQuery
	MockResult neo4j.EagerResult
	// FailOn makes queries equal to it return Err.
	FailOn string
	Err    error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil && (m.FailOn == "" || m.FailOn == query) {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

// ParamsOf returns the parameters of every execution of query.
func (m *MockDriver) ParamsOf(query string) []map[string]interface{} {
	var res []map[string]interface{}
	for _, e := range m.Executed {
		if e.Query == query {
			res = append(res, e.Params)
		}
	}
	return res
}

type MockEmbedder struct {
	Vector []float32
	Err    error
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

// MockSource returns fixed candidates per package id.
type MockSource struct {
	ByDocument map[string][]model.Candidate
	Err        error
}

func (m *MockSource) Candidates(ctx context.Context, doc *eml.Document) ([]model.Candidate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.ByDocument[doc.PackageID()], nil
}

// memoryJob serves a document from memory.
type memoryJob struct {
	name string
	src  string
}

func (j memoryJob) Name() string { return j.name }

func (j memoryJob) Load() (*eml.Document, error) {
	return eml.ParseBytes([]byte(j.src))
}

// memorySink collects written documents.
type memorySink struct {
	mu      sync.Mutex
	written map[string][]byte
	err     error
}

func (s *memorySink) Write(ctx context.Context, doc *eml.Document, res *Result) error {
	if s.err != nil {
		return s.err
	}
	out, err := doc.Serialize()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.written == nil {
		s.written = make(map[string][]byte)
	}
	s.written[res.Ledger.DocumentID] = out
	return nil
}

var errDiskFull = errors.New("disk full")
