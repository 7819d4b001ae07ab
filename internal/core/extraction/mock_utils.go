package extraction

import (
	"context"
	"sync"

	"github.com/agenthands/weft/internal/core/terms"
)

// MockResolver answers from a map keyed by exact text and records every
// query.
type MockResolver struct {
	mu      sync.Mutex
	Answers map[string][]terms.Term
	Err     error
	Queries []string
}

func (m *MockResolver) Resolve(ctx context.Context, text string) ([]terms.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Answers[text], nil
}

// Calls returns the number of queries seen.
func (m *MockResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
