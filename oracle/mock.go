package oracle

import (
	"context"
	"sync"
)

// MockClient is a mock implementation of the Oracle interface for testing.
// It is safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	// Spy for Lookup
	LookupFunc func(ctx context.Context, q Query) (Result, error)

	// Call records
	LookupCalls []Query
}

// NewMockClient creates a new mock instance.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Reset clears all call records.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LookupCalls = nil
}

func (m *MockClient) Lookup(ctx context.Context, q Query) (Result, error) {
	m.mu.Lock()
	m.LookupCalls = append(m.LookupCalls, q)
	fn := m.LookupFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, q)
	}
	return Result{Verdict: VerdictNotFound}, nil
}

// Calls returns a copy of the recorded queries.
func (m *MockClient) Calls() []Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Query, len(m.LookupCalls))
	copy(out, m.LookupCalls)
	return out
}
