package tracker

import (
	"context"
	"fmt"
	"sync"
)

// Mock is an in-memory Client for tests.
type Mock struct {
	mu      sync.Mutex
	created []Issue
	err     error
}

// NewMock creates a mock tracker client.
func NewMock() *Mock {
	return &Mock{}
}

// FailWith makes every subsequent CreateIssue return err.
func (m *Mock) FailWith(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// CreateIssue implements Client.
func (m *Mock) CreateIssue(_ context.Context, issue Issue) (Created, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Created{}, m.err
	}
	if issue.Title == "" {
		return Created{}, ErrMissingTitle
	}

	m.created = append(m.created, issue)
	key := fmt.Sprintf("TICK-%d", len(m.created))
	return Created{Key: key, URL: "https://tracker.example/" + key}, nil
}

// CreatedIssues returns a copy of all issues created so far.
func (m *Mock) CreatedIssues() []Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Issue(nil), m.created...)
}
