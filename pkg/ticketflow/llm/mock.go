package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Mock is a scripted Invoker for tests and offline wiring. Responses
// are returned in order; once exhausted, the last response repeats.
type Mock struct {
	mu        sync.Mutex
	responses []json.RawMessage
	errs      []error
	calls     []Request
}

// NewMock creates a mock invoker with the given scripted JSON responses.
func NewMock(responses ...string) *Mock {
	m := &Mock{}
	for _, r := range responses {
		m.responses = append(m.responses, json.RawMessage(r))
	}
	return m
}

// WithError scripts an error to be returned before the remaining
// responses. Errors are consumed first, in order.
func (m *Mock) WithError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return m
}

// Invoke implements Invoker.
func (m *Mock) Invoke(_ context.Context, req Request) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}

	if len(m.responses) == 0 {
		return nil, NewError("invoke", ErrUnparseable, false)
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

// CallCount returns the number of Invoke calls made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of all recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
