// Package providers contains test helpers shared by the provider and
// routing test suites: a scripted in-memory executor that stands in for the
// upstream completion API.
package providers

import (
	"context"
	"sync"

	"github.com/coderashed/cerebras-code-mcp/pkg/providers"
)

// Call records one invocation of the mock executor.
type Call struct {
	Model   string
	Request *providers.Request
}

// MockExecutor is a scripted providers.Executor for tests.
//
// Responses are consumed in FIFO order; once the script is exhausted the
// executor keeps returning the last configured response. With no script it
// returns DefaultText.
type MockExecutor struct {
	mu sync.Mutex

	// DefaultText is returned when no scripted response remains.
	DefaultText string

	script []response
	calls  []Call
}

type response struct {
	text string
	err  error
}

// NewMockExecutor returns an executor that always succeeds with text.
func NewMockExecutor(text string) *MockExecutor {
	return &MockExecutor{DefaultText: text}
}

// Respond appends a successful scripted response.
func (m *MockExecutor) Respond(text string) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, response{text: text})
	return m
}

// Fail appends a scripted error response.
func (m *MockExecutor) Fail(err error) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, response{err: err})
	return m
}

// Complete implements providers.Executor.
func (m *MockExecutor) Complete(_ context.Context, model string, req *providers.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Model: model, Request: req})

	if len(m.script) == 0 {
		return m.DefaultText, nil
	}

	next := m.script[0]
	if len(m.script) > 1 {
		m.script = m.script[1:]
	}
	return next.text, next.err
}

// Calls returns a copy of the recorded invocations.
func (m *MockExecutor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of invocations so far.
func (m *MockExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
