// Package testutil provides a scriptable llm.Completer for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/kevinbrodzinski/nightlife/llm"
)

// MockLLMClient is a thread-safe llm.Completer that records every request.
//
// Replies come from, in order of precedence: Err, Handler, Responses in
// sequence, and finally an empty response.
//
//	mock := &MockLLMClient{
//	    Responses: []*llm.Response{
//	        {Content: `{"action":"ask_next","responseText":"What next?"}`},
//	    },
//	}
//
// Handler runs without the mock's lock held, so it may block on a channel
// to hold a reply back while the test sends a newer turn.
type MockLLMClient struct {
	mu            sync.Mutex
	Responses     []*llm.Response
	Err           error
	Handler       func(ctx context.Context, req llm.Request) (*llm.Response, error)
	requests      []llm.Request
	responseIndex int
}

// Reply returns a mock that answers every call with content.
func Reply(content string) *MockLLMClient {
	return &MockLLMClient{
		Handler: func(context.Context, llm.Request) (*llm.Response, error) {
			return &llm.Response{Content: content, Model: "test-model"}, nil
		},
	}
}

// Complete implements llm.Completer.
func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	err, handler := m.Err, m.Handler
	var resp *llm.Response
	if err == nil && handler == nil {
		if m.responseIndex < len(m.Responses) {
			resp = m.Responses[m.responseIndex]
			m.responseIndex++
		} else {
			resp = &llm.Response{Content: "", Model: "test-model"}
		}
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if handler != nil {
		return handler(ctx, req)
	}
	return resp, nil
}

// Requests returns a copy of every request received so far.
func (m *MockLLMClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// LastRequest returns the most recent request, or the zero value.
func (m *MockLLMClient) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return llm.Request{}
	}
	return m.requests[len(m.requests)-1]
}

// GetCallCount returns the number of times Complete() was called.
func (m *MockLLMClient) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset clears recorded requests and rewinds Responses.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.responseIndex = 0
}
