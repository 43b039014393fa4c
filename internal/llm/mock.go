package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted answer. A non-nil Err is returned instead
// of a response.
type MockResponse struct {
	Content    json.RawMessage
	Usage      Usage
	StopReason string // "end" when empty
	Err        error
}

// MockProvider replays scripted responses in order. Once the script runs
// out every call fails with ErrProviderUnavailable, which the generation
// service treats like a dead vendor and answers from templates.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse

	// Calls and Sessions are appended on every Generate, in call order.
	Calls    []Request
	Sessions []string
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	m.Sessions = append(m.Sessions, SessionFrom(ctx))

	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{Provider: ProviderMock}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}

	stop := next.StopReason
	if stop == "" {
		stop = "end"
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: ProviderMock, StopReason: stop}, nil
}

func (m *MockProvider) ModelID() string { return ProviderMock }
func (m *MockProvider) Vendor() string  { return ProviderMock }

// Remaining reports how many scripted responses are still queued.
func (m *MockProvider) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
