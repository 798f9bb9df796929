package aiclient

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted Client for tests. When Block is set, Generate
// waits for the context to end and returns its error, which simulates a
// model that never answers.
type MockClient struct {
	Response string
	Err      error
	Delay    time.Duration
	Block    bool

	mu    sync.Mutex
	calls []Request
}

func (m *MockClient) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockClient) Close() error { return nil }

// Calls returns the requests received so far.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
