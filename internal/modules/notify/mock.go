package notify

import (
	"context"
	"sync"
)

type Mock struct {
	mu   sync.Mutex
	Sent []Event
	Err  error
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Notify(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, ev)
	return m.Err
}

func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
