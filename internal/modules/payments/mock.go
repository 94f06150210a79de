package payments

import (
	"context"
	"fmt"
	"sync"
)

// Mock is an in-memory Provider for tests and local development.
type Mock struct {
	mu      sync.Mutex
	counter int
	Created []CreateCheckoutInput
	Err     error

	// Sessions lets tests preload what RetrieveCheckoutSession returns.
	Sessions map[string]CheckoutSession
}

func NewMock() *Mock {
	return &Mock{Sessions: map[string]CheckoutSession{}}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) CreateCheckoutSession(ctx context.Context, in CreateCheckoutInput) (CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return CheckoutSession{}, m.Err
	}
	m.counter++
	m.Created = append(m.Created, in)
	cs := CheckoutSession{
		ID:     fmt.Sprintf("cs_mock_%03d", m.counter),
		URL:    fmt.Sprintf("https://checkout.mock.local/%03d", m.counter),
		Status: "open",
	}
	m.Sessions[cs.ID] = cs
	return cs, nil
}

func (m *Mock) RetrieveCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return CheckoutSession{}, m.Err
	}
	if cs, ok := m.Sessions[id]; ok {
		return cs, nil
	}
	return CheckoutSession{ID: id, URL: "https://checkout.mock.local/" + id, Status: "open"}, nil
}

func (m *Mock) VerifyWebhook(rawBody []byte, signatureHeader string) (Event, error) {
	if signatureHeader == "" {
		return Event{}, ErrBadSignature
	}
	return Event{ID: "evt_mock", Type: "checkout.session.completed", Raw: rawBody}, nil
}

// CreateCalls reports how many checkout sessions were created.
func (m *Mock) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created)
}
