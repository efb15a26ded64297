package testutil

import (
	"context"
	"sync"
)

// PublishedUpdate records one Publish call.
type PublishedUpdate struct {
	ThreadID string
	Fragment string
}

// MockPublisher records publishes for assertions.
type MockPublisher struct {
	mu        sync.Mutex
	published []PublishedUpdate

	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, threadID, fragment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.published = append(m.published, PublishedUpdate{ThreadID: threadID, Fragment: fragment})
	return nil
}

// Published returns a copy of every successful publish so far.
func (m *MockPublisher) Published() []PublishedUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedUpdate, len(m.published))
	copy(out, m.published)
	return out
}
