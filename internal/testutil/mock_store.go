package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/threadpages/internal/store"
)

// MockStore is a thread-safe in-memory implementation of store.PageStore for testing.
type MockStore struct {
	mu sync.Mutex

	Pages map[string]store.Page

	CreateErr error
	AppendErr error
	GetErr    error
	PingErr   error

	createCalls int
	appendCalls int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Pages: make(map[string]store.Page),
	}
}

func (m *MockStore) GetPage(_ context.Context, threadID string) (store.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return store.Page{}, m.GetErr
	}
	p, ok := m.Pages[threadID]
	if !ok {
		return store.Page{}, store.ErrNotFound
	}
	return p, nil
}

func (m *MockStore) CreatePage(_ context.Context, threadID, fragment string) (store.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	now := time.Now().UTC()
	p, ok := m.Pages[threadID]
	if !ok {
		m.Pages[threadID] = store.Page{
			ThreadID:      threadID,
			Content:       fragment,
			FragmentCount: 1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return store.OutcomeCreated, nil
	}
	p.Content += fragment
	p.FragmentCount++
	p.UpdatedAt = now
	m.Pages[threadID] = p
	return store.OutcomeAlreadyExisted, nil
}

func (m *MockStore) AppendFragment(_ context.Context, threadID, fragment string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCalls++
	if m.AppendErr != nil {
		return false, m.AppendErr
	}
	p, ok := m.Pages[threadID]
	if !ok {
		return false, nil
	}
	p.Content += fragment
	p.FragmentCount++
	p.UpdatedAt = time.Now().UTC()
	m.Pages[threadID] = p
	return true, nil
}

func (m *MockStore) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PingErr
}

func (m *MockStore) Close() {}

// SetPage seeds a page for testing.
func (m *MockStore) SetPage(threadID, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.Pages[threadID] = store.Page{ThreadID: threadID, Content: content, FragmentCount: 1, CreatedAt: now, UpdatedAt: now}
}

// Content returns the stored content for a thread, or "" when absent.
func (m *MockStore) Content(threadID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pages[threadID].Content
}

// PageCount returns how many pages exist.
func (m *MockStore) PageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Pages)
}

// CreateCalls returns how many times CreatePage was called.
func (m *MockStore) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// AppendCalls returns how many times AppendFragment was called.
func (m *MockStore) AppendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendCalls
}
