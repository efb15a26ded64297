package publisher

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 64

// Memory is an in-process Broker for single-node deployments.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySub]struct{}
}

func NewMemory() *Memory {
	return &Memory{topics: make(map[string]map[*memorySub]struct{})}
}

func (m *Memory) Publish(_ context.Context, topic string, data []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for sub := range m.topics[topic] {
		select {
		case sub.ch <- data:
		default:
			slog.Warn("subscriber too slow, dropping update", "topic", topic)
		}
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, topic string) (Subscription, error) {
	sub := &memorySub{broker: m, topic: topic, ch: make(chan []byte, subscriberBuffer)}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.topics[topic] == nil {
		m.topics[topic] = make(map[*memorySub]struct{})
	}
	m.topics[topic][sub] = struct{}{}
	return sub, nil
}

// Close drops every subscription.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for topic, subs := range m.topics {
		for sub := range subs {
			close(sub.ch)
		}
		delete(m.topics, topic)
	}
	return nil
}

type memorySub struct {
	broker *Memory
	topic  string
	ch     chan []byte
}

func (s *memorySub) C() <-chan []byte { return s.ch }

func (s *memorySub) Unsubscribe() error {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	subs := s.broker.topics[s.topic]
	if _, ok := subs[s]; !ok {
		return nil
	}
	delete(subs, s)
	if len(subs) == 0 {
		delete(s.broker.topics, s.topic)
	}
	close(s.ch)
	return nil
}
