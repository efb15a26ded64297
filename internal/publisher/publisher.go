package publisher

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventContentUpdated is the event name carried by every page update.
const EventContentUpdated = "content-updated"

// Topic returns the broadcast topic for a thread's page.
func Topic(threadID string) string {
	return "page-" + threadID
}

// Update is the payload broadcast on a page topic.
type Update struct {
	Event      string `json:"event"`
	ThreadID   string `json:"thread_id"`
	NewContent string `json:"newContent"`
}

// Broker is a best-effort publish/subscribe transport.
type Broker interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

// Subscription delivers raw payloads until Unsubscribe, after which C is closed.
type Subscription interface {
	C() <-chan []byte
	Unsubscribe() error
}

// Publisher broadcasts new fragments to live viewers of a page.
type Publisher struct {
	broker Broker
}

func New(b Broker) *Publisher {
	return &Publisher{broker: b}
}

// Publish sends fragment on the thread's topic. Delivery is not guaranteed.
func (p *Publisher) Publish(ctx context.Context, threadID, fragment string) error {
	data, err := json.Marshal(Update{
		Event:      EventContentUpdated,
		ThreadID:   threadID,
		NewContent: fragment,
	})
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	topic := Topic(threadID)
	if err := p.broker.Publish(ctx, topic, data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
