package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Broker over Redis pub/sub channels.
type Redis struct {
	client *redis.Client
}

// ConnectRedis parses url, connects and pings.
func ConnectRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client}, nil
}

// NewRedisWithClient creates a broker from an existing client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Publish(ctx context.Context, topic string, data []byte) error {
	return r.client.Publish(ctx, topic, data).Err()
}

func (r *Redis) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := r.client.Subscribe(ctx, topic)
	// Wait for the subscription confirmation so no publish is missed after return.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s := &redisSub{ps: ps, topic: topic, ch: make(chan []byte, subscriberBuffer)}
	go s.pump()
	return s, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

type redisSub struct {
	ps    *redis.PubSub
	topic string
	ch    chan []byte
}

func (s *redisSub) pump() {
	defer close(s.ch)
	for msg := range s.ps.Channel() {
		select {
		case s.ch <- []byte(msg.Payload):
		default:
			slog.Warn("subscriber too slow, dropping update", "topic", s.topic)
		}
	}
}

func (s *redisSub) C() <-chan []byte { return s.ch }

func (s *redisSub) Unsubscribe() error {
	return s.ps.Close()
}
