package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS is a Broker over core NATS subjects.
type NATS struct {
	nc *nats.Conn
}

// ConnectNATS dials url and keeps reconnecting in the background.
func ConnectNATS(url string) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("threadpages"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (n *NATS) Publish(_ context.Context, topic string, data []byte) error {
	return n.nc.Publish(topic, data)
}

func (n *NATS) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	sub, err := n.nc.SubscribeSync(topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &natsSub{sub: sub, cancel: cancel, ch: make(chan []byte, subscriberBuffer)}
	go s.pump(sctx)
	return s, nil
}

// Close drains subscriptions and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

type natsSub struct {
	sub    *nats.Subscription
	cancel context.CancelFunc
	ch     chan []byte
}

func (s *natsSub) pump(ctx context.Context) {
	defer close(s.ch)
	for {
		msg, err := s.sub.NextMsgWithContext(ctx)
		if err != nil {
			return
		}
		select {
		case s.ch <- msg.Data:
		default:
			slog.Warn("subscriber too slow, dropping update", "topic", s.sub.Subject)
		}
	}
}

func (s *natsSub) C() <-chan []byte { return s.ch }

func (s *natsSub) Unsubscribe() error {
	s.cancel()
	if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrBadSubscription) && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("unsubscribe %s: %w", s.sub.Subject, err)
	}
	return nil
}
