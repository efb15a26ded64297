package ingester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/threadpages/internal/events"
	"github.com/MikeSquared-Agency/threadpages/internal/store"
)

var (
	// ErrPersistenceFailed means the event's fragment could not be stored and is lost.
	ErrPersistenceFailed = errors.New("ingester: persistence failed")
	// ErrPublishFailed means the fragment was stored but live viewers were not told.
	ErrPublishFailed = errors.New("ingester: publish failed")
)

// Generator turns message text into a markup fragment. It must not fail.
type Generator interface {
	Generate(ctx context.Context, text string) string
}

// Aggregator persists a fragment into its thread's page.
type Aggregator interface {
	Apply(ctx context.Context, evt events.InboundEvent, fragment string) (store.Outcome, error)
}

// Publisher broadcasts a stored fragment to live viewers.
type Publisher interface {
	Publish(ctx context.Context, threadID, fragment string) error
}

// Notifier is told when a thread gets its page.
type Notifier interface {
	NotifyPageCreated(ctx context.Context, channel, threadID string) error
}

// Result describes what happened to one qualifying event.
type Result struct {
	ThreadID  string
	Fragment  string
	Outcome   store.Outcome
	Published bool
	// Err is non-nil when persistence or publish failed. It never changes
	// the webhook acknowledgment.
	Err error
}

// Ingester runs qualifying events through generation, aggregation and publish.
type Ingester struct {
	gen      Generator
	agg      Aggregator
	pub      Publisher
	notifier Notifier
}

func New(gen Generator, agg Aggregator, pub Publisher) *Ingester {
	return &Ingester{gen: gen, agg: agg, pub: pub}
}

// SetNotifier registers a callback target for newly created pages.
func (ing *Ingester) SetNotifier(n Notifier) {
	ing.notifier = n
}

// Process handles one qualifying event. Failures are logged and reported in
// the Result; nothing here is retried.
func (ing *Ingester) Process(ctx context.Context, evt events.InboundEvent) Result {
	res := Result{ThreadID: evt.ThreadID()}
	log := slog.With("event_id", evt.EventID, "thread_id", res.ThreadID)

	res.Fragment = ing.gen.Generate(ctx, evt.Text)

	outcome, err := ing.agg.Apply(ctx, evt, res.Fragment)
	if err != nil {
		log.Error("failed to persist fragment, dropping it", "error", err)
		res.Err = fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		return res
	}
	res.Outcome = outcome
	log.Info("fragment stored", "outcome", outcome.String(), "bytes", len(res.Fragment))

	if err := ing.pub.Publish(ctx, res.ThreadID, res.Fragment); err != nil {
		log.Warn("failed to publish page update", "error", err)
		res.Err = fmt.Errorf("%w: %w", ErrPublishFailed, err)
	} else {
		res.Published = true
	}

	if outcome == store.OutcomeCreated && ing.notifier != nil {
		if err := ing.notifier.NotifyPageCreated(ctx, evt.OriginChannel, res.ThreadID); err != nil {
			log.Warn("failed to post page link to Slack", "error", err)
		}
	}

	return res
}
