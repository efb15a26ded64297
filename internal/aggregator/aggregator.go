package aggregator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/threadpages/internal/events"
	"github.com/MikeSquared-Agency/threadpages/internal/store"
)

// Aggregator folds fragments into per-thread pages. It keeps no state of its
// own; the store's single-statement writes make it safe to call concurrently.
type Aggregator struct {
	store store.PageStore
}

func New(s store.PageStore) *Aggregator {
	return &Aggregator{store: s}
}

// Apply persists fragment for evt. Root events take the create path; replies
// append, falling back to create when the thread has no page yet.
func (a *Aggregator) Apply(ctx context.Context, evt events.InboundEvent, fragment string) (store.Outcome, error) {
	threadID := evt.ThreadID()
	if threadID == "" {
		return 0, fmt.Errorf("event %s has no thread id", evt.EventID)
	}

	if !evt.IsRoot() {
		ok, err := a.store.AppendFragment(ctx, threadID, fragment)
		if err != nil {
			return 0, err
		}
		if ok {
			return store.OutcomeAppended, nil
		}
		slog.Info("reply for thread without page, creating it", "thread_id", threadID, "event_id", evt.EventID)
	}

	return a.store.CreatePage(ctx, threadID, fragment)
}
