package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no page exists for a thread.
var ErrNotFound = errors.New("store: page not found")

// Outcome tags what a write did to a thread's page.
type Outcome int

const (
	// OutcomeCreated means the write inserted the page.
	OutcomeCreated Outcome = iota + 1
	// OutcomeAlreadyExisted means a create found the page present and appended to it.
	OutcomeAlreadyExisted
	// OutcomeAppended means a reply was appended to an existing page.
	OutcomeAppended
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeAlreadyExisted:
		return "already_existed"
	case OutcomeAppended:
		return "appended"
	default:
		return "unknown"
	}
}

// Page is the accumulated document for one Slack thread.
type Page struct {
	ThreadID      string    `json:"thread_id"`
	Content       string    `json:"content"`
	FragmentCount int       `json:"fragment_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PageStore is the interface consumed by the aggregator and the API.
// Every write is a single statement so concurrent writers to one thread
// never lose a fragment.
type PageStore interface {
	// GetPage returns ErrNotFound when the thread has no page.
	GetPage(ctx context.Context, threadID string) (Page, error)
	// CreatePage inserts the page with fragment as its content, or appends
	// fragment when the page already exists.
	CreatePage(ctx context.Context, threadID, fragment string) (Outcome, error)
	// AppendFragment appends to an existing page and reports whether one existed.
	AppendFragment(ctx context.Context, threadID, fragment string) (bool, error)
	Ping(ctx context.Context) error
	Close()
}

// outcomeFromCount maps the fragment count returned by an upsert to its outcome.
func outcomeFromCount(n int) Outcome {
	if n == 1 {
		return OutcomeCreated
	}
	return OutcomeAlreadyExisted
}
