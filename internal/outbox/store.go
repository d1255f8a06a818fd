package outbox

import (
	"context"
	"time"
)

// Event is one row awaiting publication. Payload is the JSON-encoded message
// body; AggregateID becomes the Kafka record key so events for one user stay
// ordered.
type Event struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Store is the transactional outbox: Insert joins the caller's transaction so
// an event exists exactly when the decision that produced it committed.
type Store interface {
	Insert(ctx context.Context, event Event) error
	ListUnpublished(ctx context.Context, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, ids []string) error
}
