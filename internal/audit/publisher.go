package audit

import (
	"context"

	"verilist/internal/domain"
	"verilist/pkg/requestcontext"
)

// Publisher captures audit entries. It stamps the decision time and client
// metadata when absent so services pass only what they decided.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, entry domain.AuditEntry) error {
	if entry.DecidedAt.IsZero() {
		entry.DecidedAt = requestcontext.Now(ctx)
	}
	if entry.ClientIP == "" {
		entry.ClientIP = requestcontext.ClientIP(ctx)
	}
	if entry.UserAgent == "" {
		entry.UserAgent = requestcontext.UserAgent(ctx)
	}
	return p.store.Append(ctx, entry)
}

func (p *Publisher) ListByRequest(ctx context.Context, requestID string) ([]domain.AuditEntry, error) {
	return p.store.ListByRequest(ctx, requestID)
}

func (p *Publisher) ListAll(ctx context.Context) ([]domain.AuditEntry, error) {
	return p.store.ListAll(ctx)
}
