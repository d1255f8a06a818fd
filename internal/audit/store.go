package audit

import (
	"context"

	"verilist/internal/domain"
)

// Store is the append-only decision history. No update or delete is exposed
// anywhere; corrections are modeled as new entries. All business validation
// happens in the decision service before Append is called.
type Store interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.AuditEntry, error)
	// ListAll returns every entry, newest decision first.
	ListAll(ctx context.Context) ([]domain.AuditEntry, error)
}
