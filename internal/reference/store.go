package reference

import (
	"context"

	"verilist/internal/domain"
)

// Store is the read-mostly Reference Directory of authoritative identity
// records. It only supports lookups and bulk seeding; records are sourced
// out-of-band.
type Store interface {
	// FindByIdentityNumbers locates a record whose identityNumberA equals a
	// OR whose identityNumberB equals b. Either identifier alone is enough
	// to locate a candidate; this tolerates partial data entry.
	FindByIdentityNumbers(ctx context.Context, a, b string) (domain.ReferenceRecord, error)
	Count(ctx context.Context) (int, error)
	// InsertIgnoreDuplicates inserts records, silently skipping any whose
	// identity numbers already exist.
	InsertIgnoreDuplicates(ctx context.Context, records []domain.ReferenceRecord) error
}
