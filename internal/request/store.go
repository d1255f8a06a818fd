package request

import (
	"context"

	"verilist/internal/domain"
)

// Store persists verification requests and enforces the request-level
// uniqueness invariants: at most one request per user, and each normalized
// identity number owned by at most one request, enforced by real constraints
// rather than pre-check-then-insert.
type Store interface {
	// Create inserts a new request. Returns sentinel.ErrConflict when the
	// user already has a request or an identity number is taken.
	Create(ctx context.Context, req domain.VerificationRequest) error
	// Overwrite replaces the claims and decision fields of an existing
	// request in place, keyed by ID. Used for resubmission after rejection;
	// identity-number uniqueness applies as for Create.
	Overwrite(ctx context.Context, req domain.VerificationRequest) error
	// TransitionFromPending applies the decision fields of req only when the
	// stored status is still pending (compare-and-set). Returns
	// sentinel.ErrInvalidState when the request was already decided.
	TransitionFromPending(ctx context.Context, req domain.VerificationRequest) error
	GetByUser(ctx context.Context, userID string) (domain.VerificationRequest, error)
	GetByID(ctx context.Context, id string) (domain.VerificationRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.VerificationRequest, error)
	ListAll(ctx context.Context) ([]domain.VerificationRequest, error)
}
