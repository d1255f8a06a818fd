package user

import (
	"context"

	"verilist/internal/domain"
)

// Store persists the user slice this subsystem owns: the verification status
// projection. The projection changes only inside Submit/Approve/Reject write
// units, never independently.
type Store interface {
	Create(ctx context.Context, user domain.User) error
	Get(ctx context.Context, userID string) (domain.User, error)
	SetVerificationStatus(ctx context.Context, userID string, status domain.UserVerificationStatus) error
}
