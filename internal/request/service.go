package request

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verilist/internal/domain"
	"verilist/internal/platform/metrics"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/sentinel"
	"verilist/pkg/platform/tx"
	"verilist/pkg/requestcontext"
)

// Service owns the verification request lifecycle on the submission side:
// claim validation, the one-request-per-user rule, and the rejected→pending
// overwrite. Decisions live in the decision service.
type Service struct {
	store   Store
	users   user.Store
	cache   *user.CachedStatus
	txr     tx.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
	valid   *validator.Validate
	tracer  trace.Tracer
}

func NewService(store Store, users user.Store, cache *user.CachedStatus, txr tx.Runner, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		users:   users,
		cache:   cache,
		txr:     txr,
		logger:  logger,
		metrics: m,
		valid:   validator.New(),
		tracer:  otel.Tracer("verilist/request"),
	}
}

// Submit stores the lister's claims and moves their projection to pending.
// A pending or verified request blocks resubmission; a rejected request is
// overwritten in place so the one-request-per-user invariant holds.
func (s *Service) Submit(ctx context.Context, userID string, claims domain.Claims) (domain.VerificationRequest, error) {
	ctx, span := s.tracer.Start(ctx, "request.submit",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	claims = claims.Normalized()
	if err := s.valid.Struct(claims); err != nil {
		return domain.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeValidation, "missing or malformed claim fields")
	}

	var out domain.VerificationRequest
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.Get(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}

		now := requestcontext.Now(ctx)
		existing, err := s.store.GetByUser(ctx, userID)
		switch {
		case err == nil:
			if existing.Status != domain.StatusRejected {
				return dErrors.New(dErrors.CodeConflict, "a verification request is already pending or verified for this user")
			}
			out = applyClaims(existing, claims)
			out.SubmittedAt = now
			if err := s.store.Overwrite(ctx, out); err != nil {
				return translateWriteErr(err)
			}
		case errors.Is(err, sentinel.ErrNotFound):
			out = applyClaims(domain.VerificationRequest{
				ID:     uuid.NewString(),
				UserID: userID,
			}, claims)
			out.SubmittedAt = now
			if err := s.store.Create(ctx, out); err != nil {
				return translateWriteErr(err)
			}
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
		}

		if err := s.users.SetVerificationStatus(ctx, userID, domain.UserStatusPending); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verification status")
		}
		return nil
	})
	if err != nil {
		return domain.VerificationRequest{}, err
	}

	s.cache.Refresh(ctx, userID, domain.UserStatusPending)
	s.metrics.IncrementRequestsSubmitted()
	s.logger.InfoContext(ctx, "verification request submitted",
		"user_id", userID,
		"request_id", out.ID,
	)
	return out, nil
}

// GetByUser returns the user's request, or NotFound if they never submitted.
func (s *Service) GetByUser(ctx context.Context, userID string) (domain.VerificationRequest, error) {
	req, err := s.store.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.VerificationRequest{}, dErrors.New(dErrors.CodeNotFound, "no verification request for user")
		}
		return domain.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
	}
	return req, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.VerificationRequest, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.VerificationRequest{}, dErrors.New(dErrors.CodeNotFound, "verification request not found")
		}
		return domain.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
	}
	return req, nil
}

func (s *Service) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.VerificationRequest, error) {
	if !domain.ValidStatus(status) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter")
	}
	reqs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification requests")
	}
	return reqs, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.VerificationRequest, error) {
	reqs, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification requests")
	}
	return reqs, nil
}

// applyClaims writes the claim fields onto req and resets it to pending,
// clearing any prior decision fields.
func applyClaims(req domain.VerificationRequest, claims domain.Claims) domain.VerificationRequest {
	req.Name = claims.Name
	req.IdentityNumberA = claims.IdentityNumberA
	req.IdentityNumberB = claims.IdentityNumberB
	req.ContactPhone = claims.ContactPhone
	req.Address = claims.Address
	req.Status = domain.StatusPending
	req.PendingToken = nil
	req.RejectionReason = nil
	req.DecidedAt = nil
	return req
}

func translateWriteErr(err error) error {
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity number already registered to another lister")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification request")
}
