package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"verilist/internal/audit"
	"verilist/internal/decision/metrics"
	"verilist/internal/domain"
	"verilist/internal/outbox"
	"verilist/internal/reference"
	"verilist/internal/request"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/sentinel"
	"verilist/pkg/platform/tx"
	"verilist/pkg/requestcontext"
)

const defaultRejectReason = "rejected by reviewer"

// Outcome bundles what a committed decision produced.
type Outcome struct {
	Request domain.VerificationRequest `json:"request"`
	Audit   domain.AuditEntry          `json:"audit"`
}

// Service decides pending verification requests. Every decision commits the
// request transition, the audit entry, the projection update and the
// notification event as one transaction, so a request can never point at a
// missing audit entry or a stale projection.
type Service struct {
	requests request.Store
	refs     reference.Store
	users    user.Store
	cache    *user.CachedStatus
	auditor  *audit.Publisher
	events   outbox.Store
	txr      tx.Runner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(
	requests request.Store,
	refs reference.Store,
	users user.Store,
	cache *user.CachedStatus,
	auditor *audit.Publisher,
	events outbox.Store,
	txr tx.Runner,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		requests: requests,
		refs:     refs,
		users:    users,
		cache:    cache,
		auditor:  auditor,
		events:   events,
		txr:      txr,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("verilist/decision"),
	}
}

// Approve verifies a pending request against the Reference Directory.
// The request's identity numbers locate a reference record (either number
// alone is sufficient); without one the decision fails NotFound and the
// request stays pending.
func (s *Service) Approve(ctx context.Context, requestID, reviewerID string) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "decision.approve",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()
	start := time.Now()

	var out Outcome
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.loadPending(ctx, requestID)
		if err != nil {
			return err
		}

		ref, err := s.refs.FindByIdentityNumbers(ctx, req.IdentityNumberA, req.IdentityNumberB)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no authoritative record for the submitted identity numbers")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to query reference directory")
		}
		report := Compare(&req, &ref)

		now := requestcontext.Now(ctx)
		req.Status = domain.StatusVerified
		req.PendingToken = nil
		req.RejectionReason = nil
		req.DecidedAt = &now

		entry := domain.AuditEntry{
			ID:                   uuid.NewString(),
			RequestID:            req.ID,
			ReviewerID:           &reviewerID,
			Action:               domain.ActionVerified,
			MatchedFields:        report,
			ReferenceRecordFound: true,
			DecidedAt:            now,
		}
		if err := s.commit(ctx, req, entry, domain.UserStatusVerified); err != nil {
			return err
		}
		out = Outcome{Request: req, Audit: entry}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	s.cache.Refresh(ctx, out.Request.UserID, domain.UserStatusVerified)
	s.metrics.RecordDecision("verified")
	s.metrics.ObserveLatency(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "verification request approved",
		"request_id", requestID,
		"user_id", out.Request.UserID,
		"reviewer_id", reviewerID,
	)
	return out, nil
}

// Reject declines a pending request. A fresh pendingToken is issued as a
// human-facing correlation handle for support follow-up.
func (s *Service) Reject(ctx context.Context, requestID, reviewerID, reason string) (Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "decision.reject",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer span.End()
	start := time.Now()

	if reason == "" {
		reason = defaultRejectReason
	}

	var out Outcome
	err := s.txr.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.loadPending(ctx, requestID)
		if err != nil {
			return err
		}

		now := requestcontext.Now(ctx)
		token := uuid.NewString()
		req.Status = domain.StatusRejected
		req.PendingToken = &token
		req.RejectionReason = &reason
		req.DecidedAt = nil

		entry := domain.AuditEntry{
			ID:                   uuid.NewString(),
			RequestID:            req.ID,
			ReviewerID:           &reviewerID,
			Action:               domain.ActionRejected,
			Reason:               reason,
			ReferenceRecordFound: false,
			DecidedAt:            now,
		}
		if err := s.commit(ctx, req, entry, domain.UserStatusRejected); err != nil {
			return err
		}
		out = Outcome{Request: req, Audit: entry}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	s.cache.Refresh(ctx, out.Request.UserID, domain.UserStatusRejected)
	s.metrics.RecordDecision("rejected")
	s.metrics.ObserveLatency(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "verification request rejected",
		"request_id", requestID,
		"user_id", out.Request.UserID,
		"reviewer_id", reviewerID,
		"reason", reason,
	)
	return out, nil
}

// loadPending fetches the request and rejects the decision up front when it
// already left pending. The store's compare-and-set still guards the racing
// case where a concurrent decision lands between this read and the write.
func (s *Service) loadPending(ctx context.Context, requestID string) (domain.VerificationRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.VerificationRequest{}, dErrors.New(dErrors.CodeNotFound, "verification request not found")
		}
		return domain.VerificationRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification request")
	}
	if !CanDecide(req.Status) {
		return domain.VerificationRequest{}, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("request is already %s", req.Status))
	}
	return req, nil
}

// commit applies the three decision writes plus the outbox insert inside the
// ambient transaction.
func (s *Service) commit(ctx context.Context, req domain.VerificationRequest, entry domain.AuditEntry, status domain.UserVerificationStatus) error {
	if err := s.requests.TransitionFromPending(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeInvalidState, "request was decided concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply decision")
	}
	if err := s.auditor.Emit(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}
	if err := s.users.SetVerificationStatus(ctx, req.UserID, status); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verification status")
	}
	if err := s.enqueueNotification(ctx, req, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to enqueue notification")
	}
	return nil
}

func (s *Service) enqueueNotification(ctx context.Context, req domain.VerificationRequest, entry domain.AuditEntry) error {
	payload := domain.NotificationPayload{
		UserID: req.UserID,
		Type:   domain.NotificationTypeVerification,
		Metadata: map[string]string{
			"requestId": req.ID,
		},
	}
	switch entry.Action {
	case domain.ActionVerified:
		payload.Title = "Identity verified"
		payload.Message = "Your identity verification was approved. You can now publish listings."
	case domain.ActionRejected:
		payload.Title = "Identity verification rejected"
		payload.Message = "Your identity verification was rejected: " + entry.Reason
		if req.PendingToken != nil {
			payload.Metadata["pendingToken"] = *req.PendingToken
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.events.Insert(ctx, outbox.Event{
		ID:            uuid.NewString(),
		AggregateType: "verification_request",
		AggregateID:   req.UserID,
		EventType:     string(entry.Action),
		Payload:       body,
		CreatedAt:     entry.DecidedAt,
	})
}
