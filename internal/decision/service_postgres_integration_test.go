//go:build integration

package decision_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verilist/internal/audit"
	"verilist/internal/decision"
	"verilist/internal/domain"
	"verilist/internal/outbox"
	"verilist/internal/reference"
	"verilist/internal/request"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/tx"
	"verilist/pkg/testutil/containers"
)

// The postgres decision suite verifies the writes of one decision commit as
// a single transaction across the request, audit, user and outbox tables.
type DecisionPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	requests *request.Postgres
	users    *user.Postgres
	audits   *audit.Postgres
	events   *outbox.Postgres
	service  *decision.Service
}

func TestDecisionPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DecisionPostgresSuite))
}

func (s *DecisionPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.requests = request.NewPostgres(s.postgres.DB)
	s.users = user.NewPostgres(s.postgres.DB)
	s.audits = audit.NewPostgres(s.postgres.DB)
	s.events = outbox.NewPostgres(s.postgres.DB)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := user.NewCachedStatus(s.users, nil, time.Minute)
	s.service = decision.NewService(
		s.requests, reference.NewPostgres(s.postgres.DB), s.users, cache,
		audit.NewPublisher(s.audits), s.events,
		tx.SQL(s.postgres.DB), logger, nil,
	)
}

func (s *DecisionPostgresSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"outbox", "audit_entries", "verification_requests", "reference_records", "users")
	s.Require().NoError(err)
}

func (s *DecisionPostgresSuite) seedPending(userID, numberA, numberB string) domain.VerificationRequest {
	ctx := context.Background()
	s.Require().NoError(s.users.Create(ctx, domain.User{ID: userID, VerificationStatus: domain.UserStatusPending}))
	req := domain.VerificationRequest{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            "A. Sharma",
		IdentityNumberA: numberA,
		IdentityNumberB: numberB,
		ContactPhone:    "9990001111",
		Address:         "12 Lake Road, Pune",
		Status:          domain.StatusPending,
		SubmittedAt:     time.Now().UTC(),
	}
	s.Require().NoError(s.requests.Create(ctx, req))
	return req
}

func (s *DecisionPostgresSuite) seedReference(numberA, numberB string) {
	ctx := context.Background()
	refs := reference.NewPostgres(s.postgres.DB)
	s.Require().NoError(refs.InsertIgnoreDuplicates(ctx, []domain.ReferenceRecord{{
		IdentityNumberA: numberA,
		IdentityNumberB: numberB,
		Name:            "A. Sharma",
		Phone:           "9990001111",
	}}))
}

func (s *DecisionPostgresSuite) TestApproveCommitsAllWrites() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")
	s.seedReference("1234", "PAN1")

	out, err := s.service.Approve(ctx, req.ID, "rev-1")
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, out.Request.Status)

	got, err := s.requests.GetByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, got.Status)
	s.Require().NotNil(got.DecidedAt)

	entries, err := s.audits.ListByRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.ActionVerified, entries[0].Action)
	s.True(entries[0].ReferenceRecordFound)
	s.Require().NotNil(entries[0].MatchedFields.Name)
	s.True(*entries[0].MatchedFields.Name)

	u, err := s.users.Get(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(domain.UserStatusVerified, u.VerificationStatus)

	events, err := s.events.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("u1", events[0].AggregateID)

	var payload domain.NotificationPayload
	s.Require().NoError(json.Unmarshal(events[0].Payload, &payload))
	s.Equal("u1", payload.UserID)
	s.Equal(domain.NotificationTypeVerification, payload.Type)
}

func (s *DecisionPostgresSuite) TestApproveWithoutReferenceRollsBack() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")

	_, err := s.service.Approve(ctx, req.ID, "rev-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err := s.requests.GetByID(ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, got.Status)

	entries, err := s.audits.ListByRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Empty(entries)

	events, err := s.events.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *DecisionPostgresSuite) TestRejectThenResubmitKeepsAuditHistory() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")

	out, err := s.service.Reject(ctx, req.ID, "rev-1", "photo unreadable")
	s.Require().NoError(err)
	s.Require().NotNil(out.Request.PendingToken)

	// Resubmission overwrites the request in place.
	resubmitted := out.Request
	resubmitted.Name = "Anita Sharma"
	resubmitted.Status = domain.StatusPending
	resubmitted.PendingToken = nil
	resubmitted.RejectionReason = nil
	resubmitted.DecidedAt = nil
	resubmitted.SubmittedAt = time.Now().UTC()
	s.Require().NoError(s.requests.Overwrite(ctx, resubmitted))

	entries, err := s.audits.ListByRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1, "rejection audit survives resubmission")
	s.Equal(domain.ActionRejected, entries[0].Action)
	s.Equal("photo unreadable", entries[0].Reason)
}

func (s *DecisionPostgresSuite) TestDoubleDecide() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")
	s.seedReference("1234", "PAN1")

	_, err := s.service.Approve(ctx, req.ID, "rev-1")
	s.Require().NoError(err)

	_, err = s.service.Reject(ctx, req.ID, "rev-2", "too late")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	entries, err := s.audits.ListByRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
}
