package decision

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verilist/internal/audit"
	"verilist/internal/domain"
	"verilist/internal/outbox"
	"verilist/internal/reference"
	"verilist/internal/request"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/tx"
	"verilist/pkg/requestcontext"
)

type DecisionServiceSuite struct {
	suite.Suite
	requests *request.InMemory
	refs     *reference.InMemory
	users    *user.InMemory
	auditor  *audit.InMemory
	events   *outbox.InMemory
	service  *Service
}

func TestDecisionServiceSuite(t *testing.T) {
	suite.Run(t, new(DecisionServiceSuite))
}

func (s *DecisionServiceSuite) SetupTest() {
	s.requests = request.NewInMemory()
	s.refs = reference.NewInMemory()
	s.users = user.NewInMemory()
	s.auditor = audit.NewInMemory()
	s.events = outbox.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := user.NewCachedStatus(s.users, nil, time.Minute)
	s.service = NewService(
		s.requests, s.refs, s.users, cache,
		audit.NewPublisher(s.auditor), s.events,
		tx.Serial(), logger, nil,
	)
}

func (s *DecisionServiceSuite) seedPending(userID, numberA, numberB string) domain.VerificationRequest {
	ctx := context.Background()
	s.Require().NoError(s.users.Create(ctx, domain.User{ID: userID, VerificationStatus: domain.UserStatusPending}))
	req := domain.VerificationRequest{
		ID:              "req-" + userID,
		UserID:          userID,
		Name:            "A. Sharma",
		IdentityNumberA: numberA,
		IdentityNumberB: numberB,
		ContactPhone:    "9990001111",
		Address:         "12 Lake Road, Pune",
		Status:          domain.StatusPending,
		SubmittedAt:     time.Now(),
	}
	s.Require().NoError(s.requests.Create(ctx, req))
	return req
}

func (s *DecisionServiceSuite) TestApprove() {
	ctx := context.Background()

	s.Run("matching record verifies the request", func() {
		req := s.seedPending("u1", "1234", "PAN1")
		s.Require().NoError(s.refs.InsertIgnoreDuplicates(ctx, []domain.ReferenceRecord{{
			IdentityNumberA: "1234",
			IdentityNumberB: "PAN1",
			Name:            "A. Sharma",
			Phone:           "9990001111",
		}}))

		out, err := s.service.Approve(ctx, req.ID, "rev-1")
		s.Require().NoError(err)
		s.Equal(domain.StatusVerified, out.Request.Status)
		s.Require().NotNil(out.Request.DecidedAt)
		s.Nil(out.Request.PendingToken)
		s.Nil(out.Request.RejectionReason)

		s.True(out.Audit.ReferenceRecordFound)
		s.Equal(domain.ActionVerified, out.Audit.Action)
		s.Require().NotNil(out.Audit.ReviewerID)
		s.Equal("rev-1", *out.Audit.ReviewerID)

		u, err := s.users.Get(ctx, "u1")
		s.Require().NoError(err)
		s.Equal(domain.UserStatusVerified, u.VerificationStatus)

		events := s.events.All()
		s.Require().Len(events, 1)
		s.Equal("u1", events[0].AggregateID)
		s.Equal("verified", events[0].EventType)
	})

	s.Run("address is never part of the match report", func() {
		req := s.seedPending("u2", "5678", "PAN2")
		s.Require().NoError(s.refs.InsertIgnoreDuplicates(ctx, []domain.ReferenceRecord{{
			IdentityNumberA: "5678",
			Name:            "A. Sharma",
			Phone:           "9990001111",
			Address:         "a completely different address",
		}}))

		out, err := s.service.Approve(ctx, req.ID, "rev-1")
		s.Require().NoError(err)

		report := out.Audit.MatchedFields
		s.Require().NotNil(report.Name)
		s.True(*report.Name)
		s.Require().NotNil(report.IdentityNumberA)
		s.True(*report.IdentityNumberA)
		s.Require().NotNil(report.Phone)
		s.True(*report.Phone)
		s.Nil(report.IdentityNumberB) // reference record carries no second number
	})

	s.Run("no matching record fails NotFound and leaves the request pending", func() {
		req := s.seedPending("u3", "0000", "NOPE")

		_, err := s.service.Approve(ctx, req.ID, "rev-1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		got, err := s.requests.GetByID(ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(domain.StatusPending, got.Status)

		entries, err := s.auditor.ListByRequest(ctx, req.ID)
		s.Require().NoError(err)
		s.Empty(entries)
	})

	s.Run("second approve fails InvalidState without a second audit entry", func() {
		req := s.seedPending("u4", "4444", "PAN4")
		s.Require().NoError(s.refs.InsertIgnoreDuplicates(ctx, []domain.ReferenceRecord{{
			IdentityNumberA: "4444",
			Name:            "A. Sharma",
		}}))

		_, err := s.service.Approve(ctx, req.ID, "rev-1")
		s.Require().NoError(err)

		_, err = s.service.Approve(ctx, req.ID, "rev-2")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		entries, err := s.auditor.ListByRequest(ctx, req.ID)
		s.Require().NoError(err)
		s.Len(entries, 1)
	})

	s.Run("unknown request fails NotFound", func() {
		_, err := s.service.Approve(ctx, "missing", "rev-1")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *DecisionServiceSuite) TestReject() {
	ctx := context.Background()

	s.Run("sets rejection fields and a fresh pending token", func() {
		req := s.seedPending("u1", "1234", "PAN1")

		out, err := s.service.Reject(ctx, req.ID, "rev-1", "incomplete")
		s.Require().NoError(err)
		s.Equal(domain.StatusRejected, out.Request.Status)
		s.Require().NotNil(out.Request.PendingToken)
		s.NotEmpty(*out.Request.PendingToken)
		s.Require().NotNil(out.Request.RejectionReason)
		s.Equal("incomplete", *out.Request.RejectionReason)
		s.Nil(out.Request.DecidedAt)

		s.Equal(domain.ActionRejected, out.Audit.Action)
		s.Equal("incomplete", out.Audit.Reason)
		s.False(out.Audit.ReferenceRecordFound)

		u, err := s.users.Get(ctx, "u1")
		s.Require().NoError(err)
		s.Equal(domain.UserStatusRejected, u.VerificationStatus)

		events := s.events.All()
		s.Require().Len(events, 1)
		s.Equal("rejected", events[0].EventType)
	})

	s.Run("empty reason falls back to the default", func() {
		req := s.seedPending("u2", "5678", "PAN2")

		out, err := s.service.Reject(ctx, req.ID, "rev-1", "")
		s.Require().NoError(err)
		s.Equal(defaultRejectReason, out.Audit.Reason)
		s.Require().NotNil(out.Request.RejectionReason)
		s.Equal(defaultRejectReason, *out.Request.RejectionReason)
	})

	s.Run("reject after reject fails InvalidState", func() {
		req := s.seedPending("u3", "9999", "PAN9")

		_, err := s.service.Reject(ctx, req.ID, "rev-1", "first")
		s.Require().NoError(err)

		_, err = s.service.Reject(ctx, req.ID, "rev-2", "second")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *DecisionServiceSuite) TestConcurrentDecisions() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")
	s.Require().NoError(s.refs.InsertIgnoreDuplicates(ctx, []domain.ReferenceRecord{{
		IdentityNumberA: "1234",
		Name:            "A. Sharma",
	}}))

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, errs[i] = s.service.Approve(ctx, req.ID, "rev-a")
			} else {
				_, errs[i] = s.service.Reject(ctx, req.ID, "rev-b", "raced")
			}
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		}
	}
	s.Equal(1, succeeded)

	entries, err := s.auditor.ListByRequest(ctx, req.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *DecisionServiceSuite) TestAuditDecidedAtUsesRequestClock() {
	ctx := context.Background()
	req := s.seedPending("u1", "1234", "PAN1")

	frozen := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	out, err := s.service.Reject(requestcontext.WithTime(ctx, frozen), req.ID, "rev-1", "incomplete")
	s.Require().NoError(err)
	s.Equal(frozen, out.Audit.DecidedAt)
}
