package request

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verilist/internal/domain"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/tx"
)

type RequestServiceSuite struct {
	suite.Suite
	store   *InMemory
	users   *user.InMemory
	service *Service
}

func TestRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceSuite))
}

func (s *RequestServiceSuite) SetupTest() {
	s.store = NewInMemory()
	s.users = user.NewInMemory()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := user.NewCachedStatus(s.users, nil, time.Minute)
	s.service = NewService(s.store, s.users, cache, tx.Serial(), logger, nil)
}

func (s *RequestServiceSuite) createUser(id string) {
	err := s.users.Create(context.Background(), domain.User{
		ID:                 id,
		VerificationStatus: domain.UserStatusNotSubmitted,
	})
	s.Require().NoError(err)
}

func validClaims() domain.Claims {
	return domain.Claims{
		Name:            "A. Sharma",
		IdentityNumberA: "1234",
		IdentityNumberB: "PAN1",
		ContactPhone:    "9990001111",
		Address:         "12 Lake Road, Pune",
	}
}

func (s *RequestServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("first submission creates a pending request", func() {
		s.createUser("u1")

		req, err := s.service.Submit(ctx, "u1", validClaims())
		s.Require().NoError(err)
		s.Equal(domain.StatusPending, req.Status)
		s.NotEmpty(req.ID)
		s.Nil(req.PendingToken)
		s.False(req.SubmittedAt.IsZero())

		got, err := s.service.GetByUser(ctx, "u1")
		s.Require().NoError(err)
		s.Equal(req.ID, got.ID)
		s.Equal(validClaims(), got.Claims())

		u, err := s.users.Get(ctx, "u1")
		s.Require().NoError(err)
		s.Equal(domain.UserStatusPending, u.VerificationStatus)
	})

	s.Run("identity numbers are normalized before storage", func() {
		s.createUser("u2")

		claims := validClaims()
		claims.IdentityNumberA = "  ab12  "
		claims.IdentityNumberB = "pan2"

		req, err := s.service.Submit(ctx, "u2", claims)
		s.Require().NoError(err)
		s.Equal("AB12", req.IdentityNumberA)
		s.Equal("PAN2", req.IdentityNumberB)
	})

	s.Run("missing claim fields fail validation", func() {
		s.createUser("u3")

		claims := validClaims()
		claims.ContactPhone = ""
		_, err := s.service.Submit(ctx, "u3", claims)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		claims = validClaims()
		claims.Name = "   "
		_, err = s.service.Submit(ctx, "u3", claims)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown user fails NotFound", func() {
		_, err := s.service.Submit(ctx, "ghost", validClaims())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("resubmission while pending fails Conflict", func() {
		s.createUser("u4")
		claims := validClaims()
		claims.IdentityNumberA = "4444"
		claims.IdentityNumberB = "PAN4"

		_, err := s.service.Submit(ctx, "u4", claims)
		s.Require().NoError(err)

		_, err = s.service.Submit(ctx, "u4", claims)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("identity number held by another lister fails Conflict", func() {
		s.createUser("u5")
		s.createUser("u6")

		claims := validClaims()
		claims.IdentityNumberA = "5555"
		claims.IdentityNumberB = "PAN5"
		_, err := s.service.Submit(ctx, "u5", claims)
		s.Require().NoError(err)

		// same A number, different B
		other := validClaims()
		other.IdentityNumberA = "5555"
		other.IdentityNumberB = "PAN6"
		_, err = s.service.Submit(ctx, "u6", other)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *RequestServiceSuite) TestResubmissionAfterRejection() {
	ctx := context.Background()
	s.createUser("u1")

	first, err := s.service.Submit(ctx, "u1", validClaims())
	s.Require().NoError(err)

	// Decide the request rejected the way the decision service would.
	token := "corr-token"
	reason := "photo unreadable"
	rejected := first
	rejected.Status = domain.StatusRejected
	rejected.PendingToken = &token
	rejected.RejectionReason = &reason
	s.Require().NoError(s.store.TransitionFromPending(ctx, rejected))
	s.Require().NoError(s.users.SetVerificationStatus(ctx, "u1", domain.UserStatusRejected))

	corrected := validClaims()
	corrected.Name = "Anita Sharma"

	resubmitted, err := s.service.Submit(ctx, "u1", corrected)
	s.Require().NoError(err)
	s.Equal(first.ID, resubmitted.ID, "resubmission overwrites the same record")
	s.Equal(domain.StatusPending, resubmitted.Status)
	s.Equal("Anita Sharma", resubmitted.Name)
	s.Nil(resubmitted.PendingToken)
	s.Nil(resubmitted.RejectionReason)
	s.Nil(resubmitted.DecidedAt)

	u, err := s.users.Get(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(domain.UserStatusPending, u.VerificationStatus)
}

func (s *RequestServiceSuite) TestListByStatus() {
	ctx := context.Background()
	s.createUser("u1")
	s.createUser("u2")

	a := validClaims()
	_, err := s.service.Submit(ctx, "u1", a)
	s.Require().NoError(err)

	b := validClaims()
	b.IdentityNumberA = "5678"
	b.IdentityNumberB = "PAN2"
	_, err = s.service.Submit(ctx, "u2", b)
	s.Require().NoError(err)

	pending, err := s.service.ListByStatus(ctx, domain.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 2)

	verified, err := s.service.ListByStatus(ctx, domain.StatusVerified)
	s.Require().NoError(err)
	s.Empty(verified)

	_, err = s.service.ListByStatus(ctx, domain.RequestStatus("bogus"))
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *RequestServiceSuite) TestGetByUserNotFound() {
	s.createUser("u1")
	_, err := s.service.GetByUser(context.Background(), "u1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
