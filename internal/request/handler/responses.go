package handler

import (
	"time"

	"verilist/internal/domain"
)

// RequestResponse is the HTTP representation of a verification request.
type RequestResponse struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Name            string     `json:"name"`
	IdentityNumberA string     `json:"identityNumberA"`
	IdentityNumberB string     `json:"identityNumberB"`
	ContactPhone    string     `json:"contactPhone"`
	Address         string     `json:"address"`
	Status          string     `json:"status"`
	PendingToken    *string    `json:"pendingToken,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	DecidedAt       *time.Time `json:"decidedAt,omitempty"`
}

// FromRequest converts a domain request to its HTTP representation.
func FromRequest(req domain.VerificationRequest) RequestResponse {
	return RequestResponse{
		ID:              req.ID,
		UserID:          req.UserID,
		Name:            req.Name,
		IdentityNumberA: req.IdentityNumberA,
		IdentityNumberB: req.IdentityNumberB,
		ContactPhone:    req.ContactPhone,
		Address:         req.Address,
		Status:          string(req.Status),
		PendingToken:    req.PendingToken,
		RejectionReason: req.RejectionReason,
		SubmittedAt:     req.SubmittedAt,
		DecidedAt:       req.DecidedAt,
	}
}

func FromRequests(reqs []domain.VerificationRequest) []RequestResponse {
	out := make([]RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, FromRequest(req))
	}
	return out
}
