package domain

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a verification request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusVerified RequestStatus = "verified"
	StatusRejected RequestStatus = "rejected"
)

// ValidStatus reports whether s is a known request status.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Claims is the identity data a lister submits for verification.
type Claims struct {
	Name            string `json:"name" validate:"required"`
	IdentityNumberA string `json:"identityNumberA" validate:"required"`
	IdentityNumberB string `json:"identityNumberB" validate:"required"`
	ContactPhone    string `json:"contactPhone" validate:"required"`
	Address         string `json:"address" validate:"required"`
}

// Normalized returns a copy with identity numbers trimmed and case-folded so
// uniqueness checks and reference lookups compare canonical values.
func (c Claims) Normalized() Claims {
	c.Name = strings.TrimSpace(c.Name)
	c.IdentityNumberA = NormalizeIdentityNumber(c.IdentityNumberA)
	c.IdentityNumberB = NormalizeIdentityNumber(c.IdentityNumberB)
	c.ContactPhone = strings.TrimSpace(c.ContactPhone)
	c.Address = strings.TrimSpace(c.Address)
	return c
}

// NormalizeIdentityNumber canonicalizes a government identity number for
// storage and comparison.
func NormalizeIdentityNumber(n string) string {
	return strings.ToUpper(strings.TrimSpace(n))
}

// VerificationRequest holds a lister's submitted claims and decision state.
// There is at most one request per user; resubmission after rejection
// overwrites this record in place. Requests are never hard-deleted.
type VerificationRequest struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	IdentityNumberA string         `json:"identityNumberA"`
	IdentityNumberB string         `json:"identityNumberB"`
	Name            string         `json:"name"`
	ContactPhone    string         `json:"contactPhone"`
	Address         string         `json:"address"`
	Status          RequestStatus  `json:"status"`
	PendingToken    *string        `json:"pendingToken,omitempty"`
	RejectionReason *string        `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	DecidedAt       *time.Time     `json:"decidedAt,omitempty"`
}

// Claims extracts the submitted claim fields from the request.
func (r VerificationRequest) Claims() Claims {
	return Claims{
		Name:            r.Name,
		IdentityNumberA: r.IdentityNumberA,
		IdentityNumberB: r.IdentityNumberB,
		ContactPhone:    r.ContactPhone,
		Address:         r.Address,
	}
}
