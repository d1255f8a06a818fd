package domain

import "time"

// AuditAction is the decision recorded by an audit entry.
type AuditAction string

const (
	ActionVerified AuditAction = "verified"
	ActionRejected AuditAction = "rejected"
)

// MatchReport records, per claim field, whether the submitted value equals
// the reference value. A nil field means the comparison was not performed
// because one side was absent; it is omitted, never reported as false. The
// shape is fixed so the comparison set stays enumerable and testable.
type MatchReport struct {
	Name            *bool `json:"name,omitempty"`
	IdentityNumberA *bool `json:"identityNumberA,omitempty"`
	IdentityNumberB *bool `json:"identityNumberB,omitempty"`
	Phone           *bool `json:"phone,omitempty"`
}

// AuditEntry documents one transition out of pending. Entries are immutable
// once appended and are never rewritten by resubmission.
type AuditEntry struct {
	ID                   string      `json:"id"`
	RequestID            string      `json:"requestId"`
	ReviewerID           *string     `json:"reviewerId,omitempty"` // nil for system-triggered entries
	Action               AuditAction `json:"action"`
	Reason               string      `json:"reason,omitempty"`
	MatchedFields        MatchReport `json:"matchedFields"`
	ReferenceRecordFound bool        `json:"referenceRecordFound"`
	DecidedAt            time.Time   `json:"decidedAt"`
	ClientIP             string      `json:"clientIp,omitempty"`
	UserAgent            string      `json:"userAgent,omitempty"`
}
