package handler

import (
	"time"

	"verilist/internal/decision"
	"verilist/internal/domain"
	requesthandler "verilist/internal/request/handler"
)

// DecisionResponse is the HTTP response for a committed decision.
type DecisionResponse struct {
	Request       requesthandler.RequestResponse `json:"request"`
	Action        string                         `json:"action"`
	Reason        string                         `json:"reason,omitempty"`
	MatchedFields domain.MatchReport             `json:"matchedFields"`
	AuditEntryID  string                         `json:"auditEntryId"`
	DecidedAt     time.Time                      `json:"decidedAt"`
}

// FromOutcome converts a decision outcome to its HTTP representation.
func FromOutcome(out decision.Outcome) DecisionResponse {
	return DecisionResponse{
		Request:       requesthandler.FromRequest(out.Request),
		Action:        string(out.Audit.Action),
		Reason:        out.Audit.Reason,
		MatchedFields: out.Audit.MatchedFields,
		AuditEntryID:  out.Audit.ID,
		DecidedAt:     out.Audit.DecidedAt,
	}
}
