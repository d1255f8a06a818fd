package handler

// RejectRequest is the HTTP request body for POST
// /verification/requests/{id}/reject.
type RejectRequest struct {
	Reason string `json:"reason"`
}
