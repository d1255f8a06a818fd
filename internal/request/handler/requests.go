package handler

import "verilist/internal/domain"

// SubmitRequest is the HTTP request body for POST /verification/requests.
type SubmitRequest struct {
	Name            string `json:"name"`
	IdentityNumberA string `json:"identityNumberA"`
	IdentityNumberB string `json:"identityNumberB"`
	ContactPhone    string `json:"contactPhone"`
	Address         string `json:"address"`
}

// Claims converts the body to the domain claims; normalization and required
// field checks happen in the service.
func (r SubmitRequest) Claims() domain.Claims {
	return domain.Claims{
		Name:            r.Name,
		IdentityNumberA: r.IdentityNumberA,
		IdentityNumberB: r.IdentityNumberB,
		ContactPhone:    r.ContactPhone,
		Address:         r.Address,
	}
}
