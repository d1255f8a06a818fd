package domain

// UserVerificationStatus is the denormalized verification flag on the user
// entity. External authorization middleware reads it to answer "may this user
// create a listing?"; it is updated only as a side effect of Submit and of
// decisions, never independently.
type UserVerificationStatus string

const (
	UserStatusNotSubmitted UserVerificationStatus = "not_submitted"
	UserStatusPending      UserVerificationStatus = "pending"
	UserStatusVerified     UserVerificationStatus = "verified"
	UserStatusRejected     UserVerificationStatus = "rejected"
)

// User is the slice of the marketplace user entity this subsystem touches.
type User struct {
	ID                 string                 `json:"id"`
	VerificationStatus UserVerificationStatus `json:"verificationStatus"`
}

// ProjectionFor maps a request status to the matching projection value.
func ProjectionFor(status RequestStatus) UserVerificationStatus {
	switch status {
	case StatusPending:
		return UserStatusPending
	case StatusVerified:
		return UserStatusVerified
	case StatusRejected:
		return UserStatusRejected
	}
	return UserStatusNotSubmitted
}
