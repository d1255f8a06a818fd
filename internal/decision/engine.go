package decision

import "verilist/internal/domain"

// Compare builds a field-level match report between a request's claims and a
// reference record. A field appears in the report only when both sides carry a
// value; absent fields are omitted rather than reported false.
func Compare(req *domain.VerificationRequest, ref *domain.ReferenceRecord) domain.MatchReport {
	report := domain.MatchReport{}
	report.Name = compareField(req.Name, ref.Name)
	report.IdentityNumberA = compareField(
		domain.NormalizeIdentityNumber(req.IdentityNumberA),
		domain.NormalizeIdentityNumber(ref.IdentityNumberA),
	)
	report.IdentityNumberB = compareField(
		domain.NormalizeIdentityNumber(req.IdentityNumberB),
		domain.NormalizeIdentityNumber(ref.IdentityNumberB),
	)
	report.Phone = compareField(req.ContactPhone, ref.Phone)
	return report
}

func compareField(submitted, reference string) *bool {
	if submitted == "" || reference == "" {
		return nil
	}
	equal := submitted == reference
	return &equal
}

// CanDecide reports whether a request in the given status may still be
// approved or rejected.
func CanDecide(status domain.RequestStatus) bool {
	return status == domain.StatusPending
}
