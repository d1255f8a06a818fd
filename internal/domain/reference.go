package domain

// ReferenceRecord is one entry in the authoritative Reference Directory.
// The directory is populated out-of-band and read-only from this subsystem's
// perspective; both identity numbers are unique across the directory.
type ReferenceRecord struct {
	IdentityNumberA string `json:"identityNumberA"`
	IdentityNumberB string `json:"identityNumberB"`
	Name            string `json:"name"`
	DateOfBirth     string `json:"dateOfBirth"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
}
