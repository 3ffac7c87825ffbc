package enums

import "fmt"

// VerificationStatus tracks review of a transporter's documents.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) IsValid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return true
	}
	return false
}

// ParseReviewDecision accepts only the outcomes an admin can record.
func ParseReviewDecision(value string) (VerificationStatus, error) {
	switch VerificationStatus(value) {
	case VerificationStatusVerified, VerificationStatusRejected:
		return VerificationStatus(value), nil
	}
	return "", fmt.Errorf("invalid verification decision %q", value)
}
