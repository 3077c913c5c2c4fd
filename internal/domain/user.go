package domain

import "time"

// VerificationMethodOTP is the only verification method the onboarding flow
// supports.
const VerificationMethodOTP = "otp"

// User represents a person signing their company up for the forum.
type User struct {
	ID                 string    `json:"user_id,omitempty"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	Verified           bool      `json:"verified"`
	VerificationMethod string    `json:"verification_method,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// FullName joins the non-empty name parts with a space.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
