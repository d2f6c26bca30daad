// Package auth holds the identity facts shared by the auth flows.
package auth

// Claims is the normalized identity returned by a provider after code
// exchange and verification. It contains facts only, no decisions.
type Claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	PhoneNumber   string `json:"phone_number"`
}
