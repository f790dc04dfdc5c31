// Package auth resolves opaque caller credentials into stable identities.
// The identity provider itself is external; this package only validates
// the tokens it issues and exposes the profile fields they carry.
package auth

// Identity is the resolved caller: a stable user identifier plus the
// display fields embedded in the credential.
type Identity struct {
	ID       string
	Name     string
	Email    string
	ImageURL string
}
