package auth

import "errors"

var (
	// AuthErr covers provider or backend rejection of a credential or
	// registration (invalid password, duplicate email, unreachable backend).
	AuthErr = errors.New("authentication failed")

	// ProfileUpdateErr covers backend rejection of a profile mutation.
	ProfileUpdateErr = errors.New("profile update failed")
)
