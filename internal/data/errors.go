package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrSignInEventNotFound is returned when an audit row does not exist.
	ErrSignInEventNotFound = errors.New("sign-in event not found")
)
