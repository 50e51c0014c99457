package shared

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The message is the same
	// for unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a malformed, unsigned or expired bearer token,
	// or a token subject that no longer resolves to a user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden indicates a valid session lacking the required grant.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrProtectedRole indicates an attempted mutation of a system role.
	ErrProtectedRole = errors.New("protected role")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited indicates too many attempts in the throttle window.
	ErrRateLimited = errors.New("rate limited")
)
