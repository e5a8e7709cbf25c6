package auth

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// user, wrong password, and password login against a passwordless
	// account all collapse into it so callers (and attackers) cannot tell
	// the branches apart.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrStoreUnavailable wraps backing-store failures. It is propagated,
	// never retried here; backoff policy belongs to the caller.
	ErrStoreUnavailable = errors.New("auth: store unavailable")

	// ErrMalformedRequest marks a credential payload rejected at the
	// boundary before it reaches the authenticator. Distinct from
	// ErrInvalidCredentials: a malformed shape is a client bug, not a
	// failed login.
	ErrMalformedRequest = errors.New("auth: malformed request")

	// ErrInvalidToken is returned when a session token fails its
	// integrity or expiry checks.
	ErrInvalidToken = errors.New("auth: invalid token")
)
