package raveauth

import "errors"

var (
	// ErrUnauthorized is returned by required authentication when no trusted
	// session could be established for the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenMalformed is returned when a token cannot be parsed into its
	// expected claim shape.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignature is returned when a token's signature does not verify.
	ErrTokenSignature = errors.New("token signature mismatch")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrCSRFMissingCredential is returned when the CSRF header or cookie is
	// absent. Kept distinct from ErrCSRFMismatch for abuse monitoring.
	ErrCSRFMissingCredential = errors.New("csrf credential missing")
	// ErrCSRFMismatch is returned when the header, cookie, and claim nonce
	// are all present but not identical.
	ErrCSRFMismatch = errors.New("csrf token mismatch")
	// ErrForbidden is returned on role-check failure, such as a non-admin
	// attempting impersonation.
	ErrForbidden = errors.New("forbidden")
	// ErrNoImpersonation is returned by EndImpersonation when no
	// impersonation session is active for the request.
	ErrNoImpersonation = errors.New("no active impersonation session")
	// ErrMinimumDurationNotMet is returned when a rating is submitted before
	// the engagement proof's required watch duration has elapsed. This is a
	// user-correctable condition, not a system fault.
	ErrMinimumDurationNotMet = errors.New("minimum watch duration not met")
	// ErrPersistenceFailed is returned when a store call fails. Transient and
	// safe to retry with the same engagement token.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrUserNotFound is returned when a collaborator lookup finds no user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRating is returned when a rating submission names a value
	// outside {positive, negative}.
	ErrInvalidRating = errors.New("invalid rating value")
	// ErrEngineNotReady is returned by Engine methods on a nil or unbuilt
	// engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
