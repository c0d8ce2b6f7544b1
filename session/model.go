package session

import "time"

// Handle is one issued session as the transport layer sees it: the signed
// token, the CSRF nonce that must be echoed back, and the expiry both cookies
// share.
type Handle struct {
	Token     string
	CSRFNonce string
	ExpiresAt time.Time
}

// Pair models an active impersonation: the impersonated-user session lives
// under the primary cookie namespace while the admin's own session is parked
// under the admin namespace. Keeping both as typed values makes "current"
// versus "underlying admin" statically distinguishable.
type Pair struct {
	Active     Handle
	Underlying Handle
}
