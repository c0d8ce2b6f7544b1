// Package middleware provides net/http middleware over a raveauth Engine:
// [RequireSession] for endpoints that demand authentication,
// [OptionalSession] for endpoints serving both anonymous and authenticated
// callers, and [RequireAdmin] for administrative routes.
//
// Authenticated claims are exposed through [ClaimsFromContext]. Both guards
// silently extend near-expiry sessions by overwriting the session and CSRF
// cookies together.
package middleware
