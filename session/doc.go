// Package session owns the transport-facing session surface: the [Handle]
// and [Pair] value models and the fixed cookie namespace shared with deployed
// ravebox clients.
//
// # Cookie namespaces
//
// The primary namespace (ravebox / XSRF-TOKEN) carries the session the
// request acts as. During admin impersonation the admin's own session is
// parked under the admin namespace (ravebox-admin / XSRF-TOKEN-ADMIN) so that
// ending impersonation restores it without re-authentication.
//
// # Architecture boundaries
//
// This package reads and writes cookies; it never interprets tokens. Trust
// decisions (signature, expiry, the CSRF double-submit check) belong to the
// Engine.
//
// # What this package must NOT do
//
//   - Import the root raveauth or token packages (no upward imports).
//   - Decide authentication outcomes; absent credentials are reported as
//     empty strings, not errors.
package session
