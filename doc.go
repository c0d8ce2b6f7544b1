// Package raveauth is the session-authentication and engagement-integrity
// core of the ravebox review platform: JWT session issuance with a CSRF
// double-submit defense, silent refresh near expiry, an admin impersonation
// session swap, short-lived engagement-proof tokens, and the rating
// increment/decrement workflow those proofs gate.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// raveauth is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([UserStore], [StatisticsStore],
// [RatingStateStore]), and value types. Token signing lives in token/, the
// cookie surface in session/, HTTP guards in middleware/, and the bundled
// redis store implementations under internal/.
//
// # What this package must NOT do
//
//   - Route HTTP, render anything, or hash passwords; those belong to the
//     surrounding platform and reach this core only through the collaborator
//     interfaces.
//   - Hold ambient signing state: secrets enter through [Config] and nowhere
//     else.
//   - Swallow cryptographic or format errors into a generic failure; every
//     rejection keeps its sentinel so callers can choose refusal versus
//     anonymous fallback.
//
// # Performance contract
//
// AuthenticateRequired is the hot path: token verification and the CSRF
// triple-equality check are purely local. Only refresh, impersonation, and
// rating operations touch a store, one round trip each.
package raveauth
