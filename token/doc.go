// Package token signs, decodes, and verifies the compact signed tokens the
// raveauth engine issues: session tokens and engagement-proof tokens.
//
// # Claim typing
//
// Every token kind has its own typed claim struct ([SessionClaims],
// [EngagementClaims]) carrying a kind discriminator. Decoding never returns an
// untyped map: a token of the wrong kind, or one whose payload does not match
// the expected shape, fails closed with [ErrMalformed].
//
// # Trust boundary
//
// Decode extracts claims without establishing trust; Verify additionally
// checks the signature and expiry. The error taxonomy ([ErrMalformed],
// [ErrSignatureMismatch], [ErrExpired]) stays distinguishable so the engine
// can choose between refusal and anonymous fallback.
//
// # What this package must NOT do
//
//   - Hold signing material outside the injected [Config] (no package-level
//     secret state).
//   - Perform I/O of any kind. All methods are pure over their inputs.
//   - Import the root raveauth package (no upward imports).
package token
