// Package internal holds shared helpers for raveauth that are not part of the
// public API: nonce and anonymous-subject generation.
//
// Nothing in here may import the root raveauth package.
package internal
