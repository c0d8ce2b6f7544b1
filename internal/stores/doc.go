// Package stores provides the bundled redis-backed implementations of the
// engine's persistence collaborators: per-(subject, target) rating state and
// per-target aggregate counters.
//
// # Atomicity contract
//
// Counter mutation is increment-by-delta executed server-side (Lua), never
// read-modify-write, so concurrent deltas cannot lose updates. The clamp at
// zero is part of the same script.
//
// # What this package must NOT do
//
//   - Import the root raveauth package (no upward imports); all values cross
//     the boundary as primitives.
//   - Decide rating transitions. The delta is computed by the engine; this
//     package only applies it.
package stores
