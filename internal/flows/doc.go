// Package flows contains the orchestrators behind every Engine operation.
//
// Each flow function (RunAuthenticate, RunRequestOTP, RunResetPassword, etc.)
// accepts a typed dependency struct and touches exactly one account through
// the store it is given. Decisions are re-evaluated on a freshly loaded copy
// whenever a save loses a version race, so a code or token verifies at most
// once and no failed attempt is lost.
//
// # Architecture boundaries
//
// Flows coordinate the store, hasher, notifier, lockout policy, audit hook
// and metrics hook. They do NOT own any of these resources; ownership stays
// with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goCred (to avoid import cycles).
//   - Log or audit a code, token or password.
package flows
