// Package goCred is a credential and session lifecycle engine: password
// verification, an optional one-time-code second factor, failed-attempt
// lockout and single-use reset and verification tokens.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. All account state lives behind [account.Store]; each
// operation is one read-modify-write guarded by the account version, retried
// on conflict, so a code or token verifies at most once and no failed
// attempt is lost.
//
// # Architecture boundaries
//
// goCred is the public surface. It exposes [Engine], [Builder], [Config] and
// value types ([AuthResult], [Identity], [MetricsSnapshot]). Flow
// orchestration, lockout and code arithmetic, audit dispatch and request
// throttling live under internal/ and are never exported. Stores, notifiers
// and hashers are pluggable through the account, notify and password
// packages.
//
// # What this package must NOT do
//
//   - Keep an ambient "current user"; identity is passed explicitly.
//   - Log or audit a password, one-time code or token.
//   - Store a reset or verification token in clear text.
//   - Treat a failed notification as fatal. State is saved first.
package goCred
