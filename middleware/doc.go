// Package middleware exposes net/http adapters over goCred.Engine.
//
// # Handlers
//
//   - [RequestMetadata] copies client IP, user agent and request id into
//     the request context.
//   - [Guard] verifies the bearer identity token and an optional role set.
//   - [RequireCurrentCredentials] additionally rejects accounts that must
//     change their password.
//
// Guards never query the credential store; they trust the signed token
// until it expires.
package middleware
