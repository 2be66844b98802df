// Package account defines the credential record and the store contract that
// every goCred persistence backend implements.
//
// # Architecture boundaries
//
// The package is a leaf: it holds data and sentinel errors only. Lockout,
// one-time code and reset policy live in the engine.
//
// # What this package must NOT do
//
//   - Decide whether an account is allowed to authenticate.
//   - Import any other goCred package.
package account
