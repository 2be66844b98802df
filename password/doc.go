// Package password implements one-way password hashing for goCred.
//
// # Output format
//
// [Argon2] encodes digests in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Bcrypt] produces standard $2a$/$2b$ digests. [Chain] hashes with a primary
// hasher and verifies with whichever member recognizes a stored digest, so a
// deployment can move from bcrypt to argon2id (or back) one login at a time.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum
// length, reuse rejection) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive digests.
//   - Import any other goCred package.
//   - Log plaintext passwords or digests.
package password
