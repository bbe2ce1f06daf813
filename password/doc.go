// Package password implements password hashing and verification with Argon2id defaults.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification recomputes the hash with the parameters embedded in the stored
// string and compares in constant time, so mismatch position never leaks.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy beyond the
// minimum length (reuse history, complexity classes) is enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other goIdentity package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
