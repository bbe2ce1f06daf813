// Package cryptobox wraps the symmetric at-rest protection used by the
// credential store: AES-256-GCM for reversible fields and SHA3-256 for
// one-way code digests. Passwords are never hashed here; they go through
// the password package's argon2id hasher.
package cryptobox
