// Package goIdentity provides an embeddable identity and account-security engine:
// password + one-time-code login, tiered security-level policy evaluation,
// encrypted at-rest credential storage, and per-user activity auditing.
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
// A [Session] wraps an Engine for single-client (UI-facing) use and is not
// goroutine-safe.
//
// # Architecture boundaries
//
// goIdentity is the public surface. It exposes [Engine], [Builder], [Config],
// [Store], and value types (User, Activity, LoginResult, MetricsSnapshot).
// Crypto primitives live in the cryptobox and password sub-packages; random
// material generation lives under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Deliver email or SMS itself. Code delivery goes through the injected
//     [Notifier]; the engine only decides when a code is sent.
//   - Hand out aliases into stored state. Every User leaving the store is a
//     deep copy; mutations go through Engine operations or [Store.UpdateUser].
//   - Persist plaintext codes or passwords. Only argon2id password hashes and
//     SHA3 code digests are stored.
package goIdentity
