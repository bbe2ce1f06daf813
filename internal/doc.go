// Package internal holds random-material helpers shared by the engine:
// numeric one-time codes and opaque tokens. Everything here draws from
// crypto/rand; math/rand is never acceptable for code generation.
package internal
