// Package secure provides memory-safe containers for credential values.
//
// Secrets are encrypted at rest in memory via memguard enclaves and are
// wiped when destroyed. A Secret never exposes its value through
// formatting or serialization; the only way to the plaintext is the
// Reveal callback, which is meant to be called exactly once per secret,
// at the transmission boundary.
package secure
