// Package crypto handles API key generation and hashing.
//
// Keys are random 256-bit values; the database stores only SHA-256 digests,
// so a leaked agents table does not leak credentials.
package crypto
