package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

const apiKeyBytes = 32

// GenerateAPIKey returns a fresh API key and its storable hash. The plaintext
// key is shown to the agent exactly once at registration; only the hash is
// persisted.
func GenerateAPIKey() (key string, hash string, err error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	key = "moltbook_" + hex.EncodeToString(buf)
	return key, HashAPIKey(key), nil
}

// HashAPIKey returns the hex-encoded SHA-256 digest of key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
