package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const apiKeyBytes = 24

// GenerateAPIKey returns a URL-safe random channel key. The key is opaque:
// it carries no channel information and is only ever compared for equality.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
