package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// LicenseKeyPrefix marks download license keys.
const LicenseKeyPrefix = "lk_"

// licenseKeyRandomBytes gives 256 bits of entropy.
const licenseKeyRandomBytes = 32

// LicenseKeyGenerator issues opaque license keys and derives the hash that is
// stored in place of the key.
type LicenseKeyGenerator struct {
	random io.Reader
}

func NewLicenseKeyGenerator() *LicenseKeyGenerator {
	return &LicenseKeyGenerator{random: rand.Reader}
}

// Generate returns a new plaintext key and its storage hash.
func (g *LicenseKeyGenerator) Generate() (string, string, error) {
	randomBytes := make([]byte, licenseKeyRandomBytes)
	if _, err := io.ReadFull(g.random, randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plainKey := LicenseKeyPrefix + hex.EncodeToString(randomBytes)
	return plainKey, g.Hash(plainKey), nil
}

// Hash returns the hex SHA-256 digest of the trimmed key.
func (g *LicenseKeyGenerator) Hash(plainKey string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(plainKey)))
	return hex.EncodeToString(sum[:])
}

func (g *LicenseKeyGenerator) Verify(plainKey, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(g.Hash(plainKey)), []byte(hash)) == 1
}

// LooksLikeLicenseKey is a cheap shape check used before touching storage.
func LooksLikeLicenseKey(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, LicenseKeyPrefix) {
		return false
	}
	body := s[len(LicenseKeyPrefix):]
	if len(body) != licenseKeyRandomBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
